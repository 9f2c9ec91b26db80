package model

// AccountBan is an active ban row. A ban whose expiry equals its creation
// time is permanent; anything else is a temporary suspension.
type AccountBan struct {
	BannedAt  int64
	ExpiresAt int64
}

// Permanent reports whether the ban never expires.
func (b AccountBan) Permanent() bool {
	return b.BannedAt == b.ExpiresAt
}
