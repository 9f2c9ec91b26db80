package realm

// Realm flag bits advertised to the client.
const (
	FlagInvalid      uint8 = 0x01
	FlagOffline      uint8 = 0x02
	FlagSpecifyBuild uint8 = 0x04
	FlagNewPlayers   uint8 = 0x20
	FlagRecommended  uint8 = 0x40
)

// ValidFlags is the mask of flags a realm row may legitimately carry.
const ValidFlags = FlagOffline | FlagSpecifyBuild | FlagNewPlayers | FlagRecommended

// Account security levels. A realm with a non-zero minimum level is hidden
// from accounts below it.
const (
	SecPlayer        uint8 = 0
	SecModerator     uint8 = 1
	SecGameMaster    uint8 = 2
	SecAdministrator uint8 = 3
)

// Realm is one game-world endpoint advertised to authenticated clients.
type Realm struct {
	ID            uint32
	Name          string
	Address       string // host:port
	Icon          uint8
	Flags         uint8
	Timezone      uint8
	SecurityLevel uint8 // minimum account security level
	Population    float32
	Builds        map[uint16]struct{}
	BuildInfo     BuildInfo // fallback when the connecting build is unsupported
}

// SupportsBuild reports whether the realm accepts the given client build.
func (r Realm) SupportsBuild(build uint16) bool {
	_, ok := r.Builds[build]
	return ok
}
