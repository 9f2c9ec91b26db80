package auth

import (
	"context"
	"time"

	"github.com/wowemu/realmd/internal/model"
	"github.com/wowemu/realmd/internal/realm"
)

// AccountGateway is the persistence contract the session state machine
// depends on. Every call may fail; the caller treats a failure as a denial
// and drops the connection, never as a silent success.
type AccountGateway interface {
	// FindAccountByUsername returns (nil, nil) when no such account exists.
	FindAccountByUsername(ctx context.Context, username string) (*model.Account, error)

	// FindActiveIPBan reports whether ip currently carries an active ban.
	FindActiveIPBan(ctx context.Context, ip string) (bool, error)

	// FindActiveAccountBan returns the active ban row for an account, or
	// (nil, nil) when the account is not banned.
	FindActiveAccountBan(ctx context.Context, accountID uint32) (*model.AccountBan, error)

	// CreateAccount provisions a new account from pre-computed SRP6 values.
	CreateAccount(ctx context.Context, username, verifierHex, saltHex string) (*model.Account, error)

	// SetSessionKeyAndLocale persists the agreed session key together with
	// the client identity fields captured during the challenge.
	SetSessionKeyAndLocale(ctx context.Context, username, sessionKeyHex, locale, os, platform string) error

	// IncrementFailedLogins bumps the counter and returns the new value.
	IncrementFailedLogins(ctx context.Context, username string) (uint32, error)

	ResetFailedLogins(ctx context.Context, username string) error

	InsertAccountBan(ctx context.Context, accountID uint32, duration time.Duration, reason string) error

	InsertIPBan(ctx context.Context, ip string, duration time.Duration, reason string) error

	// RecordLogin appends a successful-login audit row.
	RecordLogin(ctx context.Context, accountID uint32, ip string) error

	// AccountIDAndSecurity returns the account id and current security level.
	AccountIDAndSecurity(ctx context.Context, username string) (uint32, uint8, error)

	// CharacterCount returns how many characters the account owns on a realm.
	CharacterCount(ctx context.Context, realmID, accountID uint32) (uint8, error)

	// LoadRealms fetches the realm directory rows.
	LoadRealms(ctx context.Context) ([]realm.Realm, error)
}
