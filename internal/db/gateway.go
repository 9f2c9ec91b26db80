package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wowemu/realmd/internal/model"
	"github.com/wowemu/realmd/internal/realm"
)

// loginSourceRealmd tags audit rows written by this gateway; world servers
// record their own source value.
const loginSourceRealmd = 0

// PostgresAccountGateway is the pgx-backed account store used by the auth
// session. All queries are parameterized.
type PostgresAccountGateway struct {
	pool *pgxpool.Pool
}

// NewPostgresAccountGateway creates a gateway over an existing pool.
func NewPostgresAccountGateway(pool *pgxpool.Pool) *PostgresAccountGateway {
	return &PostgresAccountGateway{pool: pool}
}

// FindAccountByUsername returns the account row, or nil, nil if it does not
// exist. Usernames are matched case-insensitively.
func (g *PostgresAccountGateway) FindAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	var (
		acc           model.Account
		id            int64
		securityLevel int16
		failedLogins  int32
	)
	err := g.pool.QueryRow(ctx,
		`SELECT id, username, security_level, locked, COALESCE(locked_ip, ''),
		        v, s, COALESCE(session_key, ''), COALESCE(token, ''),
		        failed_logins, COALESCE(locale, ''), COALESCE(os, ''), COALESCE(platform, '')
		 FROM account WHERE UPPER(username) = UPPER($1)`, username,
	).Scan(&id, &acc.Username, &securityLevel, &acc.Locked, &acc.LockedIP,
		&acc.VerifierHex, &acc.SaltHex, &acc.SessionKeyHex, &acc.TokenSecret,
		&failedLogins, &acc.Locale, &acc.OS, &acc.Platform)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying account %q: %w", username, err)
	}
	acc.ID = uint32(id)
	acc.SecurityLevel = uint8(securityLevel)
	acc.FailedLogins = uint32(failedLogins)
	return &acc, nil
}

// FindActiveIPBan reports whether the IP carries a permanent or unexpired
// ban.
func (g *PostgresAccountGateway) FindActiveIPBan(ctx context.Context, ip string) (bool, error) {
	var banned bool
	err := g.pool.QueryRow(ctx,
		`SELECT EXISTS (
		    SELECT 1 FROM ip_banned
		    WHERE ip = $1 AND (expires_at = banned_at OR expires_at > EXTRACT(EPOCH FROM now()))
		 )`, ip,
	).Scan(&banned)
	if err != nil {
		return false, fmt.Errorf("querying ip ban for %q: %w", ip, err)
	}
	return banned, nil
}

// FindActiveAccountBan returns the active ban row, or nil, nil if the
// account is not banned.
func (g *PostgresAccountGateway) FindActiveAccountBan(ctx context.Context, accountID uint32) (*model.AccountBan, error) {
	var ban model.AccountBan
	err := g.pool.QueryRow(ctx,
		`SELECT banned_at, expires_at FROM account_banned
		 WHERE account_id = $1 AND active
		   AND (expires_at > EXTRACT(EPOCH FROM now()) OR expires_at = banned_at)`, int64(accountID),
	).Scan(&ban.BannedAt, &ban.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying account ban for %d: %w", accountID, err)
	}
	return &ban, nil
}

// CreateAccount inserts a new account with pre-computed SRP6 values and
// returns the stored row.
func (g *PostgresAccountGateway) CreateAccount(ctx context.Context, username, verifierHex, saltHex string) (*model.Account, error) {
	var id int64
	err := g.pool.QueryRow(ctx,
		`INSERT INTO account (username, v, s, joined_at)
		 VALUES (UPPER($1), $2, $3, now())
		 RETURNING id`,
		username, verifierHex, saltHex,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating account %q: %w", username, err)
	}
	return &model.Account{
		ID:          uint32(id),
		Username:    strings.ToUpper(username),
		VerifierHex: verifierHex,
		SaltHex:     saltHex,
	}, nil
}

// SetSessionKeyAndLocale persists the agreed session key and the client
// identity captured during the challenge.
func (g *PostgresAccountGateway) SetSessionKeyAndLocale(ctx context.Context, username, sessionKeyHex, locale, os, platform string) error {
	_, err := g.pool.Exec(ctx,
		`UPDATE account SET session_key = $1, locale = $2, os = $3, platform = $4
		 WHERE UPPER(username) = UPPER($5)`,
		sessionKeyHex, locale, os, platform, username,
	)
	if err != nil {
		return fmt.Errorf("updating session key for %q: %w", username, err)
	}
	return nil
}

// IncrementFailedLogins bumps the counter and returns the new value.
func (g *PostgresAccountGateway) IncrementFailedLogins(ctx context.Context, username string) (uint32, error) {
	var count int32
	err := g.pool.QueryRow(ctx,
		`UPDATE account SET failed_logins = failed_logins + 1
		 WHERE UPPER(username) = UPPER($1)
		 RETURNING failed_logins`, username,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("incrementing failed logins for %q: %w", username, err)
	}
	return uint32(count), nil
}

// ResetFailedLogins zeroes the counter after a successful login.
func (g *PostgresAccountGateway) ResetFailedLogins(ctx context.Context, username string) error {
	_, err := g.pool.Exec(ctx,
		`UPDATE account SET failed_logins = 0 WHERE UPPER(username) = UPPER($1)`, username,
	)
	if err != nil {
		return fmt.Errorf("resetting failed logins for %q: %w", username, err)
	}
	return nil
}

// InsertAccountBan records a temporary account ban.
func (g *PostgresAccountGateway) InsertAccountBan(ctx context.Context, accountID uint32, duration time.Duration, reason string) error {
	_, err := g.pool.Exec(ctx,
		`INSERT INTO account_banned (account_id, banned_at, expires_at, banned_by, reason, active)
		 VALUES ($1, EXTRACT(EPOCH FROM now()), EXTRACT(EPOCH FROM now()) + $2, 'realmd', $3, true)`,
		int64(accountID), int64(duration.Seconds()), reason,
	)
	if err != nil {
		return fmt.Errorf("inserting account ban for %d: %w", accountID, err)
	}
	return nil
}

// InsertIPBan records a temporary IP ban.
func (g *PostgresAccountGateway) InsertIPBan(ctx context.Context, ip string, duration time.Duration, reason string) error {
	_, err := g.pool.Exec(ctx,
		`INSERT INTO ip_banned (ip, banned_at, expires_at, banned_by, reason)
		 VALUES ($1, EXTRACT(EPOCH FROM now()), EXTRACT(EPOCH FROM now()) + $2, 'realmd', $3)`,
		ip, int64(duration.Seconds()), reason,
	)
	if err != nil {
		return fmt.Errorf("inserting ip ban for %q: %w", ip, err)
	}
	return nil
}

// RecordLogin appends a successful-login audit row.
func (g *PostgresAccountGateway) RecordLogin(ctx context.Context, accountID uint32, ip string) error {
	_, err := g.pool.Exec(ctx,
		`INSERT INTO account_logons (account_id, ip, login_source, login_time)
		 VALUES ($1, $2, $3, now())`,
		int64(accountID), ip, loginSourceRealmd,
	)
	if err != nil {
		return fmt.Errorf("recording login for %d: %w", accountID, err)
	}
	return nil
}

// AccountIDAndSecurity returns the account id and current security level.
func (g *PostgresAccountGateway) AccountIDAndSecurity(ctx context.Context, username string) (uint32, uint8, error) {
	var (
		id            int64
		securityLevel int16
	)
	err := g.pool.QueryRow(ctx,
		`SELECT id, security_level FROM account WHERE UPPER(username) = UPPER($1)`, username,
	).Scan(&id, &securityLevel)
	if err != nil {
		return 0, 0, fmt.Errorf("querying account id for %q: %w", username, err)
	}
	return uint32(id), uint8(securityLevel), nil
}

// CharacterCount returns how many characters the account owns on a realm.
// Missing rows count as zero.
func (g *PostgresAccountGateway) CharacterCount(ctx context.Context, realmID, accountID uint32) (uint8, error) {
	var count int16
	err := g.pool.QueryRow(ctx,
		`SELECT num_chars FROM realm_characters WHERE realm_id = $1 AND account_id = $2`,
		int64(realmID), int64(accountID),
	).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("querying character count for %d/%d: %w", realmID, accountID, err)
	}
	return uint8(count), nil
}

// LoadRealms fetches the advertised realm rows. Rows flagged invalid are
// excluded at the query level.
func (g *PostgresAccountGateway) LoadRealms(ctx context.Context) ([]realm.Realm, error) {
	rows, err := g.pool.Query(ctx,
		`SELECT id, name, address, port, icon, flags, timezone,
		        security_level, population, builds
		 FROM realmlist WHERE (flags & 1) = 0 ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying realmlist: %w", err)
	}
	defer rows.Close()

	var realms []realm.Realm
	for rows.Next() {
		var (
			id            int64
			name          string
			address       string
			port          int32
			icon          int16
			flags         int16
			timezone      int16
			securityLevel int16
			population    float32
			buildsStr     string
		)
		if err := rows.Scan(&id, &name, &address, &port, &icon, &flags, &timezone,
			&securityLevel, &population, &buildsStr); err != nil {
			return nil, fmt.Errorf("scanning realmlist row: %w", err)
		}

		r := realm.Realm{
			ID:            uint32(id),
			Name:          name,
			Address:       fmt.Sprintf("%s:%d", address, port),
			Icon:          uint8(icon),
			Flags:         uint8(flags),
			Timezone:      uint8(timezone),
			SecurityLevel: uint8(securityLevel),
			Population:    population,
			Builds:        parseBuilds(buildsStr),
		}
		r.BuildInfo = defaultBuildInfo(r.Builds)
		realms = append(realms, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating realmlist rows: %w", err)
	}
	return realms, nil
}

// CleanupExpiredBans deactivates expired account bans and removes expired
// IP bans. Permanent bans (expiry == creation) are untouched.
func (g *PostgresAccountGateway) CleanupExpiredBans(ctx context.Context) error {
	if _, err := g.pool.Exec(ctx,
		`UPDATE account_banned SET active = false
		 WHERE expires_at <= EXTRACT(EPOCH FROM now()) AND expires_at <> banned_at`,
	); err != nil {
		return fmt.Errorf("deactivating expired account bans: %w", err)
	}
	if _, err := g.pool.Exec(ctx,
		`DELETE FROM ip_banned
		 WHERE expires_at <= EXTRACT(EPOCH FROM now()) AND expires_at <> banned_at`,
	); err != nil {
		return fmt.Errorf("deleting expired ip bans: %w", err)
	}
	return nil
}

// parseBuilds splits the whitespace-separated build list column.
func parseBuilds(s string) map[uint16]struct{} {
	builds := make(map[uint16]struct{})
	for _, token := range strings.Fields(s) {
		if build, err := strconv.ParseUint(token, 10, 16); err == nil {
			builds[uint16(build)] = struct{}{}
		}
	}
	return builds
}

// defaultBuildInfo picks the realm's fallback build info from its lowest
// supported build.
func defaultBuildInfo(builds map[uint16]struct{}) realm.BuildInfo {
	var first uint16
	for build := range builds {
		if first == 0 || build < first {
			first = build
		}
	}
	if first == 0 {
		return realm.BuildInfo{}
	}
	if info := realm.FindBuildInfo(first); info != nil && info.Build == first {
		return *info
	}
	return realm.BuildInfo{Build: first}
}
