package auth

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/wowemu/realmd/internal/config"
	"github.com/wowemu/realmd/internal/crypto"
	"github.com/wowemu/realmd/internal/model"
	"github.com/wowemu/realmd/internal/protocol"
	"github.com/wowemu/realmd/internal/realm"
)

// sessionState tracks where a connection is in the authentication flow.
// Opcodes are only legal in specific states; anything else drops the
// connection without a response.
type sessionState int

const (
	stateChallenge sessionState = iota
	stateLogonProof
	stateReconnectProof
	statePatch
	stateAuthed
	stateClosed
)

// readTimeout bounds how long a client may stay silent before the
// connection is dropped.
const readTimeout = 30 * time.Second

// maxReconnectNameLen is the tighter username cap on the reconnect path.
const maxReconnectNameLen = 10

// Session owns all mutable state of one client connection: the SRP6 engine,
// the identity captured during the challenge, and the state machine
// position. It is never shared between goroutines.
type Session struct {
	conn     net.Conn
	cfg      config.Realmd
	gw       AccountGateway
	realms   *realm.Store
	remoteIP string

	state sessionState
	srp   *crypto.SRP6

	login    string
	token    string
	os       string
	platform string
	locale   string
	build    uint16

	accountID     uint32
	securityLevel uint8

	reconnectProof *crypto.BigNumber

	gridSeed     uint32
	securitySalt *crypto.BigNumber
	promptPin    bool
}

// NewSession wraps an accepted connection. The caller remains responsible
// for running it.
func NewSession(conn net.Conn, cfg config.Realmd, gw AccountGateway, realms *realm.Store) *Session {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		host = conn.RemoteAddr().String()
	}
	return &Session{
		conn:           conn,
		cfg:            cfg,
		gw:             gw,
		realms:         realms,
		remoteIP:       host,
		state:          stateChallenge,
		srp:            crypto.NewSRP6(),
		reconnectProof: crypto.NewBigNumber(),
		securitySalt:   crypto.NewBigNumber(),
	}
}

// Run drives the session until the client disconnects, times out, or
// violates the protocol. It always closes the connection on return.
func (s *Session) Run(ctx context.Context) {
	defer s.conn.Close()

	for {
		if ctx.Err() != nil {
			return
		}

		op, err := s.readOpcode()
		if err != nil {
			slog.Debug("connection closed", "remote", s.remoteIP, "error", err)
			return
		}

		if !protocol.KnownOpcode(op) {
			slog.Debug("unknown opcode", "remote", s.remoteIP, "opcode", op)
			return
		}
		if requiredState(op) != s.state {
			slog.Debug("opcode illegal in current state", "remote", s.remoteIP, "opcode", op)
			return
		}

		switch op {
		case protocol.OpcodeLogonChallenge:
			err = s.handleLogonChallenge(ctx)
		case protocol.OpcodeLogonProof:
			err = s.handleLogonProof(ctx)
		case protocol.OpcodeReconnectChallenge:
			err = s.handleReconnectChallenge(ctx)
		case protocol.OpcodeReconnectProof:
			err = s.handleReconnectProof(ctx)
		case protocol.OpcodeRealmList:
			err = s.handleRealmList(ctx)
		case protocol.OpcodeXferResume:
			_, err = s.readExact(8)
		case protocol.OpcodeXferAccept:
			// acknowledgment only
		case protocol.OpcodeXferCancel:
			return
		default:
			return
		}

		if err != nil {
			slog.Debug("handler failed", "remote", s.remoteIP, "opcode", op, "error", err)
			return
		}
		if s.state == stateClosed {
			return
		}
	}
}

// requiredState maps an opcode to the only state in which it is legal.
func requiredState(op byte) sessionState {
	switch op {
	case protocol.OpcodeLogonChallenge, protocol.OpcodeReconnectChallenge:
		return stateChallenge
	case protocol.OpcodeLogonProof:
		return stateLogonProof
	case protocol.OpcodeReconnectProof:
		return stateReconnectProof
	case protocol.OpcodeRealmList:
		return stateAuthed
	case protocol.OpcodeXferAccept, protocol.OpcodeXferResume, protocol.OpcodeXferCancel:
		return statePatch
	}
	return stateClosed
}

func (s *Session) readOpcode() (byte, error) {
	buf, err := s.readExact(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (s *Session) readExact(n int) ([]byte, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return nil, fmt.Errorf("setting read deadline: %w", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.conn, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *Session) write(data []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(readTimeout)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	if _, err := s.conn.Write(data); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

func (s *Session) handleLogonChallenge(ctx context.Context) error {
	hdrBuf, err := s.readExact(protocol.LogonChallengeHeaderSize)
	if err != nil {
		return err
	}
	hdr, ok := protocol.ParseLogonChallengeHeader(hdrBuf)
	if !ok || int(hdr.Size) < protocol.LogonChallengeBodyMinSize {
		return errors.New("logon challenge body too small")
	}

	// Closed unless a handler path explicitly advances the state.
	s.state = stateClosed

	bodyBuf, err := s.readExact(int(hdr.Size))
	if err != nil {
		return err
	}
	body, ok := protocol.ParseLogonChallengeBody(bodyBuf)
	if !ok {
		return errors.New("malformed logon challenge body")
	}
	if len(body.Username) > protocol.MaxUsernameLen {
		return errors.New("username too long")
	}

	s.login = body.Username
	s.build = body.Build
	s.os = body.OSString()
	s.platform = body.PlatformString()
	s.locale = body.LocaleString()

	slog.Debug("logon challenge", "account", s.login, "build", s.build, "remote", s.remoteIP)

	pkt := protocol.NewByteBuffer(128)
	pkt.WriteUint8(protocol.OpcodeLogonChallenge)
	pkt.WriteUint8(0x00)

	banned, err := s.gw.FindActiveIPBan(ctx, s.remoteIP)
	if err != nil {
		return fmt.Errorf("checking ip ban: %w", err)
	}
	if banned {
		slog.Info("banned ip tried to login", "ip", s.remoteIP)
		pkt.WriteUint8(protocol.ResultFailedNoAccess)
		return s.write(pkt.Bytes())
	}

	acct, err := s.gw.FindAccountByUsername(ctx, s.login)
	if err != nil {
		return fmt.Errorf("looking up account: %w", err)
	}
	if acct == nil {
		if !s.cfg.AutoCreateAccounts {
			pkt.WriteUint8(protocol.ResultFailedUnknownAccount)
			return s.write(pkt.Bytes())
		}
		acct, err = s.autoCreateAccount(ctx)
		if err != nil {
			slog.Error("auto-creating account failed", "account", s.login, "error", err)
			pkt.WriteUint8(protocol.ResultFailedUnknownAccount)
			return s.write(pkt.Bytes())
		}
		slog.Info("account auto-created", "account", s.login)
	}

	if acct.Locked && acct.LockedIP != s.remoteIP {
		slog.Debug("account locked to different ip", "account", s.login, "locked_ip", acct.LockedIP, "remote", s.remoteIP)
		pkt.WriteUint8(protocol.ResultFailedSuspended)
		return s.write(pkt.Bytes())
	}

	if !s.srp.SetVerifier(acct.VerifierHex) || !s.srp.SetSalt(acct.SaltHex) {
		slog.Warn("broken verifier/salt values", "account", s.login)
		pkt.WriteUint8(protocol.ResultFailedNoAccess)
		return s.write(pkt.Bytes())
	}

	ban, err := s.gw.FindActiveAccountBan(ctx, acct.ID)
	if err != nil {
		return fmt.Errorf("checking account ban: %w", err)
	}
	if ban != nil {
		if ban.Permanent() {
			slog.Info("banned account tried to login", "account", s.login)
			pkt.WriteUint8(protocol.ResultFailedBanned)
		} else {
			slog.Info("suspended account tried to login", "account", s.login)
			pkt.WriteUint8(protocol.ResultFailedSuspended)
		}
		return s.write(pkt.Bytes())
	}

	s.srp.GenerateChallenge()

	pkt.WriteUint8(protocol.ResultSuccess)
	pkt.Append(s.srp.HostPublicEphemeral().LittleEndianBytes(crypto.EphemeralSize))
	pkt.WriteUint8(1)
	pkt.Append(s.srp.Generator().LittleEndianBytes(0))
	pkt.WriteUint8(crypto.EphemeralSize)
	pkt.Append(s.srp.Prime().LittleEndianBytes(crypto.EphemeralSize))
	pkt.Append(s.srp.Salt().LittleEndianBytes(crypto.SaltSize))
	pkt.Append(protocol.VersionChallenge[:])

	s.token = acct.TokenSecret
	var securityFlags byte
	if s.token != "" && s.build >= 8606 {
		// the authenticator arrived with 2.4.3
		securityFlags = protocol.SecurityFlagAuthenticator
	}
	if s.token != "" && s.build <= 6141 {
		securityFlags = protocol.SecurityFlagPin
	}
	pkt.WriteUint8(securityFlags)

	if securityFlags&protocol.SecurityFlagPin != 0 {
		s.gridSeed = 0
		pkt.WriteUint32(s.gridSeed)
		s.securitySalt.SetRandom(16 * 8)
		pkt.Append(s.securitySalt.LittleEndianBytes(16)[:16])
		s.promptPin = true
	}
	if securityFlags&protocol.SecurityFlagAuthenticator != 0 {
		pkt.WriteUint8(1)
	}

	s.accountID = acct.ID
	s.securityLevel = min(acct.SecurityLevel, realm.SecAdministrator)
	s.state = stateLogonProof
	return s.write(pkt.Bytes())
}

// autoCreateAccount provisions an account whose password equals its
// username, the convention used on development realms.
func (s *Session) autoCreateAccount(ctx context.Context) (*model.Account, error) {
	upper := strings.ToUpper(s.login)
	sha := crypto.NewSha1()
	sha.WriteString(upper + ":" + upper)
	identity := sha.Sum()

	srp := crypto.NewSRP6()
	if !srp.CalculateVerifierRandom(strings.ToUpper(hex.EncodeToString(identity[:]))) {
		return nil, errors.New("deriving verifier")
	}
	return s.gw.CreateAccount(ctx, s.login, srp.Verifier().Hex(), srp.Salt().Hex())
}

func (s *Session) handleLogonProof(ctx context.Context) error {
	size := protocol.LogonProofSize
	if s.promptPin {
		size = protocol.LogonProofSizeWithPin
	}
	buf, err := s.readExact(size)
	if err != nil {
		return err
	}
	proof, ok := protocol.ParseLogonProofClient(buf, s.promptPin)
	if !ok {
		return errors.New("malformed logon proof")
	}

	s.state = stateClosed

	if realm.FindBuildInfo(s.build) == nil {
		slog.Info("unsupported client build", "account", s.login, "build", s.build)
		return s.write([]byte{protocol.OpcodeLogonChallenge, 0x00, protocol.ResultFailedVersionInvalid})
	}

	if !s.srp.AgreeSessionKey(proof.A[:]) {
		slog.Info("degenerate client ephemeral", "account", s.login, "remote", s.remoteIP)
		return nil
	}
	s.srp.DeriveStrongSessionKey()
	s.srp.ComputeServerProof(s.login)

	if !s.srp.VerifyClientProof(proof.M1[:]) {
		slog.Info("wrong password", "account", s.login, "remote", s.remoteIP)
		if err := s.writeProofError(); err != nil {
			return err
		}
		s.recordFailedLogin(ctx)
		return nil
	}

	if s.build > 6141 && (proof.SecurityFlags&protocol.SecurityFlagAuthenticator != 0 || s.token != "") {
		if !s.checkAuthenticatorToken() {
			return s.writeProofError()
		}
	}

	return s.finalizeLogon(ctx, proof)
}

// checkAuthenticatorToken reads the token payload that follows the proof
// body and validates it against the account's TOTP secret. Any failure is
// reported to the client as the generic unknown-account error.
func (s *Session) checkAuthenticatorToken() bool {
	countBuf, err := s.readExact(1)
	if err != nil {
		return false
	}
	count := int(countBuf[0])
	if count > 16 {
		return false
	}
	keys, err := s.readExact(count)
	if err != nil {
		return false
	}

	clientToken := int32(-1)
	if v, err := strconv.ParseInt(string(keys), 10, 32); err == nil {
		clientToken = int32(v)
	}
	serverToken := crypto.GenerateToken(s.token)
	if serverToken != clientToken {
		slog.Info("wrong authenticator token", "account", s.login, "given", clientToken)
		return false
	}
	return true
}

func (s *Session) finalizeLogon(ctx context.Context, proof protocol.LogonProofClient) error {
	if !s.verifyVersion(proof.A[:], proof.CRCHash[:], false) {
		slog.Info("modified client detected", "account", s.login, "build", s.build)
		return s.write([]byte{protocol.OpcodeLogonProof, protocol.ResultFailedVersionInvalid})
	}

	slog.Info("account authenticated", "account", s.login, "remote", s.remoteIP)

	keyHex := s.srp.StrongSessionKey().Hex()
	if err := s.gw.SetSessionKeyAndLocale(ctx, s.login, keyHex, s.locale, s.os, s.platform); err != nil {
		return fmt.Errorf("persisting session key: %w", err)
	}
	if err := s.gw.ResetFailedLogins(ctx, s.login); err != nil {
		slog.Error("resetting failed logins", "account", s.login, "error", err)
	}
	if err := s.gw.RecordLogin(ctx, s.accountID, s.remoteIP); err != nil {
		slog.Error("recording login", "account", s.login, "error", err)
	}

	m2 := s.srp.FinalizeServerResponse()
	var out []byte
	switch s.build {
	case 5875, 6005, 6141:
		out = protocol.LogonProofServerLegacy{M2: m2}.Serialize()
	default:
		out = protocol.LogonProofServer{M2: m2, AccountFlags: protocol.AccountFlagProPass}.Serialize()
	}
	if err := s.write(out); err != nil {
		return err
	}

	s.state = stateAuthed
	return nil
}

// writeProofError sends the generic wrong-password response. Clients past
// 1.12.2 expect two extra padding bytes.
func (s *Session) writeProofError() error {
	if s.build > 6005 {
		return s.write([]byte{protocol.OpcodeLogonProof, protocol.ResultFailedUnknownAccount, 0, 0})
	}
	return s.write([]byte{protocol.OpcodeLogonProof, protocol.ResultFailedUnknownAccount})
}

// recordFailedLogin bumps the persistent counter and applies the configured
// auto-ban once the threshold is reached. Storage failures are logged and
// otherwise ignored; the login already failed.
func (s *Session) recordFailedLogin(ctx context.Context) {
	if s.cfg.WrongPassMaxCount <= 0 {
		return
	}

	count, err := s.gw.IncrementFailedLogins(ctx, s.login)
	if err != nil {
		slog.Error("incrementing failed logins", "account", s.login, "error", err)
		return
	}
	if count < uint32(s.cfg.WrongPassMaxCount) {
		return
	}

	duration := time.Duration(s.cfg.WrongPassBanTime) * time.Second
	if s.cfg.WrongPassBanAccount {
		if err := s.gw.InsertAccountBan(ctx, s.accountID, duration, "failed login autoban"); err != nil {
			slog.Error("inserting account ban", "account", s.login, "error", err)
			return
		}
		slog.Info("account auto-banned", "account", s.login, "duration", duration, "failed_logins", count)
	} else {
		if err := s.gw.InsertIPBan(ctx, s.remoteIP, duration, "failed login autoban"); err != nil {
			slog.Error("inserting ip ban", "ip", s.remoteIP, "error", err)
			return
		}
		slog.Info("ip auto-banned", "ip", s.remoteIP, "account", s.login, "duration", duration, "failed_logins", count)
	}
}

func (s *Session) handleReconnectChallenge(ctx context.Context) error {
	hdrBuf, err := s.readExact(protocol.LogonChallengeHeaderSize)
	if err != nil {
		return err
	}
	hdr, ok := protocol.ParseLogonChallengeHeader(hdrBuf)
	if !ok {
		return errors.New("malformed reconnect challenge header")
	}

	s.state = stateClosed

	bodyBuf, err := s.readExact(int(hdr.Size))
	if err != nil {
		return err
	}
	body, ok := protocol.ParseLogonChallengeBody(bodyBuf)
	if !ok {
		return errors.New("malformed reconnect challenge body")
	}
	if len(body.Username) > maxReconnectNameLen {
		return errors.New("username too long for reconnect")
	}

	s.login = body.Username
	s.build = body.Build

	acct, err := s.gw.FindAccountByUsername(ctx, s.login)
	if err != nil {
		return fmt.Errorf("looking up account: %w", err)
	}
	if acct == nil || acct.SessionKeyHex == "" {
		slog.Error("reconnect without stored session key", "account", s.login)
		return errors.New("no session key")
	}
	s.srp.SetStrongSessionKey(acct.SessionKeyHex)

	pkt := protocol.NewByteBuffer(34)
	pkt.WriteUint8(protocol.OpcodeReconnectChallenge)
	pkt.WriteUint8(0x00)
	s.reconnectProof.SetRandom(16 * 8)
	pkt.Append(s.reconnectProof.LittleEndianBytes(16)[:16])
	pkt.Append(protocol.VersionChallenge[:])

	s.state = stateReconnectProof
	return s.write(pkt.Bytes())
}

func (s *Session) handleReconnectProof(ctx context.Context) error {
	_ = ctx

	buf, err := s.readExact(protocol.ReconnectProofSize)
	if err != nil {
		return err
	}
	proof, ok := protocol.ParseReconnectProofClient(buf)
	if !ok {
		return errors.New("malformed reconnect proof")
	}

	s.state = stateClosed

	k := s.srp.StrongSessionKey()
	if s.login == "" || s.reconnectProof.NumBytes() == 0 || k.NumBytes() == 0 {
		return nil
	}

	t1 := crypto.NewBigNumber()
	t1.SetLittleEndianBytes(proof.R1[:])

	sha := crypto.NewSha1()
	sha.WriteString(s.login)
	sha.WriteBigNumbers(t1, s.reconnectProof, k)
	digest := sha.Sum()

	if !bytes.Equal(digest[:], proof.R2[:]) {
		slog.Error("reconnect session invalid", "account", s.login, "remote", s.remoteIP)
		return nil
	}

	if !s.verifyVersion(proof.R1[:], proof.R3[:], true) {
		return s.write([]byte{protocol.OpcodeReconnectProof, protocol.ResultFailedVersionInvalid})
	}

	pkt := protocol.NewByteBuffer(4)
	pkt.WriteUint8(protocol.OpcodeReconnectProof)
	pkt.WriteUint8(protocol.ResultSuccess)
	pkt.WriteUint16(0x00)

	s.state = stateAuthed
	return s.write(pkt.Bytes())
}

func (s *Session) handleRealmList(ctx context.Context) error {
	// 4 bytes of client padding
	if _, err := s.readExact(4); err != nil {
		return err
	}

	accountID, securityLevel, err := s.gw.AccountIDAndSecurity(ctx, s.login)
	if err != nil {
		return fmt.Errorf("looking up account for realm list: %w", err)
	}

	if err := s.realms.RefreshIfStale(ctx); err != nil {
		// keep serving the previous snapshot
		slog.Error("realm list refresh failed", "error", err)
	}

	body := protocol.NewByteBuffer(256)
	realm.AppendRealmList(body, s.realms.Current(), s.build, securityLevel, s.securityLevel, func(realmID uint32) uint8 {
		count, err := s.gw.CharacterCount(ctx, realmID, accountID)
		if err != nil {
			slog.Error("fetching character count", "realm", realmID, "account", s.login, "error", err)
			return 0
		}
		return count
	})

	pkt := protocol.NewByteBuffer(body.Len() + 3)
	pkt.WriteUint8(protocol.OpcodeRealmList)
	pkt.WriteUint16(uint16(body.Len()))
	pkt.Append(body.Bytes())
	return s.write(pkt.Bytes())
}

// verifyVersion checks the client's executable hash against the expected
// per-build value. Reconnect proofs are checked against a zero reference,
// trusting the hash established at logon.
func (s *Session) verifyVersion(a, versionProof []byte, reconnect bool) bool {
	if !s.cfg.StrictVersionCheck {
		return true
	}

	var ref [crypto.Sha1Digest]byte
	if !reconnect {
		info := realm.FindBuildInfo(s.build)
		if info == nil {
			return false
		}
		switch s.os {
		case "Win":
			ref = info.WindowsHash
		case "OSX":
			ref = info.MacHash
		default:
			return false
		}
		if ref == [crypto.Sha1Digest]byte{} {
			// hash not filled serverside
			return true
		}
	}

	sha := crypto.NewSha1()
	sha.WriteBytes(a)
	sha.WriteBytes(ref[:])
	digest := sha.Sum()
	return bytes.Equal(digest[:], versionProof)
}
