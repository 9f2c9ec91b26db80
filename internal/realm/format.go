package realm

import (
	"fmt"

	"github.com/wowemu/realmd/internal/protocol"
)

// CharCountFunc returns the requesting account's character count on a realm.
type CharCountFunc func(realmID uint32) uint8

// legacyBuild reports whether a client build uses the 1.12.x realm-list
// layout.
func legacyBuild(build uint16) bool {
	switch build {
	case 5875, 6005, 6141:
		return true
	}
	return false
}

// AppendRealmList writes the realm-list response body into pkt: realms whose
// minimum security level the account meets, in snapshot (name) order, in the
// layout matching the client generation.
//
// Two independent indicators are computed per realm: "offline" when the
// connecting build is not in the realm's supported set (the entry falls back
// to the realm's stored build info), and "locked" when the account's
// authenticated security ceiling is below the realm's minimum. Legacy clients
// have no lock byte, so the lock is folded into the offline flag there.
func AppendRealmList(pkt *protocol.ByteBuffer, snap *Snapshot, build uint16, securityLevel, ceiling uint8, charCount CharCountFunc) {
	eligible := make([]Realm, 0, len(snap.Realms))
	for _, r := range snap.Realms {
		if r.SecurityLevel <= securityLevel {
			eligible = append(eligible, r)
		}
	}

	pkt.WriteUint32(0) // unused
	if legacyBuild(build) {
		pkt.WriteUint8(uint8(len(eligible)))
		for _, r := range eligible {
			appendLegacyRealm(pkt, r, build, ceiling, charCount(r.ID))
		}
		pkt.WriteUint16(0x0002)
		return
	}

	pkt.WriteUint16(uint16(len(eligible)))
	for _, r := range eligible {
		appendModernRealm(pkt, r, build, ceiling, charCount(r.ID))
	}
	pkt.WriteUint16(0x0010)
}

func appendLegacyRealm(pkt *protocol.ByteBuffer, r Realm, build uint16, ceiling uint8, chars uint8) {
	okBuild := r.SupportsBuild(build)
	info := FindBuildInfo(build)
	if !okBuild || info == nil {
		info = &r.BuildInfo
	}

	flags := r.Flags
	if !okBuild || r.SecurityLevel > ceiling {
		flags |= FlagOffline
	}

	// 1.x clients cannot render a build requirement, so it is appended to
	// the display name instead.
	name := r.Name
	if flags&FlagSpecifyBuild != 0 {
		name = fmt.Sprintf("%s (%d,%d,%d)", name, info.Major, info.Minor, info.Bugfix)
	}

	pkt.WriteUint32(uint32(r.Icon))
	pkt.WriteUint8(flags)
	pkt.WriteCString(name)
	pkt.WriteCString(r.Address)
	pkt.WriteFloat32(r.Population)
	pkt.WriteUint8(chars)
	pkt.WriteUint8(CategoryID(build, r.Timezone))
	pkt.WriteUint8(0x00)
}

func appendModernRealm(pkt *protocol.ByteBuffer, r Realm, build uint16, ceiling uint8, chars uint8) {
	okBuild := r.SupportsBuild(build)
	info := FindBuildInfo(build)

	var lock uint8
	if r.SecurityLevel > ceiling {
		lock = 1
	}

	flags := r.Flags
	if !okBuild {
		flags |= FlagOffline
	}
	// the build requirement can only be displayed for a build the client
	// actually runs
	if !okBuild || info == nil {
		flags &^= FlagSpecifyBuild
	}

	pkt.WriteUint8(r.Icon)
	pkt.WriteUint8(lock)
	pkt.WriteUint8(flags)
	pkt.WriteCString(r.Name)
	pkt.WriteCString(r.Address)
	pkt.WriteFloat32(r.Population)
	pkt.WriteUint8(chars)
	pkt.WriteUint8(CategoryID(build, r.Timezone))
	pkt.WriteUint8(0x2C)

	if flags&FlagSpecifyBuild != 0 {
		pkt.WriteUint8(info.Major)
		pkt.WriteUint8(info.Minor)
		pkt.WriteUint8(info.Bugfix)
		pkt.WriteUint16(build)
	}
}
