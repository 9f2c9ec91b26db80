package realm

// BuildInfo describes one supported client build: its version triple and the
// per-OS executable hashes used by the strict version check.
type BuildInfo struct {
	Build       uint16
	Major       uint8
	Minor       uint8
	Bugfix      uint8
	Hotfix      byte
	WindowsHash [20]byte
	MacHash     [20]byte
}

// expectedBuilds lists the client builds the gateway accepts. The first entry
// is the low bound of an always-accepted range; later entries must match
// exactly. A zero hash means "not filled serverside" and disables the strict
// check for that build/OS pair.
var expectedBuilds = []BuildInfo{
	{Build: 13930, Major: 3, Minor: 3, Bugfix: 5, Hotfix: 'a'},
	{
		Build: 12340, Major: 3, Minor: 3, Bugfix: 5, Hotfix: 'a',
		WindowsHash: [20]byte{
			0xCD, 0xCB, 0xBD, 0x51, 0x88, 0x31, 0x5E, 0x6B, 0x4D, 0x19,
			0x44, 0x9D, 0x49, 0x2D, 0xBC, 0xFA, 0xF1, 0x56, 0xA3, 0x47,
		},
		MacHash: [20]byte{
			0xB7, 0x06, 0xD1, 0x3F, 0xF2, 0xF4, 0x01, 0x88, 0x39, 0x72,
			0x94, 0x61, 0xE3, 0xF8, 0xA0, 0xE2, 0xB5, 0xFD, 0xC0, 0x34,
		},
	},
	{Build: 11723, Major: 3, Minor: 3, Bugfix: 3, Hotfix: 'a'},
	{Build: 11403, Major: 3, Minor: 3, Bugfix: 2, Hotfix: ' '},
	{Build: 11159, Major: 3, Minor: 3, Bugfix: 0, Hotfix: 'a'},
	{Build: 10505, Major: 3, Minor: 2, Bugfix: 2, Hotfix: 'a'},
	{Build: 9947, Major: 3, Minor: 1, Bugfix: 3, Hotfix: ' '},
	{
		Build: 8606, Major: 2, Minor: 4, Bugfix: 3, Hotfix: ' ',
		WindowsHash: [20]byte{
			0x31, 0x9A, 0xFA, 0xA3, 0xF2, 0x55, 0x96, 0x82, 0xF9, 0xFF,
			0x65, 0x8B, 0xE0, 0x14, 0x56, 0x25, 0x5F, 0x45, 0x6F, 0xB1,
		},
		MacHash: [20]byte{
			0xD8, 0xB0, 0xEC, 0xFE, 0x53, 0x4B, 0xC1, 0x13, 0x1E, 0x19,
			0xBA, 0xD1, 0xD4, 0xC0, 0xE8, 0x13, 0xEE, 0xE4, 0x99, 0x4F,
		},
	},
	{
		Build: 6141, Major: 1, Minor: 12, Bugfix: 3, Hotfix: ' ',
		WindowsHash: [20]byte{
			0xEB, 0x88, 0x24, 0x3E, 0x94, 0x26, 0xC9, 0xD6, 0x8C, 0x81,
			0x87, 0xF7, 0xDA, 0xE2, 0x25, 0xEA, 0xF3, 0x88, 0xD8, 0xAF,
		},
	},
	{
		Build: 6005, Major: 1, Minor: 12, Bugfix: 2, Hotfix: ' ',
		WindowsHash: [20]byte{
			0x06, 0x97, 0x32, 0x38, 0x76, 0x56, 0x96, 0x41, 0x48, 0x79,
			0x28, 0xFD, 0xC7, 0xC9, 0xE3, 0x3B, 0x44, 0x70, 0xC8, 0x80,
		},
	},
	{
		Build: 5875, Major: 1, Minor: 12, Bugfix: 1, Hotfix: ' ',
		WindowsHash: [20]byte{
			0x95, 0xED, 0xB2, 0x7C, 0x78, 0x23, 0xB3, 0x63, 0xCB, 0xDD,
			0xAB, 0x56, 0xA3, 0x92, 0xE7, 0xCB, 0x73, 0xFC, 0xCA, 0x20,
		},
		MacHash: [20]byte{
			0x8D, 0x17, 0x3C, 0xC3, 0x81, 0x96, 0x1E, 0xEB, 0xAB, 0xF3,
			0x36, 0xF5, 0xE6, 0x67, 0x5B, 0x10, 0x1B, 0xB5, 0x13, 0xE5,
		},
	},
}

// FindBuildInfo returns the build info for a client build, or nil when the
// build is unsupported. Builds at or above the newest known build are always
// accepted.
func FindBuildInfo(build uint16) *BuildInfo {
	if build >= expectedBuilds[0].Build {
		return &expectedBuilds[0]
	}
	for i := 1; i < len(expectedBuilds); i++ {
		if expectedBuilds[i].Build == build {
			return &expectedBuilds[i]
		}
	}
	return nil
}

// MaxZones is the number of realm timezone slots in a category table.
const MaxZones = 38

// categoryIDs maps (client major version, realm timezone) to the category id
// shown in the client's realm list tabs.
var categoryIDs = [4][MaxZones]uint8{
	// Alpha
	{0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	// Classic
	{0, 1, 1, 5, 1, 1, 1, 1, 1, 2, 3, 5, 1, 1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 3, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	// TBC
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 0, 0, 0, 0, 0, 0, 0},
	// WotLK
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35, 36, 37},
}

// CategoryID returns the realm category for a client build and realm
// timezone.
func CategoryID(build uint16, timezone uint8) uint8 {
	zone := int(timezone)
	if zone >= MaxZones {
		zone = 1 // development zone
	}
	info := FindBuildInfo(build)
	if info == nil {
		return uint8(zone)
	}
	return categoryIDs[info.Major][zone]
}
