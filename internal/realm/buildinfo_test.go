package realm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindBuildInfo(t *testing.T) {
	tests := []struct {
		name  string
		build uint16
		found bool
		major uint8
	}{
		{"wotlk 3.3.5a", 12340, true, 3},
		{"tbc 2.4.3", 8606, true, 2},
		{"classic 1.12.1", 5875, true, 1},
		{"future build", 20000, true, 3},
		{"unknown gap build", 7000, false, 0},
		{"ancient build", 100, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := FindBuildInfo(tt.build)
			if !tt.found {
				assert.Nil(t, info)
				return
			}
			require.NotNil(t, info)
			assert.Equal(t, tt.major, info.Major)
		})
	}
}

func TestCategoryID(t *testing.T) {
	// WotLK keeps timezone as-is
	assert.Equal(t, uint8(5), CategoryID(12340, 5))
	// classic collapses most zones to 1
	assert.Equal(t, uint8(1), CategoryID(5875, 4))
	// out-of-range timezone falls back to the development zone
	assert.Equal(t, uint8(1), CategoryID(12340, MaxZones))
	// unknown build keeps the raw zone
	assert.Equal(t, uint8(7), CategoryID(7000, 7))
}
