package realm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRealm(id uint32, name string) Realm {
	return Realm{
		ID:      id,
		Name:    name,
		Address: "127.0.0.1:8085",
		Builds:  map[uint16]struct{}{12340: {}},
	}
}

func TestStoreRefreshSortsByName(t *testing.T) {
	store := NewStore(func(ctx context.Context) ([]Realm, error) {
		return []Realm{
			testRealm(2, "Zeta"),
			testRealm(1, "Alpha"),
			testRealm(3, "Midgard"),
		}, nil
	}, 0)

	require.NoError(t, store.Refresh(context.Background()))

	snap := store.Current()
	require.Len(t, snap.Realms, 3)
	assert.Equal(t, "Alpha", snap.Realms[0].Name)
	assert.Equal(t, "Midgard", snap.Realms[1].Name)
	assert.Equal(t, "Zeta", snap.Realms[2].Name)
}

func TestStoreRefreshValidatesRows(t *testing.T) {
	store := NewStore(func(ctx context.Context) ([]Realm, error) {
		bad := testRealm(0, "NoID")
		flagged := testRealm(1, "Flagged")
		flagged.Flags = 0xFF
		elevated := testRealm(2, "Elevated")
		elevated.SecurityLevel = 200
		return []Realm{bad, flagged, elevated}, nil
	}, 0)

	require.NoError(t, store.Refresh(context.Background()))

	snap := store.Current()
	require.Len(t, snap.Realms, 2, "zero-id realm must be dropped")
	assert.Equal(t, snap.Realms[0].Flags&^ValidFlags, uint8(0), "invalid flags must be masked")
	assert.Equal(t, SecAdministrator, snap.Realms[1].SecurityLevel)
}

func TestStoreRefreshKeepsOldSnapshotOnError(t *testing.T) {
	calls := 0
	store := NewStore(func(ctx context.Context) ([]Realm, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("database gone")
		}
		return []Realm{testRealm(1, "Alpha")}, nil
	}, 0)

	require.NoError(t, store.Refresh(context.Background()))
	require.Error(t, store.Refresh(context.Background()))

	assert.Equal(t, 1, store.Len(), "failed refresh must not clear the snapshot")
}

func TestStoreRefreshIfStaleHonorsInterval(t *testing.T) {
	calls := 0
	store := NewStore(func(ctx context.Context) ([]Realm, error) {
		calls++
		return []Realm{testRealm(1, "Alpha")}, nil
	}, time.Hour)

	require.NoError(t, store.Refresh(context.Background()))
	require.NoError(t, store.RefreshIfStale(context.Background()))
	require.NoError(t, store.RefreshIfStale(context.Background()))

	assert.Equal(t, 1, calls, "interval has not elapsed, no reload expected")
}

func TestStoreCurrentNeverNil(t *testing.T) {
	store := NewStore(func(ctx context.Context) ([]Realm, error) { return nil, nil }, 0)
	require.NotNil(t, store.Current())
	assert.Equal(t, 0, store.Len())
}
