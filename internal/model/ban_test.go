package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccountBanPermanent(t *testing.T) {
	assert.True(t, AccountBan{BannedAt: 100, ExpiresAt: 100}.Permanent())
	assert.False(t, AccountBan{BannedAt: 100, ExpiresAt: 200}.Permanent())
}
