package services

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stockIDPattern = regexp.MustCompile(`^STOCK-[0-9A-Z]+-[0-9A-Z]{6}$`)

func TestGenerateStockID_Format(t *testing.T) {
	for i := 0; i < 100; i++ {
		id, err := generateStockID()
		require.NoError(t, err)
		assert.Regexp(t, stockIDPattern, id)
	}
}

func TestGenerateStockID_NoImmediateCollisions(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := generateStockID()
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestGenerateReferralCode_Format(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := generateReferralCode()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(code, "REF-"))
		assert.Len(t, code, len("REF-")+8)
		assert.Equal(t, code, strings.ToUpper(code))
	}
}
