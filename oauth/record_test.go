package oauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenRecordExpiresAt(t *testing.T) {
	issued := time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC)

	record := &TokenRecord{IssuedAt: issued, ExpiresIn: 3600}
	assert.Equal(t, issued.Add(time.Hour), record.ExpiresAt())

	static := &TokenRecord{IssuedAt: issued}
	assert.True(t, static.ExpiresAt().IsZero())
}

func TestTokenRecordStatic(t *testing.T) {
	assert.False(t, (&TokenRecord{RefreshToken: "R1", ExpiresIn: 3600}).Static())
	assert.True(t, (&TokenRecord{RefreshToken: "", ExpiresIn: 3600}).Static())
	assert.True(t, (&TokenRecord{RefreshToken: "R1", ExpiresIn: 0}).Static())
}

func TestTokenRecordScopes(t *testing.T) {
	record := &TokenRecord{Scope: "read write issues:create"}
	assert.Equal(t, []string{"read", "write", "issues:create"}, record.Scopes())

	assert.Empty(t, (&TokenRecord{}).Scopes())
}
