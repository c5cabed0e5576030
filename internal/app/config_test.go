package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, uint16(8484), cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Shutdown.Timeout)
	assert.Equal(t, TokenStorageTypeFile, cfg.Storage.Type)
	assert.NotEmpty(t, cfg.Storage.Dir)

	assert.Equal(t, "https://linear.app/oauth/authorize", cfg.Linear.AuthURL)
	assert.Equal(t, "https://api.linear.app/oauth/token", cfg.Linear.TokenURL)
	assert.Equal(t, "https://api.linear.app/oauth/revoke", cfg.Linear.RevokeURL)
	assert.Equal(t, "https://api.linear.app/graphql", cfg.Linear.GraphQLURL)

	assert.Equal(t, []string{"read"}, cfg.OAuth.Scopes)
	assert.Equal(t, "user", cfg.OAuth.Actor)
	assert.Equal(t, "user", cfg.OAuth.PrincipalID)
	assert.Equal(t, "http://127.0.0.1:8484/oauth/callback", cfg.OAuth.RedirectURI)

	require.NoError(t, cfg.Validate())
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 9000
	cfg.OAuth.Actor = "application"

	require.NoError(t, cfg.ApplyDefaults())

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, uint16(9000), cfg.Server.Port)
	assert.Equal(t, "http://0.0.0.0:9000/oauth/callback", cfg.OAuth.RedirectURI)
	// The principal follows the actor when not set explicitly.
	assert.Equal(t, "application", cfg.OAuth.PrincipalID)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "yaml" }},
		{name: "bad actor", mutate: func(c *Config) { c.OAuth.Actor = "robot" }},
		{name: "bad storage type", mutate: func(c *Config) { c.Storage.Type = "s3" }},
		{name: "bad redirect uri", mutate: func(c *Config) { c.OAuth.RedirectURI = "not a url" }},
		{name: "env storage without key", mutate: func(c *Config) {
			c.Storage.Type = TokenStorageTypeEnv
			c.Storage.EnvKey = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			require.NoError(t, err)
			tt.mutate(cfg)

			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateOAuthFlow(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	// Missing credentials fail.
	require.Error(t, cfg.ValidateOAuthFlow())

	cfg.OAuth.ClientID = "client-1"
	cfg.OAuth.ClientSecret = "secret-1"
	require.NoError(t, cfg.ValidateOAuthFlow())

	// Read-only storage can serve static tokens but not the flow.
	cfg.Storage.Type = TokenStorageTypeEnv
	cfg.Storage.EnvKey = "LINEAR_TOKEN"
	require.Error(t, cfg.ValidateOAuthFlow())
}

func TestStorageConfigWritable(t *testing.T) {
	assert.True(t, (&StorageConfig{Type: TokenStorageTypeFile}).Writable())
	assert.True(t, (&StorageConfig{Type: TokenStorageTypeMemory}).Writable())
	assert.False(t, (&StorageConfig{Type: TokenStorageTypeEnv}).Writable())
}
