package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/florianilch/linear-go/internal/observability"
	"github.com/florianilch/linear-go/oauth"
	"github.com/florianilch/linear-go/tokenstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = observability.FormatText
	LogFormatJSON LogFormat = observability.FormatJSON
	LogFormatOTLP LogFormat = observability.FormatOTLP
)

// TokenStorageType represents the different storage types supported for token records.
type TokenStorageType string

const (
	TokenStorageTypeFile    TokenStorageType = "file"
	TokenStorageTypeEnv     TokenStorageType = "env"
	TokenStorageTypeKeyring TokenStorageType = "keyring"
	TokenStorageTypeMemory  TokenStorageType = "memory"
	TokenStorageTypeRedis   TokenStorageType = "redis"
)

// Default configuration values
const (
	DefaultConfigLogFormat       = LogFormatText
	DefaultConfigServerHost      = "127.0.0.1"
	DefaultConfigServerPort      = 8484
	DefaultConfigShutdownTimeout = 5 * time.Second
	DefaultConfigStorage         = TokenStorageTypeFile
	DefaultConfigKeyringService  = "linearctl"
	DefaultConfigActor           = oauth.ActorUser
	DefaultConfigRedisAddr       = "127.0.0.1:6379"
)

// DefaultConfigScopes are the scopes requested when none are configured.
var DefaultConfigScopes = []string{"read"}

// ServerConfig holds companion server configuration.
type ServerConfig struct {
	Host string `json:"host" validate:"hostname_rfc1123|ip"`
	Port uint16 `json:"port"` // Port range 0-65535 handled by uint16 type
}

// ShutdownConfig holds shutdown behavior configuration.
type ShutdownConfig struct {
	// Timeout for graceful shutdown.
	Timeout time.Duration `json:"timeout"`
}

// OAuthConfig holds the Linear OAuth application settings.
type OAuthConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	// RedirectURI must match the OAuth application's registered callback.
	// Defaults to the companion server's callback route.
	RedirectURI string   `json:"redirect_uri" validate:"omitempty,url"`
	Scopes      []string `json:"scopes"`
	Actor       string   `json:"actor" validate:"omitempty,oneof=user application"`
	// PrincipalID keys the token record. Defaults to the actor value.
	PrincipalID string `json:"principal_id"`
	// RefreshThreshold is the pre-expiry window that triggers proactive
	// refresh. Zero means the manager default (300s).
	RefreshThreshold time.Duration `json:"refresh_threshold"`
}

// StorageConfig describes where token records live.
type StorageConfig struct {
	Type TokenStorageType `json:"type" validate:"required,oneof=file env keyring memory redis"`

	// Type-specific settings (mutually exclusive based on Type)
	Dir            string `json:"dir,omitempty"`             // For file storage: directory for record files
	EnvKey         string `json:"env_key,omitempty"`         // For env storage: environment variable name
	KeyringService string `json:"keyring_service,omitempty"` // For keyring storage: service identifier
	RedisAddr      string `json:"redis_addr,omitempty"`      // For redis storage: host:port
	RedisDB        int    `json:"redis_db,omitempty"`        // For redis storage: database number
}

// NewTokenStore creates a tokenstore.Store from the storage configuration.
func (s *StorageConfig) NewTokenStore() (tokenstore.Store, error) {
	switch s.Type {
	case TokenStorageTypeFile:
		return tokenstore.NewFileStore(s.Dir)
	case TokenStorageTypeEnv:
		return tokenstore.NewEnvStore(s.EnvKey)
	case TokenStorageTypeKeyring:
		return tokenstore.NewKeyringStore(s.KeyringService)
	case TokenStorageTypeMemory:
		return tokenstore.NewMemoryStore(), nil
	case TokenStorageTypeRedis:
		client := redis.NewClient(&redis.Options{Addr: s.RedisAddr, DB: s.RedisDB})
		return tokenstore.NewRedisStore(client)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", s.Type)
	}
}

// Writable reports whether the storage backend accepts writes. The OAuth
// flow requires writable storage; env storage only serves static tokens.
func (s *StorageConfig) Writable() bool {
	return s.Type != TokenStorageTypeEnv
}

// LinearConfig holds the provider endpoints. Overridable for testing against
// a stub provider.
type LinearConfig struct {
	AuthURL    string `json:"auth_url" validate:"required,url"`
	TokenURL   string `json:"token_url" validate:"required,url"`
	RevokeURL  string `json:"revoke_url" validate:"required,url"`
	GraphQLURL string `json:"graphql_url" validate:"required,url"`
}

// Endpoint converts the config into an oauth.Endpoint.
func (l *LinearConfig) Endpoint() oauth.Endpoint {
	return oauth.Endpoint{
		AuthURL:    l.AuthURL,
		TokenURL:   l.TokenURL,
		RevokeURL:  l.RevokeURL,
		GraphQLURL: l.GraphQLURL,
	}
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level     `json:"log_level"`
	LogFormat LogFormat      `json:"log_format" validate:"oneof=text json otlp"`
	Server    ServerConfig   `json:"server"`
	Shutdown  ShutdownConfig `json:"shutdown"`
	Linear    LinearConfig   `json:"linear"`
	OAuth     OAuthConfig    `json:"oauth"`
	Storage   StorageConfig  `json:"storage"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultConfigServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultConfigServerPort
	}
	if c.Shutdown.Timeout == 0 {
		c.Shutdown.Timeout = DefaultConfigShutdownTimeout
	}

	if c.Linear.AuthURL == "" {
		c.Linear.AuthURL = oauth.DefaultEndpoint.AuthURL
	}
	if c.Linear.TokenURL == "" {
		c.Linear.TokenURL = oauth.DefaultEndpoint.TokenURL
	}
	if c.Linear.RevokeURL == "" {
		c.Linear.RevokeURL = oauth.DefaultEndpoint.RevokeURL
	}
	if c.Linear.GraphQLURL == "" {
		c.Linear.GraphQLURL = oauth.DefaultEndpoint.GraphQLURL
	}

	if len(c.OAuth.Scopes) == 0 {
		c.OAuth.Scopes = DefaultConfigScopes
	}
	if c.OAuth.Actor == "" {
		c.OAuth.Actor = string(DefaultConfigActor)
	}
	if c.OAuth.PrincipalID == "" {
		c.OAuth.PrincipalID = c.OAuth.Actor
	}
	if c.OAuth.RedirectURI == "" {
		c.OAuth.RedirectURI = fmt.Sprintf("http://%s:%d/oauth/callback", c.Server.Host, c.Server.Port)
	}

	if c.Storage.Type == "" {
		c.Storage.Type = DefaultConfigStorage
	}

	// Dynamic defaults based on storage type
	switch c.Storage.Type {
	case TokenStorageTypeFile:
		if c.Storage.Dir == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("storage.dir required (auto-detect failed: %w)", err)
			}
			c.Storage.Dir = filepath.Join(configDir, "linearctl", "tokens")
		}
	case TokenStorageTypeKeyring:
		if c.Storage.KeyringService == "" {
			c.Storage.KeyringService = DefaultConfigKeyringService
		}
	case TokenStorageTypeRedis:
		if c.Storage.RedisAddr == "" {
			c.Storage.RedisAddr = DefaultConfigRedisAddr
		}
	case TokenStorageTypeEnv:
		// env_key must be explicitly configured (no sensible default)
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Storage.Type {
	case TokenStorageTypeFile:
		if c.Storage.Dir == "" {
			return fmt.Errorf("dir required for file storage")
		}
	case TokenStorageTypeEnv:
		if c.Storage.EnvKey == "" {
			return fmt.Errorf("env_key required for env storage")
		}
	case TokenStorageTypeKeyring:
		if c.Storage.KeyringService == "" {
			return fmt.Errorf("keyring_service required for keyring storage")
		}
	case TokenStorageTypeRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("redis_addr required for redis storage")
		}
	}

	return nil
}

// ValidateOAuthFlow checks the additional requirements of running the
// authorization-code flow (login and the companion server).
func (c *Config) ValidateOAuthFlow() error {
	if c.OAuth.ClientID == "" {
		return fmt.Errorf("oauth.client_id required for the authorization flow")
	}
	if c.OAuth.ClientSecret == "" {
		return fmt.Errorf("oauth.client_secret required for the authorization flow")
	}
	// The lifecycle must be able to persist exchanged and refreshed records.
	if !c.Storage.Writable() {
		return fmt.Errorf("the oauth flow requires writable storage, %s is read-only", c.Storage.Type)
	}
	return nil
}

// NewManager builds the token lifecycle manager described by the config.
func (c *Config) NewManager() (*oauth.Manager, error) {
	store, err := c.Storage.NewTokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}

	return oauth.NewManager(oauth.Config{
		ClientID:         c.OAuth.ClientID,
		ClientSecret:     c.OAuth.ClientSecret,
		RedirectURI:      c.OAuth.RedirectURI,
		Endpoint:         c.Linear.Endpoint(),
		Store:            store,
		RefreshThreshold: c.OAuth.RefreshThreshold,
	})
}
