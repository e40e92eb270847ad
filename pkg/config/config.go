// Package config loads and persists the application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the complete application configuration.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Feed      FeedConfig      `json:"feed"`
	Display   DisplayConfig   `json:"display"`
	Slideshow SlideshowConfig `json:"slideshow"`
	Admin     AdminConfig     `json:"admin"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port string `json:"port"`

	// Host is the server bind address (default: "0.0.0.0")
	Host string `json:"host"`
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	// Host is the database server hostname
	Host string `json:"host"`

	// Port is the database server port
	Port int `json:"port"`

	// Database is the database name
	Database string `json:"database"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns"`
}

// RegionConfig describes the geographic query region. When UseRectangle is
// false the center+radius form is used.
type RegionConfig struct {
	// Latitude/Longitude of the query center in decimal degrees
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// RadiusKm is the query radius in kilometers
	RadiusKm float64 `json:"radius_km"`

	// UseRectangle selects the explicit rectangle below instead of the circle
	UseRectangle bool `json:"use_rectangle"`

	// Rectangle edges in decimal degrees; inverted edges are repaired
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// FeedConfig contains flight-feed provider configuration.
type FeedConfig struct {
	// Provider selects the adapter: "radar" or "opensky"
	Provider string `json:"provider"`

	// Region is the geographic area polled for flights
	Region RegionConfig `json:"region"`

	// ActiveIntervalSeconds is the poll interval while flights are present
	ActiveIntervalSeconds int `json:"active_interval_seconds"`

	// IdleIntervalSeconds is the poll interval while the sky is empty
	IdleIntervalSeconds int `json:"idle_interval_seconds"`

	Radar   RadarSourceConfig   `json:"radar"`
	OpenSky OpenSkySourceConfig `json:"opensky"`
}

// RadarSourceConfig configures the unauthenticated bounds feed.
type RadarSourceConfig struct {
	// BaseURL is the bounds feed endpoint
	BaseURL string `json:"base_url"`

	// DetailURL is the per-flight detail endpoint (optional)
	DetailURL string `json:"detail_url,omitempty"`

	// RequestsPerSecond throttles outgoing requests
	RequestsPerSecond float64 `json:"requests_per_second"`
}

// OpenSkySourceConfig configures the OpenSky OAuth2 adapter.
type OpenSkySourceConfig struct {
	// BaseURL is the REST API base URL
	BaseURL string `json:"base_url"`

	// TokenURL is the OAuth2 client-credentials token endpoint
	TokenURL string `json:"token_url"`

	// ClientID / ClientSecret are the API credentials
	// (secret should be loaded from environment)
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`

	// RequestsPerSecond throttles outgoing requests
	RequestsPerSecond float64 `json:"requests_per_second"`
}

// DisplayConfig tunes the display-mode state machine.
type DisplayConfig struct {
	// EmptyStreakThreshold is how many consecutive empty/error polls switch
	// the display to the photo slideshow
	EmptyStreakThreshold int `json:"empty_streak_threshold"`

	// CarouselSeconds is how long each flight card is shown before the
	// carousel advances
	CarouselSeconds int `json:"carousel_seconds"`
}

// SlideshowConfig tunes the photo slideshow. These settings and the photo
// list itself are owned by the admin side and read-only to the display.
type SlideshowConfig struct {
	// IntervalMs is how long each photo is shown (default: 10000)
	IntervalMs int `json:"interval_ms"`

	// Shuffle selects random (non-repeating) instead of sequential order
	Shuffle bool `json:"shuffle"`

	// FitMode is "cover" or "contain"
	FitMode string `json:"fit_mode"`

	// CrossfadeMs is the nominal crossfade duration (default: 1200)
	CrossfadeMs int `json:"crossfade_ms"`
}

// AdminConfig contains the shared-secret admin authentication settings.
type AdminConfig struct {
	// SecretHash is the bcrypt hash of the shared admin secret
	SecretHash string `json:"secret_hash"`

	// JWTSecret signs admin session tokens
	JWTSecret string `json:"jwt_secret"`

	// TokenDurationMinutes is the admin session lifetime
	TokenDurationMinutes int `json:"token_duration_minutes"`
}

// Load reads configuration from a JSON file.
// If the file doesn't exist, returns a default configuration.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvironmentOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	return cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Host: "0.0.0.0",
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "skyframe",
			Username:     "skyframe",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Feed: FeedConfig{
			Provider: "radar",
			Region: RegionConfig{
				Latitude:  51.470,
				Longitude: -0.454,
				RadiusKm:  50,
			},
			ActiveIntervalSeconds: 15,
			IdleIntervalSeconds:   30,
			Radar: RadarSourceConfig{
				BaseURL:           "https://data-cloud.flightradar24.com/zones/fcgi/feed.js",
				RequestsPerSecond: 1.0,
			},
			OpenSky: OpenSkySourceConfig{
				BaseURL:           "https://opensky-network.org/api",
				TokenURL:          "https://auth.opensky-network.org/auth/realms/opensky-network/protocol/openid-connect/token",
				RequestsPerSecond: 0.5,
			},
		},
		Display: DisplayConfig{
			EmptyStreakThreshold: 3,
			CarouselSeconds:      15,
		},
		Slideshow: SlideshowConfig{
			IntervalMs:  10000,
			Shuffle:     true,
			FitMode:     "cover",
			CrossfadeMs: 1200,
		},
		Admin: AdminConfig{
			TokenDurationMinutes: 60,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides.
// This allows sensitive data like secrets to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if port := os.Getenv("SKYFRAME_PORT"); port != "" {
		c.Server.Port = port
	}
	if dbPassword := os.Getenv("SKYFRAME_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if clientID := os.Getenv("SKYFRAME_OPENSKY_CLIENT_ID"); clientID != "" {
		c.Feed.OpenSky.ClientID = clientID
	}
	if clientSecret := os.Getenv("SKYFRAME_OPENSKY_CLIENT_SECRET"); clientSecret != "" {
		c.Feed.OpenSky.ClientSecret = clientSecret
	}
	if secretHash := os.Getenv("SKYFRAME_ADMIN_SECRET_HASH"); secretHash != "" {
		c.Admin.SecretHash = secretHash
	}
	if jwtSecret := os.Getenv("SKYFRAME_JWT_SECRET"); jwtSecret != "" {
		c.Admin.JWTSecret = jwtSecret
	}
}
