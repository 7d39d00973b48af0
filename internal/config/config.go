package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// DefaultAdminPasswords is the stock admin gate allow-list.
var DefaultAdminPasswords = []string{"admin123", "superadmin", "tamilnadu2024", "careerconnect"}

// Config holds application configuration.
type Config struct {
	// NotificationSoftCap is the record count above which the center runs a dedupe pass.
	NotificationSoftCap int `json:"notification_soft_cap" env:"CAREERBRIDGE_NOTIFICATION_SOFT_CAP"`

	// ReminderOffsetMinutes backdates the starter reminder relative to the welcome record.
	ReminderOffsetMinutes int `json:"reminder_offset_minutes" env:"CAREERBRIDGE_REMINDER_OFFSET_MINUTES"`

	// HistoryLimit caps the stored points history per user.
	HistoryLimit int `json:"history_limit" env:"CAREERBRIDGE_HISTORY_LIMIT"`

	// RecentActivityLimit is how many history entries are handed to the notification center.
	RecentActivityLimit int `json:"recent_activity_limit" env:"CAREERBRIDGE_RECENT_ACTIVITY_LIMIT"`

	// AdminPasswords is the admin gate allow-list. Comparison is exact and case-sensitive.
	AdminPasswords []string `json:"admin_passwords,omitempty" env:"CAREERBRIDGE_ADMIN_PASSWORDS" envSeparator:","`

	// GateDelayMillis is the pause before the admin gate answers.
	GateDelayMillis int `json:"gate_delay_ms" env:"CAREERBRIDGE_GATE_DELAY_MS"`

	// AdminRoute is where a granted gate sends the caller.
	AdminRoute string `json:"admin_route,omitempty" env:"CAREERBRIDGE_ADMIN_ROUTE"`

	// APIBaseURL is the backend REST API root, e.g. http://localhost:8080/api.
	APIBaseURL string `json:"api_base_url,omitempty" env:"CAREERBRIDGE_API_BASE_URL"`

	// APITimeoutSeconds bounds every backend request.
	APITimeoutSeconds int `json:"api_timeout_seconds" env:"CAREERBRIDGE_API_TIMEOUT_SECONDS"`

	// Locale drives date labels (day/month order). BCP 47, e.g. en-IN.
	Locale string `json:"locale,omitempty" env:"CAREERBRIDGE_LOCALE"`

	// Timezone is an IANA zone name used when rendering labels.
	Timezone string `json:"timezone,omitempty" env:"CAREERBRIDGE_TIMEZONE"`

	// UseKeyring stores the admin token in the OS keyring instead of the local store.
	UseKeyring bool `json:"use_keyring,omitempty" env:"CAREERBRIDGE_USE_KEYRING"`

	// PostgresDSN switches the persisted store from the local sqlite file to Postgres.
	PostgresDSN string `json:"postgres_dsn,omitempty" env:"CAREERBRIDGE_POSTGRES_DSN"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" env:"CAREERBRIDGE_DB_MAX_OPEN_CONNS"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" env:"CAREERBRIDGE_DB_MAX_IDLE_CONNS"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty" env:"CAREERBRIDGE_DISABLED_TOOLS" envSeparator:","`

	// DisabledTypes is a list of tool types to disable entirely.
	// Known types: "notification", "points", "session", "admin".
	DisabledTypes []string `json:"disabled_types,omitempty" env:"CAREERBRIDGE_DISABLED_TYPES" envSeparator:","`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		NotificationSoftCap:   20,
		ReminderOffsetMinutes: 120,
		HistoryLimit:          50,
		RecentActivityLimit:   5,
		AdminPasswords:        append([]string(nil), DefaultAdminPasswords...),
		GateDelayMillis:       1000,
		AdminRoute:            "/adminLogin",
		APIBaseURL:            "http://localhost:8080/api",
		APITimeoutSeconds:     30,
		Locale:                "en-IN",
		Timezone:              "Asia/Kolkata",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both the global directory and the nearest
// .careerbridge/config.json found walking upward from startDir.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// ApplyEnv overlays CAREERBRIDGE_* environment variables on cfg.
func ApplyEnv(cfg *Config) (*Config, error) {
	overlay := &Config{}
	if err := env.Parse(overlay); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	result := Merge(cfg, overlay)
	// The allow-list is replaced, not extended, when set from the environment.
	if len(overlay.AdminPasswords) > 0 {
		result.AdminPasswords = overlay.AdminPasswords
	}
	return result, nil
}

// FindRepoConfig walks upward from startDir to find the nearest .careerbridge/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".careerbridge", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw returns a zero-valued config (not defaults) if the file doesn't exist.
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated,
// except AdminPasswords which the overlay replaces when non-empty.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		NotificationSoftCap:   pickInt(overlay.NotificationSoftCap, base.NotificationSoftCap),
		ReminderOffsetMinutes: pickInt(overlay.ReminderOffsetMinutes, base.ReminderOffsetMinutes),
		HistoryLimit:          pickInt(overlay.HistoryLimit, base.HistoryLimit),
		RecentActivityLimit:   pickInt(overlay.RecentActivityLimit, base.RecentActivityLimit),
		GateDelayMillis:       pickInt(overlay.GateDelayMillis, base.GateDelayMillis),
		APITimeoutSeconds:     pickInt(overlay.APITimeoutSeconds, base.APITimeoutSeconds),
		DBMaxOpenConns:        pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:        pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
		AdminRoute:            pickString(overlay.AdminRoute, base.AdminRoute),
		APIBaseURL:            pickString(overlay.APIBaseURL, base.APIBaseURL),
		Locale:                pickString(overlay.Locale, base.Locale),
		Timezone:              pickString(overlay.Timezone, base.Timezone),
		PostgresDSN:           pickString(overlay.PostgresDSN, base.PostgresDSN),
	}

	result.UseKeyring = base.UseKeyring || overlay.UseKeyring

	result.AdminPasswords = mergeStringSlice(nil, base.AdminPasswords)
	if len(overlay.AdminPasswords) > 0 {
		result.AdminPasswords = mergeStringSlice(nil, overlay.AdminPasswords)
	}
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func pickString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
