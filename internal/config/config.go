package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bot.
type Config struct {
	App          AppConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Guild        GuildConfig
	Tickets      TicketConfig
	Inactivity   InactivityConfig
	Applications ApplicationConfig
	Platform     PlatformConfig
	Registry     RegistryConfig
	Catalog      CatalogFile
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Format      string
	Development bool
}

// AuthConfig defines how the dispatch glue authenticates against the intent API.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// GuildConfig holds the platform ids the core works with.
type GuildConfig struct {
	ID                    string
	TicketCategoryID      string
	TranscriptChannelID   string
	ApplicationCategoryID string
	StaffRoleID           string
	SupportRoleID         string
	OpsAlertChannelID     string
	// SupportTiers maps TIER1, TIER2, TIER3 and ADMIN to role ids.
	SupportTiers map[string]string
}

// ClaimPolicy decides what happens when a claimed ticket is claimed again.
type ClaimPolicy string

const (
	ClaimPolicyFirstWins    ClaimPolicy = "first_wins"
	ClaimPolicyAllowReclaim ClaimPolicy = "allow_reclaim"
)

// TicketConfig holds ticket lifecycle settings.
type TicketConfig struct {
	CloseGraceSeconds int
	ClaimPolicy       ClaimPolicy
}

// InactivityConfig drives the inactivity monitor.
type InactivityConfig struct {
	SweepIntervalMinutes int
	ThresholdHours       int
	GraceHours           int
	AutoClose            bool
}

// ApplicationConfig holds staff application settings.
type ApplicationConfig struct {
	Dedup bool
}

// PlatformMode selects the platform.Guild implementation.
type PlatformMode string

const (
	PlatformMemory PlatformMode = "memory"
	PlatformBridge PlatformMode = "bridge"
)

// PlatformConfig configures the chat platform adapter.
type PlatformConfig struct {
	Mode           PlatformMode
	BridgeURL      string
	BridgeToken    string
	TimeoutSeconds int
}

// RegistryConfig selects where duplicate reservations are kept.
type RegistryConfig struct {
	Backend              string
	ReservationTTLHours  int
	ReservationKeyPrefix string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-bot"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Format:      getEnv("LOG_FORMAT", "json"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60*24*30),
		},
		Guild: GuildConfig{
			ID:                    getEnv("GUILD_ID", "guild"),
			TicketCategoryID:      os.Getenv("TICKET_CATEGORY_ID"),
			TranscriptChannelID:   os.Getenv("TRANSCRIPT_CHANNEL_ID"),
			ApplicationCategoryID: os.Getenv("APPLICATION_CATEGORY_ID"),
			StaffRoleID:           os.Getenv("STAFF_ROLE_ID"),
			SupportRoleID:         os.Getenv("SUPPORT_ROLE_ID"),
			OpsAlertChannelID:     os.Getenv("OPS_ALERT_CHANNEL_ID"),
			SupportTiers: map[string]string{
				"TIER1": os.Getenv("SUPPORT_TIER1_ROLE_ID"),
				"TIER2": os.Getenv("SUPPORT_TIER2_ROLE_ID"),
				"TIER3": os.Getenv("SUPPORT_TIER3_ROLE_ID"),
				"ADMIN": os.Getenv("SUPPORT_ADMIN_ROLE_ID"),
			},
		},
		Tickets: TicketConfig{
			CloseGraceSeconds: getEnvAsInt("TICKET_CLOSE_GRACE_SECONDS", 5),
			ClaimPolicy:       ClaimPolicy(getEnv("TICKET_CLAIM_POLICY", string(ClaimPolicyFirstWins))),
		},
		Inactivity: InactivityConfig{
			SweepIntervalMinutes: getEnvAsInt("INACTIVITY_SWEEP_INTERVAL_MINUTES", 30),
			ThresholdHours:       getEnvAsInt("INACTIVITY_THRESHOLD_HOURS", 24),
			GraceHours:           getEnvAsInt("INACTIVITY_GRACE_HOURS", 2),
			AutoClose:            getEnvAsBool("INACTIVITY_AUTO_CLOSE", false),
		},
		Applications: ApplicationConfig{
			Dedup: getEnvAsBool("APPLICATION_DEDUP", true),
		},
		Platform: PlatformConfig{
			Mode:           PlatformMode(strings.ToLower(getEnv("PLATFORM_MODE", string(PlatformMemory)))),
			BridgeURL:      os.Getenv("PLATFORM_BRIDGE_URL"),
			BridgeToken:    os.Getenv("PLATFORM_BRIDGE_TOKEN"),
			TimeoutSeconds: getEnvAsInt("PLATFORM_TIMEOUT_SECONDS", 10),
		},
		Registry: RegistryConfig{
			Backend:              strings.ToLower(getEnv("REGISTRY_BACKEND", "memory")),
			ReservationTTLHours:  getEnvAsInt("REGISTRY_RESERVATION_TTL_HOURS", 0),
			ReservationKeyPrefix: getEnv("REGISTRY_RESERVATION_PREFIX", "ticketbot:reservation:"),
		},
	}

	if path := os.Getenv("BOT_CONFIG_FILE"); path != "" {
		file, err := LoadCatalogFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Catalog = *file
		for tier, roleID := range file.SupportTiers {
			cfg.Guild.SupportTiers[strings.ToUpper(tier)] = roleID
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the bot cannot start with.
func (c *Config) Validate() error {
	switch c.Tickets.ClaimPolicy {
	case ClaimPolicyFirstWins, ClaimPolicyAllowReclaim:
	default:
		return fmt.Errorf("invalid TICKET_CLAIM_POLICY %q", c.Tickets.ClaimPolicy)
	}
	switch c.Platform.Mode {
	case PlatformMemory:
	case PlatformBridge:
		if c.Platform.BridgeURL == "" {
			return fmt.Errorf("PLATFORM_BRIDGE_URL is required when PLATFORM_MODE=bridge")
		}
	default:
		return fmt.Errorf("invalid PLATFORM_MODE %q", c.Platform.Mode)
	}
	switch c.Registry.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid REGISTRY_BACKEND %q", c.Registry.Backend)
	}
	if c.Inactivity.SweepIntervalMinutes <= 0 {
		return fmt.Errorf("INACTIVITY_SWEEP_INTERVAL_MINUTES must be positive")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// CloseGrace is the delay between the closing notice and channel deletion.
func (t TicketConfig) CloseGrace() time.Duration {
	if t.CloseGraceSeconds < 0 {
		return 0
	}
	return time.Duration(t.CloseGraceSeconds) * time.Second
}

// SweepInterval is the period of the inactivity sweep.
func (i InactivityConfig) SweepInterval() time.Duration {
	return time.Duration(i.SweepIntervalMinutes) * time.Minute
}

// Threshold is the quiet time after which a ticket is warned.
func (i InactivityConfig) Threshold() time.Duration {
	return time.Duration(i.ThresholdHours) * time.Hour
}

// Grace is the time between the warning and an automatic close.
func (i InactivityConfig) Grace() time.Duration {
	return time.Duration(i.GraceHours) * time.Hour
}

// Timeout bounds each bridge request.
func (p PlatformConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// ReservationTTL is the lifetime of duplicate reservations; zero means none.
func (r RegistryConfig) ReservationTTL() time.Duration {
	if r.ReservationTTLHours <= 0 {
		return 0
	}
	return time.Duration(r.ReservationTTLHours) * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
