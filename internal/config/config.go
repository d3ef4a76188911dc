// AngelaMos | 2026
// config.go

package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App         AppConfig             `koanf:"app"`
	Server      ServerConfig          `koanf:"server"`
	Database    DatabaseConfig        `koanf:"database"`
	Redis       RedisConfig           `koanf:"redis"`
	JWT         JWTConfig             `koanf:"jwt"`
	Auth        AuthConfig            `koanf:"auth"`
	Plans       map[string]PlanConfig `koanf:"plans"`
	AI          AIConfig              `koanf:"ai"`
	Mail        MailConfig            `koanf:"mail"`
	GeoIP       GeoIPConfig           `koanf:"geoip"`
	Maintenance MaintenanceConfig     `koanf:"maintenance"`
	RateLimit   RateLimitConfig       `koanf:"rate_limit"`
	CORS        CORSConfig            `koanf:"cors"`
	Log         LogConfig             `koanf:"log"`
	Otel        OtelConfig            `koanf:"otel"`
	Metrics     MetricsConfig         `koanf:"metrics"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// TrustedProxies lists the peers allowed to set X-Forwarded-For and
	// X-Real-IP. Empty means forwarding headers are ignored.
	TrustedProxies  []string      `koanf:"trusted_proxies"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type JWTConfig struct {
	Secret            string        `koanf:"secret"`
	AccessTokenExpire time.Duration `koanf:"access_token_expire"`
	Issuer            string        `koanf:"issuer"`
	Audience          string        `koanf:"audience"`
}

type AuthConfig struct {
	MaxLoginAttempts   int           `koanf:"max_login_attempts"`
	LockoutDuration    time.Duration `koanf:"lockout_duration"`
	ResetTokenTTL      time.Duration `koanf:"reset_token_ttl"`
	ResetRequestWindow time.Duration `koanf:"reset_request_window"`
	ResetURLBase       string        `koanf:"reset_url_base"`
	StrictRequests     int           `koanf:"strict_requests"`
	StrictWindow       time.Duration `koanf:"strict_window"`
}

// PlanConfig describes one subscription plan. Questions of zero means the
// plan is uncapped.
type PlanConfig struct {
	Questions int `koanf:"questions"`
	Days      int `koanf:"days"`
}

type AIConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

type MailConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

type GeoIPConfig struct {
	DatabasePath string `koanf:"database_path"`
}

type MaintenanceConfig struct {
	Enabled            bool   `koanf:"enabled"`
	ExpirySchedule     string `koanf:"expiry_schedule"`
	ResetPurgeSchedule string `koanf:"reset_purge_schedule"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in that order of precedence.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "KidsAsk API",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",
		"server.trusted_proxies":  []string{},

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.auto_migrate":       true,

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"jwt.access_token_expire": "168h",
		"jwt.issuer":              "kidsask",
		"jwt.audience":            "kidsask-api",

		"auth.max_login_attempts":   5,
		"auth.lockout_duration":     "30m",
		"auth.reset_token_ttl":      "1h",
		"auth.reset_request_window": "1m",
		"auth.reset_url_base":       "http://localhost:3000/reset-password",
		"auth.strict_requests":      10,
		"auth.strict_window":        "1m",

		"plans.basic.questions":    50,
		"plans.basic.days":         30,
		"plans.standard.questions": 200,
		"plans.standard.days":      90,
		"plans.premium.questions":  500,
		"plans.premium.days":       365,
		"plans.trial.questions":    10,
		"plans.trial.days":         30,

		"ai.url":     "http://localhost:5000",
		"ai.timeout": "15s",

		"mail.enabled": false,
		"mail.port":    587,
		"mail.from":    "no-reply@kidsask.local",

		"maintenance.enabled":              true,
		"maintenance.expiry_schedule":      "@hourly",
		"maintenance.reset_purge_schedule": "@daily",

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "kidsask-api",

		"metrics.enabled": true,
		"metrics.path":    "/metrics",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"DATABASE_AUTO_MIGRATE":       "database.auto_migrate",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"TRUSTED_PROXIES":             "server.trusted_proxies",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_SECRET":                  "jwt.secret",
	"JWT_ACCESS_TOKEN_EXPIRE":     "jwt.access_token_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"AUTH_MAX_LOGIN_ATTEMPTS":     "auth.max_login_attempts",
	"AUTH_LOCKOUT_DURATION":       "auth.lockout_duration",
	"AUTH_RESET_TOKEN_TTL":        "auth.reset_token_ttl",
	"AUTH_RESET_REQUEST_WINDOW":   "auth.reset_request_window",
	"FRONTEND_RESET_URL":          "auth.reset_url_base",
	"PLAN_BASIC_QUESTIONS":        "plans.basic.questions",
	"PLAN_STANDARD_QUESTIONS":     "plans.standard.questions",
	"PLAN_PREMIUM_QUESTIONS":      "plans.premium.questions",
	"PLAN_TRIAL_QUESTIONS":        "plans.trial.questions",
	"AI_URL":                      "ai.url",
	"AI_TIMEOUT":                  "ai.timeout",
	"SMTP_ENABLED":                "mail.enabled",
	"SMTP_HOST":                   "mail.host",
	"SMTP_PORT":                   "mail.port",
	"SMTP_USERNAME":               "mail.username",
	"SMTP_PASSWORD":               "mail.password",
	"SMTP_FROM":                   "mail.from",
	"GEOIP_DATABASE_PATH":         "geoip.database_path",
	"MAINTENANCE_ENABLED":         "maintenance.enabled",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"METRICS_ENABLED":             "metrics.enabled",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return errors.New("REDIS_URL is required")
	}

	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes")
	}

	if c.JWT.AccessTokenExpire <= 0 {
		return errors.New("jwt.access_token_expire must be positive")
	}

	if c.Auth.MaxLoginAttempts <= 0 {
		return errors.New("auth.max_login_attempts must be positive")
	}

	if c.Auth.LockoutDuration <= 0 {
		return errors.New("auth.lockout_duration must be positive")
	}

	if c.Auth.ResetTokenTTL <= 0 {
		return errors.New("auth.reset_token_ttl must be positive")
	}

	for _, name := range []string{"basic", "standard", "premium", "trial"} {
		plan, ok := c.Plans[name]
		if !ok {
			return fmt.Errorf("plans.%s is required", name)
		}
		if plan.Questions < 0 || plan.Days <= 0 {
			return fmt.Errorf("plans.%s has invalid limits", name)
		}
	}

	if c.AI.URL == "" {
		return errors.New("AI_URL is required")
	}

	if c.AI.Timeout <= 0 {
		return errors.New("ai.timeout must be positive")
	}

	if c.Mail.Enabled && c.Mail.Host == "" {
		return errors.New("SMTP_HOST is required when mail is enabled")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return errors.New(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return errors.New("OTEL_INSECURE must be false in production")
		}
		if strings.HasPrefix(c.AI.URL, "http://localhost") {
			return errors.New("AI_URL must not point at localhost in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return errors.New("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return errors.New("server.write_timeout must be positive")
	}

	if _, err := c.Server.TrustedProxyPrefixes(); err != nil {
		return err
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TrustedProxyPrefixes parses TrustedProxies. Entries are CIDRs or bare
// addresses, and one entry may hold a comma separated list as read from
// TRUSTED_PROXIES.
func (s *ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, entry := range s.TrustedProxies {
		for _, raw := range strings.Split(entry, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}

			if strings.Contains(raw, "/") {
				prefix, err := netip.ParsePrefix(raw)
				if err != nil {
					return nil, fmt.Errorf("server.trusted_proxies: %w", err)
				}
				prefixes = append(prefixes, prefix.Masked())
				continue
			}

			addr, err := netip.ParseAddr(raw)
			if err != nil {
				return nil, fmt.Errorf("server.trusted_proxies: %w", err)
			}
			addr = addr.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return prefixes, nil
}
