package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
	StudioTimezone     string

	// Business profile shown in notifications
	BusinessName      string
	BusinessEmail     string
	BusinessPhone     string
	BusinessLocation  string
	BusinessInstagram string
	BusinessTagline   string

	// Feature flags
	EnableBookingCalendar bool
	EnableContactForm     bool
	EnableAnalytics       bool

	// Submission gate
	FormMaxSubmissionsPerHour int
	FormCooldown              time.Duration
	RateLimitStore            string
	RateLimitKeyPrefix        string
	RateLimitTable            string
	RecaptchaEnabled          bool
	RecaptchaSiteKey          string
	RecaptchaTokenURL         string
	RecaptchaTimeout          time.Duration

	// Availability
	AvailabilitySource string
	AvailabilityFile   string
	AvailabilityURL    string
	CalendarSessionTTL time.Duration

	// Notification dispatch
	NotifyProvider      string
	NotificationsAPIURL string
	NotificationsAPIKey string
	NotificationsPath   string
	NotifyQueueURL      string
	SendGridAPIKey      string
	SendGridFromEmail   string
	SendGridFromName    string
	SESFromEmail        string

	// Per-IP HTTP throttling
	HTTPRateLimitRPS   float64
	HTTPRateLimitBurst int

	DatabaseURL         string
	RedisAddr           string
	RedisPassword       string
	RedisTLS            bool
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		StudioTimezone:     getEnv("STUDIO_TIMEZONE", "Africa/Johannesburg"),

		BusinessName:      getEnv("BUSINESS_NAME", "3rdEye Visualz"),
		BusinessEmail:     getEnv("BUSINESS_EMAIL", "infntmediasolutions@gmail.com"),
		BusinessPhone:     getEnv("BUSINESS_PHONE", "+27721480697"),
		BusinessLocation:  getEnv("BUSINESS_LOCATION", "Johannesburg, South Africa"),
		BusinessInstagram: getEnv("BUSINESS_INSTAGRAM", "@infnt_mediasolutions"),
		BusinessTagline:   getEnv("BUSINESS_TAGLINE", "We see the invincible."),

		EnableBookingCalendar: getEnvAsBool("FEATURE_BOOKING_CALENDAR", true),
		EnableContactForm:     getEnvAsBool("FEATURE_CONTACT_FORM", true),
		EnableAnalytics:       getEnvAsBool("FEATURE_ANALYTICS", true),

		FormMaxSubmissionsPerHour: getEnvAsInt("FORM_MAX_SUBMISSIONS_PER_HOUR", 3),
		FormCooldown:              getEnvAsDuration("FORM_COOLDOWN", 5*time.Minute),
		RateLimitStore:            strings.ToLower(strings.TrimSpace(getEnv("RATE_LIMIT_STORE", "memory"))),
		RateLimitKeyPrefix:        getEnv("RATE_LIMIT_KEY_PREFIX", "3rdEyeVisualz_ratelimit_"),
		RateLimitTable:            getEnv("RATE_LIMIT_TABLE", "submission_rate_limits"),
		RecaptchaEnabled:          getEnvAsBool("RECAPTCHA_ENABLED", false),
		RecaptchaSiteKey:          getEnv("RECAPTCHA_SITE_KEY", ""),
		RecaptchaTokenURL:         getEnv("RECAPTCHA_TOKEN_URL", ""),
		RecaptchaTimeout:          getEnvAsDuration("RECAPTCHA_TIMEOUT", 5*time.Second),

		AvailabilitySource: strings.ToLower(strings.TrimSpace(getEnv("AVAILABILITY_SOURCE", "fixture"))),
		AvailabilityFile:   getEnv("AVAILABILITY_FILE", "availability.yaml"),
		AvailabilityURL:    getEnv("AVAILABILITY_URL", ""),
		CalendarSessionTTL: getEnvAsDuration("CALENDAR_SESSION_TTL", 30*time.Minute),

		NotifyProvider:      strings.ToLower(strings.TrimSpace(getEnv("NOTIFY_PROVIDER", "api"))),
		NotificationsAPIURL: getEnv("NOTIFICATIONS_API_URL", "http://localhost:8000"),
		NotificationsAPIKey: getEnv("NOTIFICATIONS_API_KEY", ""),
		NotificationsPath:   getEnv("NOTIFICATIONS_SEND_PATH", "/notifications/send"),
		NotifyQueueURL:      getEnv("NOTIFY_QUEUE_URL", ""),
		SendGridAPIKey:      getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:   getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:    getEnv("SENDGRID_FROM_NAME", "3rdEye Visualz"),
		SESFromEmail:        getEnv("SES_FROM_EMAIL", ""),

		HTTPRateLimitRPS:   getEnvAsFloat("HTTP_RATE_LIMIT_RPS", 5),
		HTTPRateLimitBurst: getEnvAsInt("HTTP_RATE_LIMIT_BURST", 20),

		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisTLS:            getEnvAsBool("REDIS_TLS", false),
		AWSRegion:           getEnv("AWS_REGION", "af-south-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// IsDevelopment reports whether the service runs in a local/dev environment.
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "development", "dev", "local":
		return true
	}
	return false
}

// Location resolves the studio timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.StudioTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
