package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("FORM_MAX_SUBMISSIONS_PER_HOUR", "")
	t.Setenv("FORM_COOLDOWN", "")
	t.Setenv("RECAPTCHA_ENABLED", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" || !cfg.IsDevelopment() {
		t.Fatalf("expected development env, got %s", cfg.Env)
	}
	if cfg.FormMaxSubmissionsPerHour != 3 {
		t.Fatalf("expected 3 submissions per hour, got %d", cfg.FormMaxSubmissionsPerHour)
	}
	if cfg.FormCooldown != 5*time.Minute {
		t.Fatalf("expected 5m cooldown, got %s", cfg.FormCooldown)
	}
	if cfg.RecaptchaEnabled {
		t.Fatalf("expected recaptcha disabled by default")
	}
	if cfg.NotificationsPath != "/notifications/send" {
		t.Fatalf("unexpected notifications path %s", cfg.NotificationsPath)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.EnableBookingCalendar || !cfg.EnableContactForm {
		t.Fatalf("expected booking calendar and contact form enabled")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("FORM_MAX_SUBMISSIONS_PER_HOUR", "5")
	t.Setenv("FORM_COOLDOWN", "90s")
	t.Setenv("RATE_LIMIT_STORE", " Redis ")
	t.Setenv("RECAPTCHA_ENABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://3rdeyevisualz.com, ,https://www.3rdeyevisualz.com")
	t.Setenv("HTTP_RATE_LIMIT_RPS", "2.5")
	t.Setenv("STUDIO_TIMEZONE", "Not/AZone")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.IsDevelopment() {
		t.Fatalf("production should not be development")
	}
	if cfg.FormMaxSubmissionsPerHour != 5 {
		t.Fatalf("expected max override, got %d", cfg.FormMaxSubmissionsPerHour)
	}
	if cfg.FormCooldown != 90*time.Second {
		t.Fatalf("expected cooldown override, got %s", cfg.FormCooldown)
	}
	if cfg.RateLimitStore != "redis" {
		t.Fatalf("expected normalized store, got %q", cfg.RateLimitStore)
	}
	if !cfg.RecaptchaEnabled {
		t.Fatalf("expected recaptcha enabled")
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.HTTPRateLimitRPS != 2.5 {
		t.Fatalf("expected rps override, got %v", cfg.HTTPRateLimitRPS)
	}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC fallback for invalid timezone")
	}
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("FORM_MAX_SUBMISSIONS_PER_HOUR", "lots")
	t.Setenv("FORM_COOLDOWN", "soon")
	cfg := Load()
	if cfg.FormMaxSubmissionsPerHour != 3 {
		t.Fatalf("expected default on bad int, got %d", cfg.FormMaxSubmissionsPerHour)
	}
	if cfg.FormCooldown != 5*time.Minute {
		t.Fatalf("expected default on bad duration, got %s", cfg.FormCooldown)
	}
}
