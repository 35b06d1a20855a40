package config

import "testing"

func validConfig() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "voice", SSLMode: "disable"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
		Voice: VoiceConfig{AccessKeyID: "ak", AccessKeySecret: "sk"},
	}
}

func TestLoad_ReportsMissingRequired(t *testing.T) {
	// Ensure a clean env by not setting anything and calling validation directly.
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	c.DB.SSLMode = ""
	c.Auth.JWTIssuer = "issuer"
	c.Auth.JWTAudience = "aud"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := validConfig()
	c.DB.SSLMode = ""
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_VoiceCredentialsRequired(t *testing.T) {
	c := validConfig()
	c.Voice.AccessKeySecret = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for missing credential secret")
	}

	c = validConfig()
	c.Voice.AccessKeyID = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for missing credential id")
	}
}

func TestValidate_SkipVerifyForbiddenInProduction(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	c.DB.SSLMode = "require"
	c.Auth.JWTIssuer = "issuer"
	c.Auth.JWTAudience = "aud"
	c.Voice.SkipWebhookVerify = true
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for verification skip in production")
	}
}
