package config

import (
	"log"
	"os"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type AppConfig struct {
	Port               string
	Env                string
	JWTSecret          string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

func (c *AppConfig) IsDevelopment() bool {
	return c.Env != EnvProduction
}

// GetAppConfig reads the server settings from the environment. Missing
// secrets fall back to development values outside production.
func GetAppConfig() *AppConfig {
	cfg := &AppConfig{
		Port:               os.Getenv("PORT"),
		Env:                os.Getenv("APP_ENV"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    7 * 24 * time.Hour,
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Env == "" {
		cfg.Env = EnvDevelopment
	}

	if cfg.JWTSecret == "" || cfg.RefreshTokenSecret == "" {
		if !cfg.IsDevelopment() {
			log.Fatal("JWT_SECRET and REFRESH_TOKEN_SECRET must be set in production")
		}
		log.Println("WARNING: token secrets not set, using development defaults")
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = "dev-access-secret"
		}
		if cfg.RefreshTokenSecret == "" {
			cfg.RefreshTokenSecret = "dev-refresh-secret"
		}
	}

	return cfg
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
	Region          string
}

func GetR2Config() *R2Config {
	return &R2Config{
		AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		AccessKeyID:     os.Getenv("CLOUDFLARE_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("CLOUDFLARE_SECRET_ACCESS_KEY"),
		BucketName:      os.Getenv("CLOUDFLARE_BUCKET_NAME"),
		PublicURL:       os.Getenv("CLOUDFLARE_PUBLIC_URL"),
		Region:          "auto",
	}
}

// Configured reports whether enough is set to reach the bucket.
func (c *R2Config) Configured() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.BucketName != ""
}
