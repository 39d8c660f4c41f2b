package config

import (
	"log/slog"
	"os"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicBase string
}

type Config struct {
	TwitterClientID       string
	TwitterClientSecret   string
	TwitterRedirectURI    string
	MetaClientID          string
	MetaClientSecret      string
	MetaRedirectURI       string
	ThreadsClientID       string
	ThreadsClientSecret   string
	ThreadsRedirectURI    string
	LinkedinClientID      string
	LinkedinClientSecret  string
	LinkedinRedirectURI   string
	TiktokClientKey       string
	TiktokClientSecret    string
	TiktokRedirectURI     string
	GoogleClientID        string
	GoogleClientSecret    string
	GoogleRedirectURI     string
	PinterestClientID     string
	PinterestClientSecret string
	PinterestRedirectURI  string
	PostgresURI           string
	RedisURI              string
	FrontendURL           string
	R2                    R2
	SecretKey             string
	TokenEncryptionKey    string
	CronSecret            string
	CookieName            string
}

// devEncryptionKey is the fallback used when TOKEN_ENCRYPTION_KEY is unset.
// It exists so a fresh checkout works without configuration; it must never
// be enabled in production.
const devEncryptionKey = "socialcast-dev-only-0123456789ab"

func LoadConfig() *Config {
	cfg := &Config{
		TwitterClientID:       getEnv("TWITTER_CLIENT_ID", ""),
		TwitterClientSecret:   getEnv("TWITTER_CLIENT_SECRET", ""),
		TwitterRedirectURI:    getEnv("TWITTER_REDIRECT_URI", ""),
		MetaClientID:          getEnv("META_CLIENT_ID", ""),
		MetaClientSecret:      getEnv("META_CLIENT_SECRET", ""),
		MetaRedirectURI:       getEnv("META_REDIRECT_URI", ""),
		ThreadsClientID:       getEnv("THREADS_CLIENT_ID", ""),
		ThreadsClientSecret:   getEnv("THREADS_CLIENT_SECRET", ""),
		ThreadsRedirectURI:    getEnv("THREADS_REDIRECT_URI", ""),
		LinkedinClientID:      getEnv("LINKEDIN_CLIENT_ID", ""),
		LinkedinClientSecret:  getEnv("LINKEDIN_CLIENT_SECRET", ""),
		LinkedinRedirectURI:   getEnv("LINKEDIN_REDIRECT_URI", ""),
		TiktokClientKey:       getEnv("TIKTOK_CLIENT_KEY", ""),
		TiktokClientSecret:    getEnv("TIKTOK_CLIENT_SECRET", ""),
		TiktokRedirectURI:     getEnv("TIKTOK_REDIRECT_URI", ""),
		GoogleClientID:        getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:    getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:     getEnv("GOOGLE_REDIRECT_URI", ""),
		PinterestClientID:     getEnv("PINTEREST_CLIENT_ID", ""),
		PinterestClientSecret: getEnv("PINTEREST_CLIENT_SECRET", ""),
		PinterestRedirectURI:  getEnv("PINTEREST_REDIRECT_URI", ""),
		PostgresURI:           getEnv("POSTGRES_URI", ""),
		RedisURI:              getEnv("REDIS_URI", "127.0.0.1:6379"),
		FrontendURL:           getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicBase: getEnv("R2_PUBLIC_BASE_URL", ""),
		},
		SecretKey:          getEnv("SECRET_KEY", ""),
		TokenEncryptionKey: getEnv("TOKEN_ENCRYPTION_KEY", ""),
		CronSecret:         getEnv("CRON_SECRET", ""),
		CookieName:         getEnv("COOKIE_NAME", "socialcast_session"),
	}

	if cfg.TokenEncryptionKey == "" {
		slog.Warn("TOKEN_ENCRYPTION_KEY missing, using fallback DEV key; never run this in production")
		cfg.TokenEncryptionKey = devEncryptionKey
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
