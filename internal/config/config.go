// Package config loads application configuration from environment variables.
package config

import "log"

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable; required ones are enforced by must() and abort
// startup when missing.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	JWTSecret    string // secret used to sign session tokens
	TokenTTLDays int    // session token time-to-live in days
	BcryptCost   int    // bcrypt cost for password hashing
	UploadDir    string // directory for profile photos
}

// Load reads configuration from the environment. Missing required variables
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:          envStr("APP_ENV", "dev"),
		Port:         must("APP_PORT"),
		DBUser:       must("DB_USER"),
		DBPass:       envStr("DB_PASS", ""),
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		JWTSecret:    must("JWT_SECRET"),
		TokenTTLDays: envInt("TOKEN_TTL_DAYS", 7),
		BcryptCost:   envInt("BCRYPT_COST", 10),
		UploadDir:    envStr("UPLOAD_DIR", "uploads"),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v := envStr(key, "")
	if v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
