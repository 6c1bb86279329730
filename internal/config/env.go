package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr    string
	GinMode    string
	DBUser     string
	DBPass     string
	DBHost     string
	DBName     string
	JWTSecret  string
	LogFile    string
	GeoTimeout time.Duration
}

func LoadEnv() Env {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	appAddr := strings.TrimSpace(os.Getenv("APP_ADDR"))
	if appAddr == "" {
		appAddr = ":8080"
	}

	geoTimeout := 2 * time.Second
	if raw := strings.TrimSpace(os.Getenv("GEO_CAPTURE_TIMEOUT_MS")); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			geoTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	return Env{
		AppAddr:    appAddr,
		GinMode:    strings.TrimSpace(os.Getenv("GIN_MODE")),
		DBUser:     envOr("DB_USER", "root"),
		DBPass:     os.Getenv("DB_PASS"),
		DBHost:     envOr("DB_HOST", "127.0.0.1:3306"),
		DBName:     envOr("DB_NAME", "medtransport"),
		JWTSecret:  strings.TrimSpace(os.Getenv("JWT_SECRET")),
		LogFile:    envOr("LOG_FILE", "./logs/app.log"),
		GeoTimeout: geoTimeout,
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
