package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=filiales port=5432 sslmode=disable"

type Config struct {
	Environment string
	LogLevel    string
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	JWTTTL      time.Duration
	CORSOrigins string

	UploadPath    string // imágenes subidas (logos, fotos de integrantes, acciones)
	UploadBaseURL string
	UploadMaxSize int64

	GeoAPIURL   string
	GeoCacheTTL time.Duration

	LoginRatePerSecond float64
	LoginRateBurst     int
}

// IsProduction reports whether internal error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func Load() *Config {
	// .env es opcional; en producción todo viene del entorno
	_ = godotenv.Load()

	cfg := &Config{
		Environment:        getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:        getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTTTL:             getDuration("JWT_TTL", 24*time.Hour),
		CORSOrigins:        getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		UploadPath:         getEnv("UPLOAD_PATH", "./uploads"),
		UploadBaseURL:      getEnv("UPLOAD_BASE_URL", "/uploads"),
		UploadMaxSize:      getInt64("UPLOAD_MAX_BYTES", 5*1024*1024),
		GeoAPIURL:          getEnv("GEO_API_URL", "https://apis.datos.gob.ar/georef/api"),
		GeoCacheTTL:        getDuration("GEO_CACHE_TTL", 24*time.Hour),
		LoginRatePerSecond: getFloat("LOGIN_RATE_PER_SECOND", 1),
		LoginRateBurst:     int(getInt64("LOGIN_RATE_BURST", 5)),
	}

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET no está definido; es obligatorio")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal().Msg("JWT_SECRET debe tener al menos 32 caracteres")
	}
	if cfg.DatabaseDSN == defaultDSN {
		log.Warn().Msg("DATABASE_DSN usa el valor por defecto; definí tu propia conexión para producción")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Warn().Msg("CORS_ALLOWED_ORIGINS usa el valor por defecto; definí tu dominio para producción")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("duración inválida, se usa el valor por defecto")
		return def
	}
	return d
}

func getInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", v).Msg("entero inválido, se usa el valor por defecto")
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		log.Warn().Str("key", key).Str("value", v).Msg("número inválido, se usa el valor por defecto")
		return def
	}
	return f
}
