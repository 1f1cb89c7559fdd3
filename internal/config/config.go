package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr          string
	DBDSN             string
	JWTIssuer         string
	JWTSecret         string
	JWTTTL            time.Duration
	InternalToken     string
	WebSocketOrigin   string
	ProfectMode       string
	LogLevel          string
	AdminPasswordHash string
	ResolveTimeout    time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory (or the path in ENV_FILE) is loaded first when present; variables
// already set in the environment win.
func Load() (Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, err
		}
	}
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PROFECT_MODE", "development")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("RESOLVE_TIMEOUT", "2s")
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	var c Config
	var missing []string
	required := func(key string) string {
		val := strings.TrimSpace(v.GetString(key))
		if val == "" {
			missing = append(missing, key)
		}
		return val
	}
	c.HTTPAddr = required("HTTP_ADDR")
	c.DBDSN = required("DB_DSN")
	c.JWTIssuer = required("JWT_ISSUER")
	c.JWTSecret = required("JWT_SECRET")
	c.InternalToken = required("INTERNAL_API_TOKEN")
	c.WebSocketOrigin = required("WS_ORIGIN")

	d, err := time.ParseDuration(v.GetString("JWT_TTL"))
	if err != nil {
		return c, errors.New("invalid JWT_TTL")
	}
	c.JWTTTL = d
	d, err = time.ParseDuration(v.GetString("RESOLVE_TIMEOUT"))
	if err != nil || d <= 0 {
		return c, errors.New("invalid RESOLVE_TIMEOUT")
	}
	c.ResolveTimeout = d

	c.ProfectMode = strings.ToLower(strings.TrimSpace(v.GetString("PROFECT_MODE")))
	if c.ProfectMode != "development" && c.ProfectMode != "production" {
		return c, errors.New("invalid PROFECT_MODE: use development or production")
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL")))
	if c.LogLevel == "" {
		c.LogLevel = "info"
		if c.ProfectMode == "development" {
			c.LogLevel = "debug"
		}
	}
	c.AdminPasswordHash = strings.TrimSpace(v.GetString("ADMIN_PASSWORD_HASH"))
	if c.ProfectMode == "production" && c.AdminPasswordHash == "" {
		missing = append(missing, "ADMIN_PASSWORD_HASH")
	}
	if len(missing) > 0 {
		return c, errors.New("missing required env: " + strings.Join(missing, ","))
	}
	return c, nil
}
