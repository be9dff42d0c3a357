package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config holds all process-level configuration. It is constructed once at
// startup and passed by reference into each component.
type Config struct {
	Environment string `env:"APP_ENV"   envDefault:"development"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":4000"`
	ClientURL   string `env:"CLIENT_URL" envDefault:"http://localhost:5173"`

	MongoURI      string `env:"MONGO_URI,required"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"commerce"`

	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`

	Token     TokenConfig
	OTP       OTPConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

// TokenConfig configures the JWT token issuer. Access and refresh tokens are
// signed with distinct secrets so a leaked access secret cannot be used to
// forge refresh tokens.
type TokenConfig struct {
	Issuer                string        `env:"TOKEN_ISSUER"             envDefault:"commerce-api"`
	AccessTokenSecret     string        `env:"ACCESS_TOKEN_SECRET,required"`
	RefreshTokenSecret    string        `env:"REFRESH_TOKEN_SECRET,required"`
	AccessTokenExpiresIn  time.Duration `env:"ACCESS_TOKEN_EXPIRES_IN"  envDefault:"1h"`
	RefreshTokenExpiresIn time.Duration `env:"REFRESH_TOKEN_EXPIRES_IN" envDefault:"168h"`
}

// OTPConfig configures one-time code issuance.
type OTPConfig struct {
	Length      int           `env:"OTP_LENGTH"       envDefault:"6"`
	ExpiresIn   time.Duration `env:"OTP_EXPIRES_IN"   envDefault:"10m"`
	SendTimeout time.Duration `env:"OTP_SEND_TIMEOUT" envDefault:"30s"`
}

// RedisConfig configures the optional Redis connection used for rate limiting.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// RateLimitConfig configures the token-bucket rate limiter applied to the
// authentication routes.
type RateLimitConfig struct {
	Enabled        bool          `env:"RATE_LIMIT_ENABLED"         envDefault:"false"`
	Capacity       int64         `env:"RATE_LIMIT_CAPACITY"        envDefault:"20"`
	RefillTokens   int64         `env:"RATE_LIMIT_REFILL_TOKENS"   envDefault:"5"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"1s"`
	TTL            time.Duration `env:"RATE_LIMIT_TTL"             envDefault:"10m"`
}

// New creates a Config instance from environment variables.
func New(logger *zerolog.Logger) *Config {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	return &cfg
}
