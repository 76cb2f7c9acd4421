package config

import "github.com/caarlos0/env/v10"

// Config centralizes service configuration.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	AccessTokenSecret      string `env:"ACCESS_TOKEN_SECRET,required"`
	RefreshTokenSecret     string `env:"REFRESH_TOKEN_SECRET,required"`
	AccessTokenTTLMinutes  int    `env:"ACCESS_TOKEN_TTL_MINUTES" envDefault:"15"`
	RefreshTokenTTLHours   int    `env:"REFRESH_TOKEN_TTL_HOURS" envDefault:"240"`
	CookieSecure           bool   `env:"COOKIE_SECURE" envDefault:"true"`

	TmpDir string `env:"TMP_DIR"`

	S3Bucket        string `env:"S3_BUCKET,required"`
	S3Region        string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint      string `env:"S3_ENDPOINT"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	LoginRateWindowMinutes int `env:"LOGIN_RATE_WINDOW_MINUTES" envDefault:"10"`
	LoginRateMax           int `env:"LOGIN_RATE_MAX" envDefault:"10"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
