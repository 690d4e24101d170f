package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPServer  HTTPServer
	Upstream    Upstream
	Correlation Correlation
	Log         Log
	Journal     Journal
	Redis       Redis
}

type HTTPServer struct {
	Address      string        `env:"HTTP_ADDRESS" env-default:"localhost:9000"`
	Timeout      time.Duration `env:"HTTP_TIMEOUT" env-default:"2m"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	StrictStatus bool          `env:"HTTP_STRICT_STATUS" env-default:"false"`
}

type Upstream struct {
	BaseURL       string        `env:"UPSTREAM_BASE_URL" env-default:"https://www.bankofcanada.ca/valet"`
	CorraSeriesID string        `env:"CORRA_SERIES_ID" env-default:"AVG.INTWO"`
	FXSeriesID    string        `env:"FX_SERIES_ID" env-default:"FXUSDCAD"`
	Timeout       time.Duration `env:"UPSTREAM_TIMEOUT" env-default:"0s"`
}

type Correlation struct {
	Alignment string `env:"CORRELATION_ALIGNMENT" env-default:"zero-fill"`
}

type Log struct {
	Level string `env:"LOG_LEVEL" env-default:"debug"`
	File  string `env:"LOG_FILE"`
}

type Journal struct {
	DSN     string        `env:"JOURNAL_DSN"`
	Timeout time.Duration `env:"JOURNAL_TIMEOUT" env-default:"10s"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

func NewConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal("Error reading env: ", err)
	}

	return cfg
}

// Load reads the environment, after merging .env when it exists.
func Load() (*Config, error) {
	cfg := &Config{}

	_ = godotenv.Load(".env")

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
