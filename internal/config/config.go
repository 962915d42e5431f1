package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTP      HTTP      `yaml:"http"`
	Storage   Storage   `yaml:"storage"`
	Redis     Redis     `yaml:"redis"`
	SQLite    SQLite    `yaml:"sqlite"`
	Auth      Auth      `yaml:"auth"`
	Game      Game      `yaml:"game"`
	Telemetry Telemetry `yaml:"telemetry"`
}

type HTTP struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" env-default:"5s"`
}

type Storage struct {
	// Driver is "redis" or "memory".
	Driver     string        `yaml:"driver" env:"STORAGE_DRIVER" env-default:"redis"`
	SessionTTL time.Duration `yaml:"session-ttl" env:"SESSION_TTL" env-default:"24h"`
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type SQLite struct {
	Path string `yaml:"path" env:"SQLITE_PATH" env-default:"./master.db"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwt-secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token-ttl" env:"TOKEN_TTL" env-default:"72h"`
}

type Game struct {
	// ComputerDelay is how long the live channel waits before the computer answers.
	ComputerDelay time.Duration `yaml:"computer-delay" env:"COMPUTER_DELAY" env-default:"1s"`
	// HardFallback is "random" or "stall".
	HardFallback string `yaml:"hard-fallback" env:"HARD_FALLBACK" env-default:"random"`
	// Seed fixes the computer's random source; 0 picks one at startup.
	Seed              uint64 `yaml:"seed" env:"GAME_SEED" env-default:"0"`
	DefaultMode       string `yaml:"default-mode" env-default:"pvc"`
	DefaultDifficulty string `yaml:"default-difficulty" env-default:"easy"`
}

type Telemetry struct {
	Enabled        bool   `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	Endpoint       string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"otel-collector:4317"`
	StdoutTraces   bool   `yaml:"stdout-traces" env-default:"false"`
	ServiceName    string `yaml:"service-name" env-default:"solo-tictactoe"`
	ServiceVersion string `yaml:"service-version" env-default:"v0.1.0"`
}

// Load reads the YAML file at path, then applies environment overrides.
func Load(path string) (*Config, error) {
	conf := &Config{}
	if err := cleanenv.ReadConfig(path, conf); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// LoadEnv builds the configuration from defaults and environment only.
func LoadEnv() (*Config, error) {
	conf := &Config{}
	if err := cleanenv.ReadEnv(conf); err != nil {
		return nil, fmt.Errorf("unable to read environment: %w", err)
	}
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// MustLoad - load all configurations in config.yml file. When the file does
// not exist the configuration comes from the environment alone.
func MustLoad(path string) *Config {
	var (
		conf *Config
		err  error
	)
	if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
		conf, err = LoadEnv()
	} else {
		conf, err = Load(path)
	}
	if err != nil {
		panic(err)
	}
	return conf
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "redis", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Game.HardFallback {
	case "random", "stall":
	default:
		return fmt.Errorf("unknown hard fallback %q", c.Game.HardFallback)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt-secret must be set")
	}
	return nil
}

func (r *Redis) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}
