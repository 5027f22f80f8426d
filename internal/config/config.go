package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server is the base websocket URL of the game server.
	Server    string    `yaml:"server" env:"UTTT_SERVER" env-default:"ws://127.0.0.1:8080"`
	LogLevel  string    `yaml:"log-level" env:"UTTT_LOG_LEVEL" env-default:"info"`
	LogFile   string    `yaml:"log-file" env:"UTTT_LOG_FILE" env-default:"uttt.log"`
	SSH       SSH       `yaml:"ssh"`
	Auth      Auth      `yaml:"auth"`
	Directory Directory `yaml:"directory"`
}

type SSH struct {
	Host        string `yaml:"host" env:"UTTT_SSH_HOST" env-default:"localhost"`
	Port        int    `yaml:"port" env:"UTTT_SSH_PORT" env-default:"23234"`
	HostKeyPath string `yaml:"host-key-path" env:"UTTT_SSH_HOST_KEY" env-default:"ssh_host_key"`
}

// Auth is disabled when URL is empty.
type Auth struct {
	URL             string `yaml:"url" env:"UTTT_AUTH_URL"`
	CredentialsPath string `yaml:"credentials-path" env:"UTTT_CREDENTIALS" env-default:".uttt/credentials.json"`
}

type Directory struct {
	// Backend is one of memory, firebase, redis.
	Backend     string `yaml:"backend" env:"UTTT_DIRECTORY" env-default:"memory"`
	FirebaseURL string `yaml:"firebase-url" env:"UTTT_FIREBASE_URL"`
	CredPath    string `yaml:"firebase-credentials" env:"UTTT_FIREBASE_CREDENTIALS" env-default:"serviceAccount.json"`
	Redis       Redis  `yaml:"redis"`
}

type Redis struct {
	Host string `yaml:"host" env:"UTTT_REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"UTTT_REDIS_PORT" env-default:"6379"`
}

func (r Redis) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load reads path when it exists, environment variables otherwise. A .env
// file in the working directory is loaded first; variables already set
// win over it.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("unable to load .env: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("unable to load config file: %w", err)
			}
			return cfg, cfg.Validate()
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("unable to load config from env: %w", err)
	}
	return cfg, cfg.Validate()
}

// MustLoad is Load that panics.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) Validate() error {
	switch c.Directory.Backend {
	case "memory", "redis":
	case "firebase":
		if c.Directory.FirebaseURL == "" {
			return errors.New("directory backend firebase needs firebase-url")
		}
	default:
		return fmt.Errorf("unknown directory backend %q", c.Directory.Backend)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
