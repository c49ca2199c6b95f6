package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         string `yaml:"port"`
		Mode         string `yaml:"mode"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"server"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL                string `yaml:"ttl"`
		Randomize          bool   `yaml:"randomize"`
		SeedFile           string `yaml:"seed_file"`
		OptionsPerQuestion int    `yaml:"options_per_question"`
	} `yaml:"quiz"`
	Leaderboard struct {
		LocalCapacity  int `yaml:"local_capacity"`
		GlobalCapacity int `yaml:"global_capacity"`
	} `yaml:"leaderboard"`
	HighScores struct {
		// Backend is one of memory, redis or postgres.
		Backend   string `yaml:"backend"`
		RateLimit int    `yaml:"rate_limit"`
	} `yaml:"highscores"`
	Session struct {
		Tick string `yaml:"tick"`
		TTL  string `yaml:"ttl"`
	} `yaml:"session"`
	Local struct {
		Path string `yaml:"path"`
	} `yaml:"local"`
	RabbitMQ struct {
		URL   string `yaml:"url"`
		Queue string `yaml:"queue"`
	} `yaml:"rabbitmq"`
	Images struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		Region    string `yaml:"region"`
		UseSSL    bool   `yaml:"use_ssl"`
		Expiry    string `yaml:"expiry"`
	} `yaml:"images"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Server.Mode = "release"
	cfg.Server.ReadTimeout = "15s"
	cfg.Server.WriteTimeout = "15s"
	cfg.Log.Level = "info"
	cfg.Log.MaxSizeMB = 100
	cfg.Log.MaxBackups = 5
	cfg.Log.MaxAgeDays = 30
	cfg.Quiz.TTL = "10m"
	cfg.Quiz.Randomize = true
	cfg.Quiz.OptionsPerQuestion = 4
	cfg.Leaderboard.LocalCapacity = 5
	cfg.Leaderboard.GlobalCapacity = 100
	cfg.HighScores.Backend = "memory"
	cfg.HighScores.RateLimit = 30
	cfg.Session.Tick = "10ms"
	cfg.Session.TTL = "30m"
	cfg.Local.Path = "knotquiz.db"
	cfg.RabbitMQ.Queue = "highscores"
	cfg.Images.Region = "us-east-1"
	cfg.Images.Expiry = "15m"
	return cfg
}

// Load reads YAML config from path over the defaults. A missing file is not
// an error. A .env file in the working directory and the environment are
// applied last.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		cfg.RabbitMQ.URL = v
	}
	if v := os.Getenv("QUIZ_RANDOMIZE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Quiz.Randomize = b
		}
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
