package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string       `yaml:"env" env:"ENV" env-default:"local"`
	Storage     string       `yaml:"storage" env:"STORAGE" env-default:"mongo"`
	SQLitePath  string       `yaml:"sqlite_path" env:"SQLITE_PATH"`
	Mongo       MongoConfig  `yaml:"mongo"`
	HTTP        HTTPConfig   `yaml:"http"`
	Tokens      TokensConfig `yaml:"tokens"`
	SMTP        SMTPConfig   `yaml:"smtp"`
	FrontendURL string       `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"http://localhost:4200"`
}

type MongoConfig struct {
	URI      string `yaml:"uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"boutique"`
}

type HTTPConfig struct {
	Port    int           `yaml:"port" env:"HTTP_PORT" env-default:"3000"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

// TokensConfig holds the signing secrets and expiry policy. Secrets come
// from the environment only and must be present.
type TokensConfig struct {
	AccessSecret  string        `yaml:"access_secret" env:"JWT_SECRET" env-required:"true"`
	AccessTTL     time.Duration `yaml:"access_ttl" env:"JWT_EXPIRES_IN" env-default:"1h"`
	RefreshSecret string        `yaml:"refresh_secret" env:"REFRESH_TOKEN_SECRET" env-required:"true"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl" env:"REFRESH_TOKEN_EXPIRES_IN" env-default:"168h"`
}

type SMTPConfig struct {
	Host     string `yaml:"host" env:"SMTP_HOST" env-default:"smtp.gmail.com"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User     string `yaml:"user" env:"EMAIL_USER"`
	Password string `env:"EMAIL_PASSWORD"`
	From     string `yaml:"from" env:"EMAIL_FROM"`
}

func LoadConfig(path string) *Config {
	var cfg Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		panic("config file not found: " + path)
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		panic("failed to read config: " + err.Error())
	}

	return &cfg
}
