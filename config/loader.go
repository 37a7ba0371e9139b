package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPaths are tried in order when Load is given no path.
var DefaultPaths = []string{"config.yml", "./config/config.yml"}

// LoadEnv reads a .env file into the process environment if one exists.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set directly.")
	}
}

// Load reads the first readable file among paths (or DefaultPaths) and parses it.
func Load(paths ...string) (*AppConfig, error) {
	if len(paths) == 0 {
		paths = DefaultPaths
	}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			log.Printf("loading configuration from %s", p)
			break
		}
	}
	if err != nil {
		return nil, &ConfigError{Field: "file", Reason: "no readable config file", Err: err}
	}
	return Parse(data)
}

// Parse decodes YAML over Default, applies environment overrides and validates the result.
func Parse(data []byte) (*AppConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Field: "file", Reason: "invalid yaml", Err: err}
	}
	applyEnv(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section and converts the first failure into a ConfigError.
func Validate(cfg *AppConfig) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ConfigError{Field: fe.Namespace(), Reason: fmt.Sprintf("failed %q check", fe.Tag()), Err: err}
		}
		return &ConfigError{Field: "config", Reason: "invalid", Err: err}
	}
	return nil
}

func applyEnv(cfg *AppConfig) {
	setFromEnv("DB_DRIVER", &cfg.Database.Driver)
	setFromEnv("DB_HOST", &cfg.Database.Host)
	setFromEnv("DB_PORT", &cfg.Database.Port)
	setFromEnv("DB_USER", &cfg.Database.User)
	setFromEnv("DB_PASSWORD", &cfg.Database.Password)
	setFromEnv("DB_NAME", &cfg.Database.Name)
	setFromEnv("JWT_SECRET", &cfg.Server.JWTSecret)
	setFromEnv("MINIO_ACCESS_KEY", &cfg.Storage.Minio.AccessKey)
	setFromEnv("MINIO_SECRET_KEY", &cfg.Storage.Minio.SecretKey)
	if brokers, ok := os.LookupEnv("KAFKA_BROKER"); ok && brokers != "" {
		cfg.Feed.Kafka.Brokers = strings.Split(brokers, ",")
	}
}

func setFromEnv(key string, dst *string) {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		*dst = val
	}
}
