package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

// EnvPrefix namespaces environment overrides, e.g. ISITSAFE_DATASET_PATH.
const EnvPrefix = "ISITSAFE"

const (
	DatasetSourceFile     = "file"
	DatasetSourcePostgres = "postgres"
)

type Config struct {
	Mode    string `mapstructure:"mode"`
	Dotenv  string `mapstructure:"dotenv"`
	Dataset struct {
		Source         string `mapstructure:"source"`
		Path           string `mapstructure:"path"`
		StaleAfterDays int    `mapstructure:"staleAfterDays"`
	} `mapstructure:"dataset"`
	Handlers struct {
		ExternalAPI struct {
			AllowedOrigins []string `mapstructure:"allowedOrigins"`
		} `mapstructure:"externalAPI"`
		Prometheus struct {
			Enabled bool   `mapstructure:"enabled"`
			Port    string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
}

// StaleAfter is the age after which a city's data counts as stale.
func (c Config) StaleAfter() time.Duration {
	return time.Duration(c.Dataset.StaleAfterDays) * 24 * time.Hour
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err = config.validate(); err != nil {
		return Config{}, err
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

func (c Config) validate() error {
	switch c.Dataset.Source {
	case DatasetSourceFile:
		if c.Dataset.Path == "" {
			return fmt.Errorf("dataset.path is required when dataset.source is %q", DatasetSourceFile)
		}
	case DatasetSourcePostgres:
		if c.Repositories.Postgres.Host == "" {
			return fmt.Errorf("repositories.postgres.host is required when dataset.source is %q", DatasetSourcePostgres)
		}
	default:
		return fmt.Errorf("unknown dataset.source %q", c.Dataset.Source)
	}
	if c.Server.HTTPPort == "" {
		return fmt.Errorf("server.HTTPPort is required")
	}
	if c.Handlers.Prometheus.Enabled && c.Handlers.Prometheus.Port == c.Server.HTTPPort {
		return fmt.Errorf("handlers.prometheus.port must differ from server.HTTPPort (%s)", c.Server.HTTPPort)
	}
	if c.Dataset.StaleAfterDays <= 0 {
		return fmt.Errorf("dataset.staleAfterDays must be positive, got %d", c.Dataset.StaleAfterDays)
	}
	return nil
}
