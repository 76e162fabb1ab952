package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort            int           `mapstructure:"APP_PORT"`
	OllamaURL          string        `mapstructure:"OLLAMA_URL"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	SessionIdleTimeout time.Duration `mapstructure:"SESSION_IDLE_TIMEOUT"`
	OllamaWaitTimeout  time.Duration `mapstructure:"OLLAMA_WAIT_TIMEOUT"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 8000)
	viper.SetDefault("OLLAMA_URL", "http://localhost:11434")
	viper.SetDefault("LOG_LEVEL", "INFO")
	viper.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
	viper.SetDefault("OLLAMA_WAIT_TIMEOUT", "30s")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.OllamaURL = strings.TrimRight(cfg.OllamaURL, "/")

	return &cfg, nil
}
