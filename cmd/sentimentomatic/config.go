package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/sentimentomatic/engine/internal/chunker"
	"github.com/sentimentomatic/engine/internal/config"
)

const (
	configName      = ".sentimentomatic"
	configType      = "yaml"
	envPrefix       = "SENTIMENTOMATIC"
	envKeySeparator = "_"
)

// loadConfig builds an internal/config.Config from a config file, the
// environment, and cobra flags (lowest to highest precedence), grounded on
// the teacher-adjacent codefang's LoadConfig/applyDefaults pattern: start
// from the core's documented defaults, let a file and the environment
// override them, and let explicit flags win last via viper.BindPFlag in
// main's command setup.
func loadConfig(v *viper.Viper, configPath string) (config.Config, error) {
	defaults := config.Default()

	v.SetDefault("remote_host", defaults.RemoteHost)
	v.SetDefault("openai_api_key", "")
	v.SetDefault("database_dsn", "")
	v.SetDefault("aggregation", string(defaults.DefaultAggregation))
	v.SetDefault("chunk_max_chars", defaults.ChunkMaxChars)
	v.SetDefault("memory_pressure_expr", defaults.MemoryPressureExpr)
	v.SetDefault("infer_timeout_millis", defaults.InferTimeoutMillis)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return config.Config{
		RemoteHost:         v.GetString("remote_host"),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		DatabaseDSN:        v.GetString("database_dsn"),
		DefaultAggregation: chunker.AggregationMode(v.GetString("aggregation")),
		ChunkMaxChars:      v.GetInt("chunk_max_chars"),
		ChunkOverlapRatio:  defaults.ChunkOverlapRatio,
		ChunkMaxCount:      defaults.ChunkMaxCount,
		MemoryPressureExpr: v.GetString("memory_pressure_expr"),
		InferTimeoutMillis: v.GetInt64("infer_timeout_millis"),
	}, nil
}
