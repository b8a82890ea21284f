package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/phrazzld/huddle-api/internal/domain/matching"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// HUDDLE_DATABASE_URL for database.url.
const EnvPrefix = "HUDDLE"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom is Load with an explicit directory to search for config.yaml and
// .env.
func LoadFrom(dir string) (*Config, error) {
	// A missing .env file is not an error; values already in the environment win.
	_ = godotenv.Load(strings.TrimSuffix(dir, "/") + "/.env")

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults must be bound explicitly for AutomaticEnv to
	// see them during Unmarshal.
	for _, key := range []string{
		"database.url",
		"auth.jwt_secret",
		"auth.admin_key_hash",
		"redis.addr",
		"redis.password",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := cfg.Matching.Params(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	params := matching.NewDefaultParams()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "groups:formed")

	v.SetDefault("matching.min_group_size", params.MinGroupSize)
	v.SetDefault("matching.max_group_size", params.MaxGroupSize)
	v.SetDefault("matching.min_compatibility", params.MinCompatibility)
	v.SetDefault("matching.cooldown_weeks", params.CooldownWeeks)
	v.SetDefault("matching.neighborhood_size", params.NeighborhoodSize)
	v.SetDefault("matching.algorithm_version", params.AlgorithmVersion)
	v.SetDefault("matching.weights.specialty", params.Weights.Specialty)
	v.SetDefault("matching.weights.interests", params.Weights.Interests)
	v.SetDefault("matching.weights.city", params.Weights.City)
	v.SetDefault("matching.weights.availability", params.Weights.Availability)
}
