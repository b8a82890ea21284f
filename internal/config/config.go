package config

import (
	"github.com/phrazzld/huddle-api/internal/domain/matching"
	"github.com/phrazzld/huddle-api/internal/platform/logger"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Matching MatchingConfig `mapstructure:"matching" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port      int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel  string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"omitempty,oneof=json text"`
}

// Logger returns the logger settings derived from the server section.
func (c ServerConfig) Logger() logger.Config {
	return logger.Config{Level: c.LogLevel, Format: c.LogFormat}
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// RedisConfig configures the group-formed notification stream.
// When Enabled is false no Redis connection is made.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	Stream   string `mapstructure:"stream" validate:"required_if=Enabled true"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	// AdminKeyHash is the bcrypt hash of the key accepted by admin endpoints.
	// Admin endpoints are disabled when it is empty.
	AdminKeyHash string `mapstructure:"admin_key_hash"`
}

// MatchingConfig holds the tunable matching parameters.
type MatchingConfig struct {
	MinGroupSize     int           `mapstructure:"min_group_size" validate:"gte=3,lte=4"`
	MaxGroupSize     int           `mapstructure:"max_group_size" validate:"gte=3,lte=4,gtefield=MinGroupSize"`
	MinCompatibility float64       `mapstructure:"min_compatibility" validate:"gte=0,lte=1"`
	CooldownWeeks    int           `mapstructure:"cooldown_weeks" validate:"gte=0"`
	NeighborhoodSize int           `mapstructure:"neighborhood_size" validate:"gte=2"`
	AlgorithmVersion string        `mapstructure:"algorithm_version" validate:"required"`
	Weights          WeightsConfig `mapstructure:"weights"`
}

// WeightsConfig holds the compatibility weights. They must sum to 1; that is
// checked when the matching parameters are built.
type WeightsConfig struct {
	Specialty    float64 `mapstructure:"specialty" validate:"gte=0,lte=1"`
	Interests    float64 `mapstructure:"interests" validate:"gte=0,lte=1"`
	City         float64 `mapstructure:"city" validate:"gte=0,lte=1"`
	Availability float64 `mapstructure:"availability" validate:"gte=0,lte=1"`
}

// Params converts the section to validated matching parameters.
func (c MatchingConfig) Params() (*matching.Params, error) {
	params := matching.NewParams(matching.ParamsConfig{
		SpecialtyWeight:    c.Weights.Specialty,
		InterestsWeight:    c.Weights.Interests,
		CityWeight:         c.Weights.City,
		AvailabilityWeight: c.Weights.Availability,
		MinGroupSize:       c.MinGroupSize,
		MaxGroupSize:       c.MaxGroupSize,
		MinCompatibility:   c.MinCompatibility,
		CooldownWeeks:      c.CooldownWeeks,
		NeighborhoodSize:   c.NeighborhoodSize,
		AlgorithmVersion:   c.AlgorithmVersion,
	})

	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}
