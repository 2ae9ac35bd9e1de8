package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server struct {
		Port            int    `mapstructure:"port"`
		Host            string `mapstructure:"host"`
		Env             string `mapstructure:"env"`
		ShutdownTimeout int    `mapstructure:"shutdown_timeout_seconds"`
	} `mapstructure:"server"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"ssl_mode"`
		Schema   string `mapstructure:"schema"`
		PoolMax  int    `mapstructure:"pool_max"`
	} `mapstructure:"database"`

	Firebase struct {
		ProjectID       string `mapstructure:"project_id"`
		CredentialsFile string `mapstructure:"credentials_file"`
	} `mapstructure:"firebase"`

	// Decision holds tuning knobs for the risk model and escalation
	// workflow that the corresponding packages default sensibly
	// without, but that operators may want to override per deployment.
	// EscalationTTLHours is loaded but not applied: escalation tokens
	// are always minted with escalation.DefaultTTL.
	Decision struct {
		ModelArtifactPath  string `mapstructure:"model_artifact_path"`
		EscalationTTLHours int    `mapstructure:"escalation_ttl_hours"`
	} `mapstructure:"decision"`

	// Specialist holds settings for the specialist-facing portal link
	// sent out on escalation.
	Specialist struct {
		PortalBaseURL string `mapstructure:"portal_base_url"`
	} `mapstructure:"specialist"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Address string `mapstructure:"address"`
	} `mapstructure:"metrics"`
}

// LoadConfig loads configuration from environment variables and config files.
func LoadConfig(configName string, paths ...string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("TRIAGEDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, path := range paths {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetConfigName(configName)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.shutdown_timeout_seconds", 15)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.schema", "public")
	v.SetDefault("database.pool_max", 10)

	v.SetDefault("decision.model_artifact_path", "./config/risk_model.json")
	v.SetDefault("decision.escalation_ttl_hours", 24)

	v.SetDefault("specialist.portal_base_url", "http://localhost:8080/api/v1/specialist/portal")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.address", ":9090")
}
