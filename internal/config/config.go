package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Generator   GeneratorConfig   `mapstructure:"generator"`
	Consistency ConsistencyConfig `mapstructure:"consistency"`
	Rollout     RolloutConfig     `mapstructure:"rollout"`
	Worker      WorkerConfig      `mapstructure:"worker"`
	S3          S3Config          `mapstructure:"s3"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// GeneratorConfig configures the generative model boundary.
type GeneratorConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// ConsistencyConfig configures the read-after-write router.
type ConsistencyConfig struct {
	Window        time.Duration `mapstructure:"window"`
	Capacity      int           `mapstructure:"capacity"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// RolloutConfig selects the generation pipeline per owner:
// explicit override > percentage rollout > default.
type RolloutConfig struct {
	Default         string            `mapstructure:"default"`          // "adaptive" or "template"
	AdaptivePercent int               `mapstructure:"adaptive_percent"` // 0-100, owners hashed into the adaptive pipeline
	Overrides       map[string]string `mapstructure:"overrides"`        // owner id hex -> pipeline name
}

// WorkerConfig bounds background job execution.
type WorkerConfig struct {
	MaxConcurrentJobs int           `mapstructure:"max_concurrent_jobs"`
	JobTimeout        time.Duration `mapstructure:"job_timeout"`
}

// S3Config configures the optional raw-candidate archive. Archiving is
// disabled when bucket_name is empty.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// --- Environment Variable Handling ---
	viper.AutomaticEnv()
	// Use replacer for nested keys e.g., generator.api_key -> GENERATOR_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	// --- Set default values ---
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "program_engine")
	viper.SetDefault("generator.model", "gpt-4o-mini")
	viper.SetDefault("generator.call_timeout", "90s")
	viper.SetDefault("consistency.window", "60s")
	viper.SetDefault("consistency.capacity", 1000)
	viper.SetDefault("consistency.sweep_interval", "30s")
	viper.SetDefault("rollout.default", "adaptive")
	viper.SetDefault("rollout.adaptive_percent", 100)
	viper.SetDefault("worker.max_concurrent_jobs", 8)
	viper.SetDefault("worker.job_timeout", "5m")
	viper.SetDefault("s3.use_ssl", true)

	// --- Read Config File ---
	err = viper.ReadInConfig()
	// Config file is optional; env vars and defaults may be the whole story.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	// --- Unmarshal Config ---
	// Duration strings ("60s", "5m") parse directly into time.Duration fields.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}
