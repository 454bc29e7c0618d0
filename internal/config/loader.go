package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: "CONCLAVE",
	}
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: "CONCLAVE",
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (CONCLAVE_*)
// 3. Project config (.conclave.yaml in current directory)
// 4. User config (~/.config/conclave/config.yaml)
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName(".conclave")
		l.v.SetConfigType("yaml")

		// Project config takes precedence over user config
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "conclave"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values.
func (l *Loader) setDefaults() {
	// Log defaults
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	// Server defaults
	l.v.SetDefault("server.addr", ":8080")
	l.v.SetDefault("server.allowed_origins", []string{"*"})
	l.v.SetDefault("server.read_timeout", "30s")
	l.v.SetDefault("server.write_timeout", "60s")
	l.v.SetDefault("server.shutdown_timeout", "10s")

	// Coordinator defaults
	l.v.SetDefault("coordinator.judge_timeout", "10s")
	l.v.SetDefault("coordinator.review_timeout", "10s")
	l.v.SetDefault("coordinator.answer_timeout", "15s")
	l.v.SetDefault("coordinator.top_n", 3)
	l.v.SetDefault("coordinator.trace_enabled", false)
	l.v.SetDefault("coordinator.trace_dir", ".conclave/traces")

	// Scoring defaults: each role blends similarity and relation evidence
	l.v.SetDefault("scoring.similarity.similarity", 0.8)
	l.v.SetDefault("scoring.similarity.relation", 0.2)
	l.v.SetDefault("scoring.relation.similarity", 0.3)
	l.v.SetDefault("scoring.relation.relation", 0.7)

	// Session defaults
	l.v.SetDefault("session.backend", "memory")
	l.v.SetDefault("session.ttl", "10m")
	l.v.SetDefault("session.path", ".conclave/sessions.db")

	// Agent defaults: in-process unless a URL is configured
	l.v.SetDefault("agents.similarity.url", "")
	l.v.SetDefault("agents.similarity.timeout", "30s")
	l.v.SetDefault("agents.relation.url", "")
	l.v.SetDefault("agents.relation.timeout", "30s")

	// Judge defaults
	l.v.SetDefault("judges.entailment_url", "")
	l.v.SetDefault("judges.entailment_threshold", 0.8)
	l.v.SetDefault("judges.debater_delta", 0.02)
	l.v.SetDefault("judges.goal_rules_path", "")

	// GenAI defaults
	l.v.SetDefault("genai.model", "gemini-2.0-flash")

	// Extraction defaults
	l.v.SetDefault("extraction.url", "http://localhost:8090/extract")
	l.v.SetDefault("extraction.timeout", "30s")
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Get returns a configuration value by key.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// Set sets a configuration value.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// IsSet checks if a key has been set.
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}
