// Package config loads application configuration and initializes logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	EDGAR   EDGARConfig   `yaml:"edgar" mapstructure:"edgar"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Mapping MappingConfig `yaml:"mapping" mapstructure:"mapping"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// EDGARConfig configures access to the SEC EDGAR archive.
//
// The SEC requires every automated client to identify itself with an
// organization name and a contact; requests without identification are
// rejected. See https://www.sec.gov/os/webmaster-faq#code-support.
type EDGARConfig struct {
	Company      string  `yaml:"company" mapstructure:"company"`
	Contact      string  `yaml:"contact" mapstructure:"contact"`
	Email        string  `yaml:"email" mapstructure:"email"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Taxonomy     string  `yaml:"taxonomy" mapstructure:"taxonomy"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxWaitSecs  int     `yaml:"max_wait_secs" mapstructure:"max_wait_secs"`
	MinFilingYMD string  `yaml:"min_filing_date" mapstructure:"min_filing_date"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// MappingConfig points at the standard name mapping table.
type MappingConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the query API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EDGARSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("edgar.company", "Sells Advisors")
	v.SetDefault("edgar.contact", "Blake Sells")
	v.SetDefault("edgar.email", "blake@sellsadvisors.com")
	v.SetDefault("edgar.rate_per_sec", 10)
	v.SetDefault("edgar.taxonomy", "us-gaap")
	v.SetDefault("edgar.timeout_secs", 30)
	v.SetDefault("edgar.max_wait_secs", 0)
	v.SetDefault("edgar.min_filing_date", "2009-01-01")
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.path", "edgar.db")
	v.SetDefault("mapping.path", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
