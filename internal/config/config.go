package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	API     APIConfig     `yaml:"api" mapstructure:"api"`
	Panels  PanelsConfig  `yaml:"panels" mapstructure:"panels"`
	Regions RegionsConfig `yaml:"regions" mapstructure:"regions"`
	Notify  NotifyConfig  `yaml:"notify" mapstructure:"notify"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// APIConfig configures the Forest Shield backend client.
type APIConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst       int     `yaml:"burst" mapstructure:"burst"`
}

// Timeout returns the request timeout as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// PanelsConfig holds per-panel polling intervals in seconds.
type PanelsConfig struct {
	AlertsSecs   int `yaml:"alerts_secs" mapstructure:"alerts_secs"`
	JobsSecs     int `yaml:"jobs_secs" mapstructure:"jobs_secs"`
	LogsSecs     int `yaml:"logs_secs" mapstructure:"logs_secs"`
	ActivitySecs int `yaml:"activity_secs" mapstructure:"activity_secs"`
	CostSecs     int `yaml:"cost_secs" mapstructure:"cost_secs"`
	HealthSecs   int `yaml:"health_secs" mapstructure:"health_secs"`
	StatsSecs    int `yaml:"stats_secs" mapstructure:"stats_secs"`
}

// RegionsConfig holds defaults for regions drawn from the console.
type RegionsConfig struct {
	DefaultCloudCover int `yaml:"default_cloud_cover" mapstructure:"default_cloud_cover"`
}

// NotifyConfig configures the operator banner.
type NotifyConfig struct {
	BannerTTLSecs int `yaml:"banner_ttl_secs" mapstructure:"banner_ttl_secs"`
}

// BannerTTL returns the banner lifetime as a duration.
func (c NotifyConfig) BannerTTL() time.Duration {
	return time.Duration(c.BannerTTLSecs) * time.Second
}

// ServerConfig configures the local console server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("FORESTSHIELD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("api.base_url", "http://localhost:3000")
	v.SetDefault("api.api_key", "")
	v.SetDefault("api.timeout_secs", 30)
	v.SetDefault("api.rate_per_sec", 10.0)
	v.SetDefault("api.burst", 20)
	v.SetDefault("panels.alerts_secs", 30)
	v.SetDefault("panels.jobs_secs", 5)
	v.SetDefault("panels.logs_secs", 2)
	v.SetDefault("panels.activity_secs", 15)
	v.SetDefault("panels.cost_secs", 60)
	v.SetDefault("panels.health_secs", 30)
	v.SetDefault("panels.stats_secs", 30)
	v.SetDefault("regions.default_cloud_cover", 20)
	v.SetDefault("notify.banner_ttl_secs", 5)
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3001"})
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

// Validate checks the settings a command needs. mode is "client" for
// commands that only call the backend, "watch" for the polling panels and
// "serve" for the local server.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "client", "watch", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if strings.TrimSpace(c.API.BaseURL) == "" {
		errs = append(errs, "api.base_url is required")
	}
	if c.API.TimeoutSecs <= 0 {
		errs = append(errs, "api.timeout_secs must be > 0")
	}
	if c.API.RatePerSec < 0 {
		errs = append(errs, "api.rate_per_sec must be >= 0")
	}
	if c.Regions.DefaultCloudCover < 0 || c.Regions.DefaultCloudCover > 100 {
		errs = append(errs, "regions.default_cloud_cover must be between 0 and 100")
	}

	if mode == "watch" || mode == "serve" {
		for _, iv := range []struct {
			name string
			secs int
		}{
			{"alerts_secs", c.Panels.AlertsSecs},
			{"jobs_secs", c.Panels.JobsSecs},
			{"logs_secs", c.Panels.LogsSecs},
			{"activity_secs", c.Panels.ActivitySecs},
			{"cost_secs", c.Panels.CostSecs},
			{"health_secs", c.Panels.HealthSecs},
			{"stats_secs", c.Panels.StatsSecs},
		} {
			if iv.secs <= 0 {
				errs = append(errs, "panels."+iv.name+" must be > 0")
			}
		}
	}

	if mode == "serve" && c.Server.Port <= 0 {
		errs = append(errs, "server.port must be > 0")
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
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
