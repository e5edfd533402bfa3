// Package config loads bibhub settings from defaults, an optional config
// file, .env files and BIBHUB_* environment variables, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"bibhub/internal/geocode"
	"bibhub/internal/logging"
	"bibhub/internal/matcher"
	"bibhub/internal/pipeline"
	"bibhub/internal/store"
)

// EnvPrefix prefixes every environment variable, e.g. BIBHUB_DB_DRIVER.
const EnvPrefix = "BIBHUB"

type Config struct {
	DB      store.Config       `mapstructure:"db"`
	HTTP    ServerConfig       `mapstructure:"http"`
	GRPC    ServerConfig       `mapstructure:"grpc"`
	Events  ServerConfig       `mapstructure:"events"`
	Geocode GeocodeConfig      `mapstructure:"geocode"`
	Sources SourcesConfig      `mapstructure:"sources"`
	Match   matcher.Thresholds `mapstructure:"match"`
	Log     logging.Config     `mapstructure:"log"`
}

type ServerConfig struct {
	// Addr is a listen address; empty disables the server.
	Addr string `mapstructure:"addr"`
}

type GeocodeConfig struct {
	BaseURL  string        `mapstructure:"base_url" validate:"required,url"`
	APIKey   string        `mapstructure:"api_key"`
	Country  string        `mapstructure:"country"`
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Retries  int           `mapstructure:"retries" validate:"gte=0,lte=5"`
}

type SourcesConfig struct {
	Certification SourceConfig `mapstructure:"certification"`
	Directory     SourceConfig `mapstructure:"directory"`
	// Timeout bounds each HTTP request made by a source.
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	// FetchTimeout bounds the whole fetch of one source kind; zero disables it.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" validate:"gte=0"`
}

// SourceConfig selects where one source is read from. Every non-empty
// location is used.
type SourceConfig struct {
	// URL is the base URL of a JSON source mirror.
	URL string `mapstructure:"url" validate:"omitempty,url"`
	// File is a local JSON snapshot of the source.
	File string `mapstructure:"file"`
	// Profile is a YAML HTML-listing profile.
	Profile string `mapstructure:"profile"`
}

// Configured reports whether any location is set.
func (s SourceConfig) Configured() bool {
	return s.URL != "" || s.File != "" || s.Profile != ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func setDefaults(v *viper.Viper) {
	v.SetDefault("db.driver", store.DriverSQLite)
	v.SetDefault("db.path", "")
	v.SetDefault("db.url", "")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("grpc.addr", ":9090")
	v.SetDefault("events.addr", "")
	v.SetDefault("geocode.base_url", geocode.DefaultLocationIQBaseURL)
	v.SetDefault("geocode.api_key", "")
	v.SetDefault("geocode.country", geocode.DefaultCountry)
	v.SetDefault("geocode.interval", geocode.DefaultInterval)
	v.SetDefault("geocode.timeout", 10*time.Second)
	v.SetDefault("geocode.retries", 0)
	v.SetDefault("sources.certification.url", "")
	v.SetDefault("sources.certification.file", "")
	v.SetDefault("sources.certification.profile", "")
	v.SetDefault("sources.directory.url", "")
	v.SetDefault("sources.directory.file", "")
	v.SetDefault("sources.directory.profile", "")
	v.SetDefault("sources.timeout", 30*time.Second)
	v.SetDefault("sources.fetch_timeout", pipeline.DefaultSourceTimeout)
	v.SetDefault("match.name", matcher.DefaultNameThreshold)
	v.SetDefault("match.phone", matcher.DefaultPhoneThreshold)
	v.SetDefault("match.address", matcher.DefaultAddressThreshold)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")
}

// Load reads the configuration. configFile may be empty, in which case
// bibhub.yaml is looked up in the working directory and ~/.bibhub.
func Load(configFile string) (*Config, error) {
	loadEnvFiles()
	return load(viper.New(), configFile)
}

func load(v *viper.Viper, configFile string) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("bibhub")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.bibhub")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// loadEnvFiles loads .env then .env.local. Variables already set win.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}
