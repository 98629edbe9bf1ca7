package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration for the application.
type Config struct {
	Environment   string `mapstructure:"environment"`
	DevModeBypass bool   `mapstructure:"dev_mode_bypass"`
	Server        struct {
		Addr            string        `mapstructure:"addr"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`
	DB struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"db"`
	Tasks struct {
		Driver     string `mapstructure:"driver"`
		SQLitePath string `mapstructure:"sqlite_path"`
	} `mapstructure:"tasks"`
	AI struct {
		Provider string        `mapstructure:"provider"`
		URL      string        `mapstructure:"url"`
		Model    string        `mapstructure:"model"`
		APIKey   string        `mapstructure:"api_key"`
		Timeout  time.Duration `mapstructure:"timeout"`
	} `mapstructure:"ai"`
	Auth struct {
		OktaDomain      string `mapstructure:"okta_domain"`
		ClientID        string `mapstructure:"client_id"`
		ClientSecret    string `mapstructure:"client_secret"`
		RedirectURL     string `mapstructure:"redirect_url"`
		SwaggerClientID string `mapstructure:"swagger_client_id"`
	} `mapstructure:"auth"`
	TLS struct {
		Enable    bool     `mapstructure:"enable"`
		CertFile  string   `mapstructure:"cert_file"`
		KeyFile   string   `mapstructure:"key_file"`
		Hostnames []string `mapstructure:"hostnames"`
	} `mapstructure:"tls"`
	Intelligence struct {
		MessageCapacity  int           `mapstructure:"message_capacity"`
		InsightCapacity  int           `mapstructure:"insight_capacity"`
		AnalysisInterval time.Duration `mapstructure:"analysis_interval"`
	} `mapstructure:"intelligence"`
	Logging struct {
		Debug bool `mapstructure:"debug"`
	} `mapstructure:"logging"`
}

// Task store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Completion providers.
const (
	ProviderCanned = "canned"
	ProviderHTTP   = "http"
	ProviderGemini = "gemini"
)

// IsDev reports whether the service runs in the DEV environment.
func (c *Config) IsDev() bool {
	return strings.EqualFold(c.Environment, "DEV")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "PROD")
	v.SetDefault("dev_mode_bypass", false)

	v.SetDefault("server.addr", "")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "evs")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "evs")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("tasks.driver", DriverMemory)
	v.SetDefault("tasks.sqlite_path", "evs-tasks.db")

	v.SetDefault("ai.provider", ProviderCanned)
	v.SetDefault("ai.url", "http://localhost:8000")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.timeout", 10*time.Second)

	v.SetDefault("auth.okta_domain", "")
	v.SetDefault("auth.client_id", "")
	v.SetDefault("auth.client_secret", "")
	v.SetDefault("auth.redirect_url", "")
	v.SetDefault("auth.swagger_client_id", "")

	v.SetDefault("tls.enable", false)
	v.SetDefault("tls.cert_file", "")
	v.SetDefault("tls.key_file", "")
	v.SetDefault("tls.hostnames", []string{})

	v.SetDefault("intelligence.message_capacity", 1000)
	v.SetDefault("intelligence.insight_capacity", 20)
	v.SetDefault("intelligence.analysis_interval", 30*time.Second)

	v.SetDefault("logging.debug", false)
}

// LoadConfig loads the configuration from config.yaml (in . or ./config),
// an optional .env file and the environment. Environment variables use the
// EVS_ prefix, e.g. EVS_TASKS_DRIVER=sqlite. A missing config file is not an
// error.
func LoadConfig(envFile string) (*Config, error) {
	return LoadConfigFrom(envFile, "")
}

// LoadConfigFrom is LoadConfig with an explicit config file path. An empty
// path searches . and ./config for config.yaml.
func LoadConfigFrom(envFile, configFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	v := viper.GetViper()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	return load(v)
}

// LoadFile loads the configuration from an explicit YAML file, ignoring the
// process-wide viper instance.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix("EVS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// normalize OKTA issuer url (strip trailing slash if any)
	config.Auth.OktaDomain = normalizeOktaIssuer(config.Auth.OktaDomain)
	config.Tasks.Driver = strings.ToLower(config.Tasks.Driver)
	config.AI.Provider = strings.ToLower(config.AI.Provider)

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	switch c.Tasks.Driver {
	case DriverMemory, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unknown tasks.driver %q", c.Tasks.Driver)
	}
	switch c.AI.Provider {
	case ProviderCanned, ProviderHTTP, ProviderGemini:
	default:
		return fmt.Errorf("unknown ai.provider %q", c.AI.Provider)
	}
	return nil
}

// normalizeOktaIssuer removes any trailing slash so the full URL can be
// pasted from the Okta admin console.
func normalizeOktaIssuer(input string) string {
	return strings.TrimRight(strings.TrimSpace(input), "/")
}
