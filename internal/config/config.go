package config

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/quillbooks/quillbooks/internal/types"
)

type Configuration struct {
	Logging   LoggingConfig   `validate:"required"`
	Cache     CacheConfig     `validate:"required"`
	Invoicing InvoicingConfig `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type CacheConfig struct {
	Enabled bool
}

// InvoicingConfig carries the tenant-default settings for invoice number
// generation and due dates. Tenants without explicit overrides fall back to
// these values.
type InvoicingConfig struct {
	NumberPrefix        string                    `mapstructure:"number_prefix"`
	NumberFormat        types.InvoiceNumberFormat `mapstructure:"number_format"`
	NumberSeparator     string                    `mapstructure:"number_separator"`
	NumberSuffixLength  int                       `mapstructure:"number_suffix_length"`
	NumberStartSequence int64                     `mapstructure:"number_start_sequence"`
	NumberTimezone      string                    `mapstructure:"number_timezone"`
	DefaultDueDays      int                       `mapstructure:"default_due_days"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	// .env values feed the environment before viper reads it
	_ = godotenv.Load()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("QUILLBOOKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("cache.enabled", true)
	v.SetDefault("invoicing.number_prefix", "INV")
	v.SetDefault("invoicing.number_format", string(types.InvoiceNumberFormatYYYYMM))
	v.SetDefault("invoicing.number_separator", "-")
	v.SetDefault("invoicing.number_suffix_length", 5)
	v.SetDefault("invoicing.number_start_sequence", 1)
	v.SetDefault("invoicing.number_timezone", "UTC")
	v.SetDefault("invoicing.default_due_days", types.InvoiceDefaultDueDays)
}

func (c Configuration) Validate() error {
	return validator.New().Struct(c)
}

// GetDefaultConfig returns a configuration suitable for tests and scripts
// without reading any config file.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Logging: LoggingConfig{Level: types.LogLevelInfo},
		Cache:   CacheConfig{Enabled: true},
		Invoicing: InvoicingConfig{
			NumberPrefix:        "INV",
			NumberFormat:        types.InvoiceNumberFormatYYYYMM,
			NumberSeparator:     "-",
			NumberSuffixLength:  5,
			NumberStartSequence: 1,
			NumberTimezone:      "UTC",
			DefaultDueDays:      types.InvoiceDefaultDueDays,
		},
	}
}
