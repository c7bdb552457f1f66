package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/workcal/availability/internal/availability"
	"github.com/workcal/availability/internal/calendar"
	"github.com/workcal/availability/pkg/dateutil"
)

// Italian national holidays used when no calendar is configured
var defaultHolidays = []string{
	"2017-01-01", // Capodanno
	"2017-01-06", // Epifania
	"2017-04-16", // Pasqua
	"2017-04-17", // Lunedì dell'Angelo
	"2017-04-25", // Festa della Liberazione
	"2017-05-01", // Festa dei Lavoratori
	"2017-06-02", // Festa della Repubblica
	"2017-08-15", // Ferragosto
	"2017-11-01", // Ognissanti
	"2017-12-08", // Immacolata Concezione
	"2017-12-25", // Natale
	"2017-12-26", // Santo Stefano
}

// Config represents application configuration
type Config struct {
	Calendar CalendarConfig `mapstructure:"calendar"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Input    InputConfig    `mapstructure:"input"`
	Output   OutputConfig   `mapstructure:"output"`
	Store    StoreConfig    `mapstructure:"store"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// CalendarConfig describes where the national holidays come from.
// All configured sources are merged.
type CalendarConfig struct {
	Dates          []string `mapstructure:"dates"`           // inline YYYY-MM-DD list
	File           string   `mapstructure:"file"`            // text file, also fallback for xmlcalendar
	Country        string   `mapstructure:"country"`         // generated via rickar/cal ("it", "us", "de")
	Years          []int    `mapstructure:"years"`           // years for country / xmlcalendar
	XMLCalendarURL string   `mapstructure:"xmlcalendar_url"` // e.g. https://xmlcalendar.ru/data/ru/{year}/calendar.json
	CacheTTL       string   `mapstructure:"cache_ttl"`
}

// EngineConfig represents engine behaviour
type EngineConfig struct {
	Mode              string `mapstructure:"mode"`
	SkipInvalidRanges bool   `mapstructure:"skip_invalid_ranges"`
}

// InputConfig represents the dataset source
type InputConfig struct {
	File string `mapstructure:"file"`
}

// OutputConfig represents the output sink
type OutputConfig struct {
	File string `mapstructure:"file"`
}

// StoreConfig represents run history storage. Empty path disables it.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	ReadTimeout    string   `mapstructure:"read_timeout"`
	WriteTimeout   string   `mapstructure:"write_timeout"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxBodyBytes   int64    `mapstructure:"max_body_bytes"`
	MaxRangeDays   int      `mapstructure:"max_range_days"` // longest posted period/project
}

// LogConfig represents logging configuration
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Load loads configuration from file. A missing default config file is not
// an error; an explicitly given one must exist.
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.workcal")
		v.AddConfigPath("/etc/workcal")
	}

	// WORKCAL_ENGINE_MODE overrides engine.mode, etc.
	v.SetEnvPrefix("workcal")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Calendar.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Every key needs a default so AutomaticEnv can override it on Unmarshal
	v.SetDefault("calendar.dates", []string{})
	v.SetDefault("calendar.file", "")
	v.SetDefault("calendar.country", "")
	v.SetDefault("calendar.xmlcalendar_url", "")
	v.SetDefault("calendar.years", []int{2017})
	v.SetDefault("calendar.cache_ttl", "24h")
	v.SetDefault("engine.mode", string(availability.ModePeriods))
	v.SetDefault("engine.skip_invalid_ranges", false)
	v.SetDefault("input.file", "data.json")
	v.SetDefault("output.file", "output.json")
	v.SetDefault("store.path", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.max_range_days", 3660)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
}

// applyDefaults falls back to the built-in holiday list when no calendar
// source is configured at all
func (c *CalendarConfig) applyDefaults() {
	if len(c.Dates) == 0 && c.File == "" && c.Country == "" && c.XMLCalendarURL == "" {
		c.Dates = append([]string(nil), defaultHolidays...)
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate Calendar config
	cal := c.Calendar
	if len(cal.Dates) == 0 && cal.File == "" && cal.Country == "" && cal.XMLCalendarURL == "" {
		return fmt.Errorf("calendar: at least one of dates, file, country or xmlcalendar_url is required")
	}
	for i, d := range cal.Dates {
		if _, err := dateutil.ParseDate(d); err != nil {
			return fmt.Errorf("calendar.dates[%d]: %w", i, err)
		}
	}
	if cal.Country != "" || cal.XMLCalendarURL != "" {
		if len(cal.Years) == 0 {
			return fmt.Errorf("calendar.years is required for country or xmlcalendar_url")
		}
	}
	if cal.Country != "" && !supportedCountry(cal.Country) {
		return fmt.Errorf("calendar.country must be one of %s, got '%s'",
			strings.Join(calendar.SupportedCountries(), ", "), cal.Country)
	}
	if cal.XMLCalendarURL != "" && !strings.Contains(cal.XMLCalendarURL, "{year}") {
		return fmt.Errorf("calendar.xmlcalendar_url must contain {year}")
	}
	if _, err := parseDuration(cal.CacheTTL); err != nil {
		return fmt.Errorf("calendar.cache_ttl: %w", err)
	}

	// Validate Engine config
	if _, err := availability.ParseMode(c.Engine.Mode); err != nil {
		return fmt.Errorf("engine.mode: %w", err)
	}

	// Validate Server config
	if _, err := parseDuration(c.Server.ReadTimeout); err != nil {
		return fmt.Errorf("server.read_timeout: %w", err)
	}
	if _, err := parseDuration(c.Server.WriteTimeout); err != nil {
		return fmt.Errorf("server.write_timeout: %w", err)
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("server.max_body_bytes must not be negative")
	}
	if c.Server.MaxRangeDays < 0 {
		return fmt.Errorf("server.max_range_days must not be negative")
	}

	return nil
}

// GetMode returns the validated engine mode
func (c *EngineConfig) GetMode() availability.Mode {
	mode, err := availability.ParseMode(c.Mode)
	if err != nil {
		return availability.ModePeriods
	}
	return mode
}

// GetCacheTTL returns cache TTL duration
func (c *CalendarConfig) GetCacheTTL() time.Duration {
	return durationOr(c.CacheTTL, 24*time.Hour)
}

// GetReadTimeout returns the HTTP read timeout
func (c *ServerConfig) GetReadTimeout() time.Duration {
	return durationOr(c.ReadTimeout, 15*time.Second)
}

// GetWriteTimeout returns the HTTP write timeout
func (c *ServerConfig) GetWriteTimeout() time.Duration {
	return durationOr(c.WriteTimeout, 15*time.Second)
}

func supportedCountry(country string) bool {
	for _, c := range calendar.SupportedCountries() {
		if strings.EqualFold(c, country) {
			return true
		}
	}
	return false
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	duration, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return duration
}
