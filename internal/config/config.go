package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"trumpwatch/internal/countdown"
	"trumpwatch/internal/logging"
)

// EnvPrefix namespaces environment overrides, e.g. TRUMPWATCH_SOURCES_API_KEYS_FRED.
const EnvPrefix = "TRUMPWATCH"

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Term      TermConfig      `mapstructure:"term"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Baselines BaselinesConfig `mapstructure:"baselines"`
	Fallbacks FallbacksConfig `mapstructure:"fallbacks"`
	Scheduler SchedulerConfig `mapstructure:"refresh"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Digest    DigestConfig    `mapstructure:"digest"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// TermConfig is the window being counted down.
type TermConfig struct {
	Start     time.Time `mapstructure:"start"`
	End       time.Time `mapstructure:"end"`
	TotalDays int       `mapstructure:"total_days"`
}

// Window converts the config into a countdown window.
func (t TermConfig) Window() countdown.TermWindow {
	return countdown.TermWindow{Start: t.Start, End: t.End, TotalDays: t.TotalDays}
}

// SourcesConfig covers outbound data source access.
type SourcesConfig struct {
	// Timeout bounds one source, including its sequential calls.
	Timeout    time.Duration   `mapstructure:"timeout"`
	QuoteCount int             `mapstructure:"quote_count"`
	UserAgent  string          `mapstructure:"user_agent"`
	APIKeys    APIKeysConfig   `mapstructure:"api_keys"`
	Endpoints  EndpointsConfig `mapstructure:"endpoints"`
	// Disabled lists metric kinds that always resolve to their fallback.
	Disabled []string `mapstructure:"disabled"`
}

// APIKeysConfig holds per-source secrets. Prefer env or .env over the file.
type APIKeysConfig struct {
	FRED      string `mapstructure:"fred"`
	EIA       string `mapstructure:"eia"`
	Metals    string `mapstructure:"metals"`
	CoinGecko string `mapstructure:"coingecko"`
}

// EndpointsConfig overrides source base URLs.
type EndpointsConfig struct {
	Treasury        string `mapstructure:"treasury"`
	FRED            string `mapstructure:"fred"`
	EIA             string `mapstructure:"eia"`
	CoinGecko       string `mapstructure:"coingecko"`
	Metals          string `mapstructure:"metals"`
	FederalRegister string `mapstructure:"federal_register"`
	Quotes          string `mapstructure:"quotes"`
	TruthSocial     string `mapstructure:"truth_social"`
}

// BaselinesConfig are the term-start reference values.
type BaselinesConfig struct {
	Debt    float64 `mapstructure:"debt"`
	Gas     float64 `mapstructure:"gas"`
	Bitcoin float64 `mapstructure:"bitcoin"`
	Gold    float64 `mapstructure:"gold"`
}

// FallbacksConfig are the values substituted when a source fails.
type FallbacksConfig struct {
	Debt            float64       `mapstructure:"debt"`
	Gas             float64       `mapstructure:"gas"`
	SP500           float64       `mapstructure:"sp500"`
	Unemployment    float64       `mapstructure:"unemployment"`
	Inflation       float64       `mapstructure:"inflation"`
	Bitcoin         float64       `mapstructure:"bitcoin"`
	Gold            float64       `mapstructure:"gold"`
	Oil             float64       `mapstructure:"oil"`
	ExecutiveOrders int64         `mapstructure:"executive_orders"`
	Quote           QuoteFallback `mapstructure:"quote"`
	Post            PostFallback  `mapstructure:"post"`
}

// QuoteFallback is shown for every quote slot that failed.
type QuoteFallback struct {
	Text       string    `mapstructure:"text"`
	AppearedAt time.Time `mapstructure:"appeared_at"`
}

// PostFallback is shown when the post feed is unavailable.
type PostFallback struct {
	Content string `mapstructure:"content"`
	URL     string `mapstructure:"url"`
}

// SchedulerConfig governs refresh cadence.
type SchedulerConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	AlignToBucket bool          `mapstructure:"align"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
}

// HTTPConfig controls the JSON API.
type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// DigestConfig controls the once-per-day summary message.
type DigestConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 推送参数。
type TelegramConfig struct {
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	APIBase  string        `mapstructure:"api_base"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	term := countdown.DefaultTerm()

	v.SetDefault("app.name", "trumpwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("term.start", term.Start.Format(time.RFC3339))
	v.SetDefault("term.end", term.End.Format(time.RFC3339))
	v.SetDefault("term.total_days", term.TotalDays)

	v.SetDefault("sources.timeout", "8s")
	v.SetDefault("sources.quote_count", 7)
	v.SetDefault("sources.api_keys.fred", "")
	v.SetDefault("sources.api_keys.eia", "DEMO_KEY")
	v.SetDefault("sources.api_keys.metals", "demo")
	v.SetDefault("sources.api_keys.coingecko", "")
	v.SetDefault("sources.disabled", []string{})
	for _, key := range []string{"treasury", "fred", "eia", "coingecko", "metals", "federal_register", "quotes", "truth_social"} {
		v.SetDefault("sources.endpoints."+key, "")
	}

	v.SetDefault("baselines.debt", 36218605000000.0)
	v.SetDefault("baselines.gas", 3.08)
	v.SetDefault("baselines.bitcoin", 101000.0)
	v.SetDefault("baselines.gold", 2750.0)

	v.SetDefault("fallbacks.debt", 36500000000000.0)
	v.SetDefault("fallbacks.gas", 2.95)
	v.SetDefault("fallbacks.sp500", 5950.0)
	v.SetDefault("fallbacks.unemployment", 4.1)
	v.SetDefault("fallbacks.inflation", 2.9)
	v.SetDefault("fallbacks.bitcoin", 100000.0)
	v.SetDefault("fallbacks.gold", 2650.0)
	v.SetDefault("fallbacks.oil", 72.0)
	v.SetDefault("fallbacks.executive_orders", 0)
	v.SetDefault("fallbacks.quote.text", "I will fight for you with every breath in my body.")
	v.SetDefault("fallbacks.quote.appeared_at", "2017-01-20T12:00:00-05:00")
	v.SetDefault("fallbacks.post.content", "Post feed unavailable.")
	v.SetDefault("fallbacks.post.url", "")

	v.SetDefault("refresh.interval", "15m")
	v.SetDefault("refresh.align", true)
	v.SetDefault("refresh.startup_delay", "0s")

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.addr", ":8080")

	v.SetDefault("digest.enabled", false)
	v.SetDefault("digest.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("digest.telegram.timeout", "10s")
	v.SetDefault("digest.telegram.bot_token", "")
	v.SetDefault("digest.telegram.chat_id", "")

	v.SetDefault("export.width", 800)
	v.SetDefault("export.height", 400)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if err := c.Term.Window().Validate(); err != nil {
		return fmt.Errorf("term: %w", err)
	}
	if c.Sources.Timeout <= 0 {
		return fmt.Errorf("sources.timeout must be greater than zero")
	}
	if c.Sources.QuoteCount < 0 {
		return fmt.Errorf("sources.quote_count cannot be negative")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be greater than zero")
	}
	if c.Scheduler.StartupDelay < 0 {
		return fmt.Errorf("refresh.startup_delay cannot be negative")
	}
	if c.HTTP.Enabled && c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr must be set when http is enabled")
	}
	if c.Export.Width <= 0 || c.Export.Height <= 0 {
		return fmt.Errorf("export.width and export.height must be greater than zero")
	}
	if c.Digest.Enabled {
		if c.Digest.Telegram.BotToken == "" {
			return fmt.Errorf("digest.telegram.bot_token 必须配置")
		}
		if c.Digest.Telegram.ChatID == "" {
			return fmt.Errorf("digest.telegram.chat_id 必须配置")
		}
	}
	return nil
}

// Decimal converts a configured float into the decimal used by readings.
func Decimal(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}
