package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type SourceConfig struct {
	ID       string        `yaml:"id" validate:"required"`
	Name     string        `yaml:"name"`
	URL      string        `yaml:"url" validate:"required,url"`
	Parser   string        `yaml:"parser" validate:"oneof=rss json forexfactory yahoo"`
	Timeout  time.Duration `yaml:"timeout"`
	MaxItems int           `yaml:"max_items" validate:"gte=0"`
	Disabled bool          `yaml:"disabled"`
}

type SymbolConfig struct {
	Symbol string `yaml:"symbol" validate:"required"`
	Ticker string `yaml:"ticker" validate:"required"`
}

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Log         struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"3000" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout"` // 0 keeps streaming responses open
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		DisableCORS     bool          `yaml:"disable_cors"`
		RateLimit       struct {
			Capacity     float64 `yaml:"capacity" default:"30" validate:"gte=0"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"10" validate:"gte=0"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Metrics struct {
		Disabled bool   `yaml:"disabled"`
		Path     string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Fetch struct {
		UserAgent      string        `yaml:"user_agent" default:"Mozilla/5.0 ForexPulse"`
		Timeout        time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes" default:"5242880" validate:"gt=0"`
		RatePerMinute  float64       `yaml:"rate_per_minute" default:"30" validate:"gte=0"`
		Burst          int           `yaml:"burst" default:"2" validate:"gte=1"`
		CycleGrace     time.Duration `yaml:"cycle_grace" default:"2s"`
		BreakerTimeout time.Duration `yaml:"breaker_timeout" default:"60s"`
		BreakerTrips   uint32        `yaml:"breaker_trips" default:"3" validate:"gte=1"`
	} `yaml:"fetch"`
	News struct {
		Interval time.Duration  `yaml:"interval" default:"3m" validate:"gt=0"`
		Stale    time.Duration  `yaml:"stale_after" default:"6m"`
		Limit    int            `yaml:"limit" default:"20" validate:"gte=1"`
		MaxItems int            `yaml:"max_items" default:"8" validate:"gte=1"`
		Sources  []SourceConfig `yaml:"sources" validate:"dive"`
	} `yaml:"news"`
	Calendar struct {
		Interval time.Duration  `yaml:"interval" default:"5m" validate:"gt=0"`
		Stale    time.Duration  `yaml:"stale_after" default:"10m"`
		Sources  []SourceConfig `yaml:"sources" validate:"dive"`
	} `yaml:"calendar"`
	Quotes struct {
		Interval time.Duration  `yaml:"interval" default:"30s" validate:"gt=0"`
		Stale    time.Duration  `yaml:"stale_after" default:"90s"`
		Window   int            `yaml:"window" default:"100" validate:"gte=50"`
		URL      string         `yaml:"url" default:"https://query1.finance.yahoo.com/v8/finance/chart/{ticker}?range=30d&interval=1h"`
		Symbols  []SymbolConfig `yaml:"symbols" validate:"dive"`
	} `yaml:"quotes"`
	Signals struct {
		Strategy    string  `yaml:"strategy" default:"momentum" validate:"oneof=momentum session"`
		Lookback    int     `yaml:"lookback" default:"6" validate:"gte=1"`
		EntryPct    float64 `yaml:"entry_pct" default:"0.002" validate:"gt=0"`
		TargetPct   float64 `yaml:"target_pct" default:"0.006" validate:"gt=0"`
		ScoreScale  float64 `yaml:"score_scale" default:"100" validate:"gt=0"`
		RangeEpsPct float64 `yaml:"range_eps_pct" default:"0" validate:"gte=0"`
	} `yaml:"signals"`
	Stream struct {
		Interval  time.Duration `yaml:"interval" default:"5m" validate:"gt=0"`
		TopK      int           `yaml:"top_k" default:"5" validate:"gte=1"`
		Heartbeat time.Duration `yaml:"heartbeat" default:"30s"`
	} `yaml:"stream"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Prefix   string        `yaml:"prefix" default:"forexpulse:"`
		TTL      time.Duration `yaml:"ttl" default:"1h"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"forexpulse.snapshots"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"10"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"forexpulse"`
		Table            string        `yaml:"table" default:"quotes"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
}

var validate = validator.New()

// Default returns a config populated only from struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	c.applySourceDefaults()
	return &c, nil
}

// Parse decodes YAML, fills defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	c.applySourceDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default()
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = p
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("SIGNALS_STRATEGY"); v != "" {
		c.Signals.Strategy = strings.ToLower(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	if !strings.Contains(c.Quotes.URL, "{ticker}") {
		return fmt.Errorf("quotes.url must contain {ticker}")
	}
	seen := map[string]bool{}
	for _, list := range [][]SourceConfig{c.News.Sources, c.Calendar.Sources} {
		for _, s := range list {
			if seen[s.ID] {
				return fmt.Errorf("duplicate source id %q", s.ID)
			}
			seen[s.ID] = true
		}
	}
	return nil
}

func (c *Config) applySourceDefaults() {
	if len(c.News.Sources) == 0 {
		c.News.Sources = DefaultNewsSources()
	}
	if len(c.Calendar.Sources) == 0 {
		c.Calendar.Sources = DefaultCalendarSources()
	}
	if len(c.Quotes.Symbols) == 0 {
		c.Quotes.Symbols = DefaultSymbols()
	}
	for i := range c.News.Sources {
		fillSource(&c.News.Sources[i], c.Fetch.Timeout, ParserDefaultNews)
	}
	for i := range c.Calendar.Sources {
		fillSource(&c.Calendar.Sources[i], c.Fetch.Timeout, ParserDefaultCalendar)
	}
}

const (
	ParserDefaultNews     = "rss"
	ParserDefaultCalendar = "forexfactory"
)

func fillSource(s *SourceConfig, timeout time.Duration, parser string) {
	if s.Name == "" {
		s.Name = s.ID
	}
	if s.Timeout <= 0 {
		s.Timeout = timeout
	}
	if s.Parser == "" {
		s.Parser = parser
	}
}

func DefaultNewsSources() []SourceConfig {
	return []SourceConfig{
		{ID: "fxstreet", Name: "FXStreet", URL: "https://www.fxstreet.com/rss/news", Parser: "rss"},
		{ID: "investing", Name: "Investing", URL: "https://www.investing.com/rss/news_1.rss", Parser: "rss"},
		{ID: "forexlive", Name: "ForexLive", URL: "https://rss.forexlive.com/", Parser: "rss"},
		{ID: "babypips", Name: "BabyPips", URL: "https://babypips.com/feed.rss", Parser: "rss"},
	}
}

func DefaultCalendarSources() []SourceConfig {
	return []SourceConfig{
		{ID: "forexfactory", Name: "ForexFactory", URL: "https://nfs.faireconomy.media/ff_calendar_thisweek.json", Parser: "forexfactory"},
	}
}

func DefaultSymbols() []SymbolConfig {
	return []SymbolConfig{
		{Symbol: "EURUSD", Ticker: "EURUSD=X"},
		{Symbol: "GBPUSD", Ticker: "GBPUSD=X"},
		{Symbol: "BTCUSD", Ticker: "BTC-USD"},
	}
}
