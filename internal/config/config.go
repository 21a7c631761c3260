package config

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// RedisConfig holds redis connection settings for the raw post store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PostgresConfig holds the snapshot/registry database settings.
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int    `mapstructure:"max_conns"`
}

// LLMConfig selects and configures the summarization provider. Provider is
// one of "openai", "deepseek", "gemini"; selection happens once at startup.
type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	BaseURL  string `mapstructure:"base_url"` // optional, provider-dependent
	Timeout  string `mapstructure:"timeout"`  // duration string, e.g., "45s"
}

// AnalysisConfig bounds the insight pipeline.
type AnalysisConfig struct {
	MaxWindow     string  `mapstructure:"max_window"`      // longest allowed report window, e.g., "168h"
	DefaultHours  int     `mapstructure:"default_hours"`   // live/trigger window when unspecified
	MaxPosts      int     `mapstructure:"max_posts"`       // cap on posts fed to the analyzers
	TopTopics     int     `mapstructure:"top_topics"`      // fallback extractor topic count
	ExcerptRunes  int     `mapstructure:"excerpt_runes"`   // per-post prompt truncation
	EdgeWeightCap float64 `mapstructure:"edge_weight_cap"` // upper bound for aggregated edge weights
}

// ScheduleConfig defines one periodic snapshot builder.
type ScheduleConfig struct {
	LineID    string `mapstructure:"line_id"`
	Frequency string `mapstructure:"frequency"` // daily or weekly
	Hours     int    `mapstructure:"hours"`     // window size per run
	Interval  string `mapstructure:"interval"`  // evaluation interval, e.g., "30m"
}

// Config is the top-level configuration structure.
type Config struct {
	App       AppConfig        `mapstructure:"app"`
	HTTP      HTTPConfig       `mapstructure:"http"`
	Redis     RedisConfig      `mapstructure:"redis"`
	Postgres  PostgresConfig   `mapstructure:"postgres"`
	LLM       LLMConfig        `mapstructure:"llm"`
	Analysis  AnalysisConfig   `mapstructure:"analysis"`
	Schedules []ScheduleConfig `mapstructure:"schedules"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Postgres.DSN == "" {
		c.Postgres.DSN = "postgres://localhost:5432/twitter_insights?sslmode=disable"
	}
	if c.Postgres.MaxConns == 0 {
		c.Postgres.MaxConns = 10
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case "deepseek":
			c.LLM.Model = "deepseek-chat"
		case "gemini":
			c.LLM.Model = "gemini-pro"
		default:
			c.LLM.Model = "gpt-4o-mini"
		}
	}
	if c.LLM.BaseURL == "" && c.LLM.Provider == "deepseek" {
		c.LLM.BaseURL = "https://api.deepseek.com/v1"
	}
	if c.LLM.Timeout == "" {
		c.LLM.Timeout = "45s"
	}
	if c.Analysis.MaxWindow == "" {
		c.Analysis.MaxWindow = "168h"
	}
	if c.Analysis.DefaultHours == 0 {
		c.Analysis.DefaultHours = 24
	}
	if c.Analysis.MaxPosts == 0 {
		c.Analysis.MaxPosts = 500
	}
	if c.Analysis.TopTopics == 0 {
		c.Analysis.TopTopics = 5
	}
	if c.Analysis.ExcerptRunes == 0 {
		c.Analysis.ExcerptRunes = 280
	}
	if c.Analysis.EdgeWeightCap == 0 {
		c.Analysis.EdgeWeightCap = 10.0
	}
	for i := range c.Schedules {
		s := &c.Schedules[i]
		if s.Frequency == "" {
			s.Frequency = "daily"
		}
		if s.Hours == 0 {
			s.Hours = 24
		}
		if s.Interval == "" {
			s.Interval = "30m"
		}
	}
}
