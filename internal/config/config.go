package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

const (
	DefaultBotToken = "your_telegram_bot_token"
	DefaultChatID   = "your_telegram_chat_id"
)

type Config struct {
	Sites           []string      // targets, in configured order, duplicates kept
	Interval        time.Duration // sweep cadence
	NervousInterval time.Duration // recovery-watch cadence
	CronAliveSelf   string        // liveness calendar expression
	StrictDownCheck bool

	ProbeTimeout      time.Duration
	ProbeAttempts     int
	ProbeRetryBackoff time.Duration

	BotToken       string
	ChatID         string
	TelegramAPIURL string
	SlackWebhook   string // when set, replaces Telegram

	TemplateDown      string
	TemplateUp        string
	TemplateAliveSelf string

	LogDir   string // "" logs to stderr only
	LogLevel string

	StatusAddr    string // "" disables the status API
	StatusAPIKeys []string
	StatusRPM     int
	StatusBurst   int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SITES", "")
	v.SetDefault("INTERVAL", 30)
	v.SetDefault("NERVOUS_INTERVAL", 1)
	v.SetDefault("CRON_ALIVE_SELF", "0 9 * * 1")
	v.SetDefault("STRICT_DOWN_CHECK", "false")
	v.SetDefault("PROBE_TIMEOUT", "5s")
	v.SetDefault("PROBE_ATTEMPTS", 1)
	v.SetDefault("PROBE_RETRY_BACKOFF", "300ms")
	v.SetDefault("BOT_TOKEN", DefaultBotToken)
	v.SetDefault("CHAT_ID", DefaultChatID)
	v.SetDefault("TELEGRAM_API_URL", "https://api.telegram.org")
	v.SetDefault("SLACK_WEBHOOK_URL", "")
	v.SetDefault("TEMPLATE_DOWN", "🔴 {site} is down!")
	v.SetDefault("TEMPLATE_UP", "🟢 {site} is up again!")
	v.SetDefault("TEMPLATE_ALIVE_SELF", "🔵 I'm alive and well!")
	v.SetDefault("LOG_DIR", "logs")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STATUS_ADDR", "")
	v.SetDefault("STATUS_API_KEYS", "")
	v.SetDefault("STATUS_RPM", 120)
	v.SetDefault("STATUS_BURST", 60)
}

// Load reads defaults, then envFile (dotenv format, optional), then the
// process environment, which wins over the file.
func Load(envFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Sites:             SplitList(v.GetString("SITES")),
		Interval:          time.Duration(v.GetInt("INTERVAL")) * time.Minute,
		NervousInterval:   time.Duration(v.GetInt("NERVOUS_INTERVAL")) * time.Minute,
		CronAliveSelf:     strings.TrimSpace(v.GetString("CRON_ALIVE_SELF")),
		StrictDownCheck:   v.GetString("STRICT_DOWN_CHECK") == "true",
		ProbeTimeout:      v.GetDuration("PROBE_TIMEOUT"),
		ProbeAttempts:     v.GetInt("PROBE_ATTEMPTS"),
		ProbeRetryBackoff: v.GetDuration("PROBE_RETRY_BACKOFF"),
		BotToken:          v.GetString("BOT_TOKEN"),
		ChatID:            v.GetString("CHAT_ID"),
		TelegramAPIURL:    v.GetString("TELEGRAM_API_URL"),
		SlackWebhook:      v.GetString("SLACK_WEBHOOK_URL"),
		TemplateDown:      v.GetString("TEMPLATE_DOWN"),
		TemplateUp:        v.GetString("TEMPLATE_UP"),
		TemplateAliveSelf: v.GetString("TEMPLATE_ALIVE_SELF"),
		LogDir:            v.GetString("LOG_DIR"),
		LogLevel:          strings.ToLower(v.GetString("LOG_LEVEL")),
		StatusAddr:        v.GetString("STATUS_ADDR"),
		StatusAPIKeys:     SplitList(v.GetString("STATUS_API_KEYS")),
		StatusRPM:         v.GetInt("STATUS_RPM"),
		StatusBurst:       v.GetInt("STATUS_BURST"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Sites, validation.Required.Error("no sites to check")),
		validation.Field(&c.Interval, validation.Required, validation.Min(time.Minute).Error("must be at least 1 minute")),
		validation.Field(&c.NervousInterval, validation.Required, validation.Min(time.Minute).Error("must be at least 1 minute")),
		validation.Field(&c.ProbeTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.ProbeAttempts, validation.Required, validation.Min(1)),
		validation.Field(&c.ProbeRetryBackoff, validation.Min(time.Duration(0))),
		validation.Field(&c.ChatID, validation.Required),
		validation.Field(&c.TemplateDown, validation.Required),
		validation.Field(&c.TemplateUp, validation.Required),
		validation.Field(&c.TelegramAPIURL, validation.By(validateHTTPURL)),
		validation.Field(&c.SlackWebhook, validation.By(validateHTTPURL)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.StatusRPM, validation.Min(0)),
		validation.Field(&c.StatusBurst, validation.Min(0)),
	)
}

// InvalidSites lists configured targets that are not absolute http(s) URLs.
// They are still monitored, but will most likely always be reported down.
func (c *Config) InvalidSites() []string {
	var out []string
	for _, s := range c.Sites {
		if validateHTTPURL(s) != nil {
			out = append(out, s)
		}
	}
	return out
}

// UsesPlaceholderCredentials reports whether Telegram credentials were left
// at their defaults while no Slack webhook replaces them.
func (c *Config) UsesPlaceholderCredentials() bool {
	return c.SlackWebhook == "" && (c.BotToken == DefaultBotToken || c.ChatID == DefaultChatID)
}

// SplitList splits a comma-separated value, trimming entries and dropping
// empty ones. Duplicates are kept.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validateHTTPURL(value interface{}) error {
	raw, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}
	if u.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}
	return nil
}
