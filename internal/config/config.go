package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haytac/emoticon-bot/internal/logging"
	"github.com/spf13/viper"
)

// ProxyConfig describes an optional outbound proxy for Telegram and LLM traffic.
type ProxyConfig struct {
	Type     string `mapstructure:"type"` // http, https, socks5
	Address  string `mapstructure:"address"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Enabled reports whether a proxy address is configured.
func (p ProxyConfig) Enabled() bool {
	return p.Address != ""
}

// TelegramConfig holds the Telegram transport settings.
type TelegramConfig struct {
	Token          string      `mapstructure:"token"`
	PollTimeout    int         `mapstructure:"poll_timeout_seconds"`
	Proxy          ProxyConfig `mapstructure:"proxy"`
	AllowedChatIDs []int64     `mapstructure:"allowed_chat_ids"`
}

// LLMConfig holds the chat model settings.
type LLMConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Model          string  `mapstructure:"model"`
	Temperature    float32 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// Timeout returns the per-request timeout.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AppConfig holds the application configuration.
type AppConfig struct {
	ImagesDir             string         `mapstructure:"images_dir"`
	SettingsPath          string         `mapstructure:"settings_path"`
	MarkerSyntax          string         `mapstructure:"marker_syntax"`
	SingleEmoticon        bool           `mapstructure:"single_emoticon"`
	ResponsePolicy        string         `mapstructure:"response_policy"`
	RepairPolicy          string         `mapstructure:"repair_policy"`
	PromptTemplate        string         `mapstructure:"prompt_template"`
	SystemPrompt          string         `mapstructure:"system_prompt"`
	HistoryTurns          int            `mapstructure:"history_turns"`
	RenderEmojiShortcodes bool           `mapstructure:"render_emoji_shortcodes"`
	RescanIntervalSeconds int            `mapstructure:"rescan_interval_seconds"`
	HistoryRetentionDays  int            `mapstructure:"history_retention_days"`
	MaxConcurrentChats    int            `mapstructure:"max_concurrent_chats"`
	DatabasePath          string         `mapstructure:"database_path"`
	MetricsPort           string         `mapstructure:"metrics_port"`
	Log                   logging.Config `mapstructure:"log"`
	Telegram              TelegramConfig `mapstructure:"telegram"`
	LLM                   LLMConfig      `mapstructure:"llm"`
	DryRun                bool           // Not from config file, set by flag
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("images_dir", "./images")
	v.SetDefault("settings_path", "./emoticons.json")
	v.SetDefault("marker_syntax", "percent")
	v.SetDefault("single_emoticon", true)
	v.SetDefault("response_policy", "first")
	v.SetDefault("repair_policy", "memory")
	v.SetDefault("prompt_template", "")
	v.SetDefault("system_prompt", "You are a friendly chat companion.")
	v.SetDefault("history_turns", 6)
	v.SetDefault("render_emoji_shortcodes", false)
	v.SetDefault("rescan_interval_seconds", 0)
	v.SetDefault("history_retention_days", 30)
	v.SetDefault("max_concurrent_chats", 8)
	v.SetDefault("database_path", "./emoticon_bot.db")
	v.SetDefault("metrics_port", ":9090")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("log.time_format", time.RFC3339)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.poll_timeout_seconds", 60)
	v.SetDefault("telegram.proxy.type", "http")
	v.SetDefault("telegram.proxy.address", "")
	v.SetDefault("telegram.proxy.username", "")
	v.SetDefault("telegram.proxy.password", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout_seconds", 120)
}

// configSearchDirs are searched in order when no --config path is given.
func configSearchDirs() []string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".emoticon-bot"))
	}
	return append(dirs, "/etc/emoticon-bot")
}

// findConfigFile returns the first config.yaml or config.yml found. Only YAML names are
// matched, so a JSON file called config next to it (such as an emoticon settings file)
// is never picked up.
func findConfigFile() string {
	for _, dir := range configSearchDirs() {
		for _, name := range []string{"config.yaml", "config.yml"} {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*AppConfig, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix("EMOTICON_BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
