// Package config resolves the runtime configuration from the environment
// (and optionally a config file) through Viper. Construction-time validation
// distinguishes configuration errors, which are fatal, from missing optional
// integrations, which merely leave a capability unbound.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Providers the model backend can be resolved from.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Session duration bounds, in minutes.
const (
	MinSessionMinutes = 2
	MaxSessionMinutes = 480
)

// ConfigurationError marks a fatal misconfiguration, as opposed to a missing
// optional integration.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// CustomRole describes a user-defined executive role.
type CustomRole struct {
	Description string `mapstructure:"description"`
	Icon        string `mapstructure:"icon"`
	Color       string `mapstructure:"color"`
}

// Business is the startup context agents discuss.
type Business struct {
	Name         string `mapstructure:"name"`
	Industry     string `mapstructure:"industry"`
	Model        string `mapstructure:"model"`
	FundingStage string `mapstructure:"funding_stage"`
	Idea         string `mapstructure:"idea"`
}

// XCredentials is the OAuth 1.0a credential set for social posting.
type XCredentials struct {
	APIKey            string `mapstructure:"api_key"`
	APISecret         string `mapstructure:"api_secret"`
	AccessToken       string `mapstructure:"access_token"`
	AccessTokenSecret string `mapstructure:"access_token_secret"`
}

// Complete reports whether every credential field is set.
func (c XCredentials) Complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.AccessTokenSecret != ""
}

// Config is the resolved runtime configuration.
type Config struct {
	Provider        string                `mapstructure:"provider"`
	ModelName       string                `mapstructure:"model_name"`
	OpenAIAPIKey    string                `mapstructure:"openai_api_key"`
	AnthropicAPIKey string                `mapstructure:"anthropic_api_key"`
	SelectedRoles   []string              `mapstructure:"selected_roles"`
	CustomRoles     map[string]CustomRole `mapstructure:"custom_roles"`
	Business        Business              `mapstructure:"business"`

	DiscordGuildID string            `mapstructure:"discord_guild_id"`
	DiscordTokens  map[string]string `mapstructure:"discord_tokens"`
	DocstoreDSN    string            `mapstructure:"docstore_dsn"`
	RedisURL       string            `mapstructure:"redis_url"`
	X              XCredentials      `mapstructure:"x"`

	SessionDurationMinutes int    `mapstructure:"session_duration_minutes"`
	ListenAddr             string `mapstructure:"listen_addr"`
	LogLevel               string `mapstructure:"log_level"`
}

// envBindings maps viper keys to their environment variables.
var envBindings = map[string]string{
	"provider":                 "MODEL_PROVIDER",
	"model_name":               "MODEL_NAME",
	"openai_api_key":           "OPENAI_API_KEY",
	"anthropic_api_key":        "ANTHROPIC_API_KEY",
	"discord_guild_id":         "DISCORD_GUILD_ID",
	"docstore_dsn":             "DOCSTORE_MYSQL_DSN",
	"redis_url":                "REDIS_URL",
	"x.api_key":                "X_API_KEY",
	"x.api_secret":             "X_API_SECRET",
	"x.access_token":           "X_ACCESS_TOKEN",
	"x.access_token_secret":    "X_ACCESS_TOKEN_SECRET",
	"session_duration_minutes": "SESSION_DURATION_MINUTES",
	"listen_addr":              "LISTEN_ADDR",
	"log_level":                "LOG_LEVEL",
	"business.name":            "BUSINESS_NAME",
	"business.industry":        "BUSINESS_INDUSTRY",
	"business.model":           "BUSINESS_MODEL",
	"business.funding_stage":   "FUNDING_STAGE",
	"business.idea":            "STARTUP_IDEA",
}

// Load resolves configuration from the given Viper instance, binding the
// environment. A nil instance gets a fresh one, which reads the environment
// only.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	v.SetDefault("provider", ProviderOpenAI)
	v.SetDefault("selected_roles", []string{"CEO", "CFO", "CTO", "CMO"})
	v.SetDefault("session_duration_minutes", 60)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", env, err)
		}
	}
	if err := v.BindEnv("exec_roles", "EXEC_ROLES"); err != nil {
		return nil, fmt.Errorf("config: bind EXEC_ROLES: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if roles := v.GetString("exec_roles"); roles != "" {
		cfg.SelectedRoles = splitRoles(roles)
	}

	if cfg.DiscordTokens == nil {
		cfg.DiscordTokens = make(map[string]string)
	}
	cfg.bindDiscordTokens(v)

	return &cfg, nil
}

// bindDiscordTokens resolves one bot token per role from the
// DISCORD_TOKEN_<ROLE> environment convention.
func (c *Config) bindDiscordTokens(v *viper.Viper) {
	roles := append([]string(nil), c.SelectedRoles...)
	for name := range c.CustomRoles {
		roles = append(roles, name)
	}
	for _, role := range roles {
		if _, ok := c.DiscordTokens[role]; ok {
			continue
		}
		key := "discord_token_" + strings.ToLower(envSuffix(role))
		if err := v.BindEnv(key, "DISCORD_TOKEN_"+envSuffix(role)); err != nil {
			continue
		}
		if token := v.GetString(key); token != "" {
			c.DiscordTokens[role] = token
		}
	}
}

// envSuffix normalizes a role name into an environment variable suffix.
func envSuffix(role string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(role) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

func splitRoles(s string) []string {
	var roles []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			roles = append(roles, part)
		}
	}
	return roles
}

// APIKey returns the key for the configured provider.
func (c *Config) APIKey() string {
	switch c.Provider {
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	default:
		return c.OpenAIAPIKey
	}
}

// Validate checks the fatal invariants: a known provider, a key for it, at
// least one role and a sane session duration.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return &ConfigurationError{Field: "provider", Reason: fmt.Sprintf("unknown provider %q", c.Provider)}
	}
	if c.APIKey() == "" {
		return &ConfigurationError{Field: c.Provider + " api key", Reason: "not set"}
	}
	if len(c.SelectedRoles) == 0 && len(c.CustomRoles) == 0 {
		return &ConfigurationError{Field: "roles", Reason: "no roles selected"}
	}
	if c.SessionDurationMinutes < MinSessionMinutes || c.SessionDurationMinutes > MaxSessionMinutes {
		return &ConfigurationError{
			Field:  "session_duration_minutes",
			Reason: fmt.Sprintf("must be between %d and %d, got %d", MinSessionMinutes, MaxSessionMinutes, c.SessionDurationMinutes),
		}
	}
	return nil
}
