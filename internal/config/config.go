package config

import (
	"fmt"

	"github.com/spf13/viper"
)

const defaultRealtimeURL = "wss://api.openai.com/v1/realtime?model=gpt-realtime-mini"

const defaultSystemPrompt = "You are a helpful and friendly AI assistant answering a phone call. " +
	"Keep your responses short and conversational, this is a live voice call."

type Config struct {
	Mode         string `mapstructure:"mode"`
	Port         int    `mapstructure:"port"`
	PublicHost   string `mapstructure:"public_host"`
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
	RealtimeURL  string `mapstructure:"realtime_url"`
	Voice        string `mapstructure:"voice"`
	SystemPrompt string `mapstructure:"system_prompt"`
	Greeting     string `mapstructure:"greeting"`
	GreetingRole string `mapstructure:"greeting_role"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("config/config.yaml")
	v.AddConfigPath(".")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("public_host", "localhost:8080")
	v.SetDefault("realtime_url", defaultRealtimeURL)
	v.SetDefault("voice", "alloy")
	v.SetDefault("system_prompt", defaultSystemPrompt)
	v.SetDefault("greeting", "")
	v.SetDefault("greeting_role", "user")

	// Env wins over the optional config file.
	v.AutomaticEnv()
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("public_host", "PUBLIC_HOST")

	// Config file is optional; defaults plus env are enough to run.
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// HasCredential reports whether the AI service can be dialed at all.
// Without it every telephony socket is closed on connect with a logged
// reason.
func (c *Config) HasCredential() bool {
	return c.OpenAIAPIKey != ""
}
