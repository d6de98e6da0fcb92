package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Model struct {
		APIKey string `yaml:"api_key"`
		// Name defaults to gpt-4o.
		Name string `yaml:"name"`
		// Temperature defaults to 0.7, TopP to 0.9.
		Temperature float32 `yaml:"temperature"`
		TopP        float32 `yaml:"top_p"`
		// Token ceilings default to 4000 (questions), 8000 (explanations),
		// 4000 (gap analysis).
		QuestionMaxTokens    int `yaml:"question_max_tokens"`
		ExplanationMaxTokens int `yaml:"explanation_max_tokens"`
		GapMaxTokens         int `yaml:"gap_max_tokens"`
	} `yaml:"model"`
	Quiz struct {
		// DefaultTopic defaults to "General", DefaultQuestionCount to 5.
		DefaultTopic         string `yaml:"default_topic"`
		DefaultQuestionCount int    `yaml:"default_question_count"`
	} `yaml:"quiz"`
	Keys struct {
		// Key prefixes default to quiz, question and messages.
		QuizPrefix     string `yaml:"quiz_prefix"`
		QuestionPrefix string `yaml:"question_prefix"`
		MessagePrefix  string `yaml:"message_prefix"`
	} `yaml:"keys"`
	CertCache struct {
		// TTL defaults to 1h.
		TTL string `yaml:"ttl"`
	} `yaml:"cert_cache"`
}

// Load reads YAML config from path and applies defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns a config with every default applied and nothing else set.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Model.Name == "" {
		c.Model.Name = "gpt-4o"
	}
	if c.Model.Temperature == 0 {
		c.Model.Temperature = 0.7
	}
	if c.Model.TopP == 0 {
		c.Model.TopP = 0.9
	}
	if c.Model.QuestionMaxTokens == 0 {
		c.Model.QuestionMaxTokens = 4000
	}
	if c.Model.ExplanationMaxTokens == 0 {
		c.Model.ExplanationMaxTokens = 8000
	}
	if c.Model.GapMaxTokens == 0 {
		c.Model.GapMaxTokens = 4000
	}
	if c.Quiz.DefaultTopic == "" {
		c.Quiz.DefaultTopic = "General"
	}
	if c.Quiz.DefaultQuestionCount == 0 {
		c.Quiz.DefaultQuestionCount = 5
	}
	if c.Keys.QuizPrefix == "" {
		c.Keys.QuizPrefix = "quiz"
	}
	if c.Keys.QuestionPrefix == "" {
		c.Keys.QuestionPrefix = "question"
	}
	if c.Keys.MessagePrefix == "" {
		c.Keys.MessagePrefix = "messages"
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
