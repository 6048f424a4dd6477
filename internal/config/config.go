package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port       int              `json:"port"`
	LogConfig  logger.LogConfig `json:"log_config"`
	Database   DatabaseConfig   `json:"database"`
	Embedding  EmbeddingConfig  `json:"embedding"`
	Generation GenerationConfig `json:"generation"`
	Retrieval  RetrievalConfig  `json:"retrieval"`
	Evaluation EvaluationConfig `json:"evaluation"`
	CORSAllow  []string         `json:"cors_allow"`
	// RateLimitSeconds is the minimum interval between generation requests
	// per client. Zero disables limiting.
	RateLimitSeconds int `json:"rate_limit_seconds"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type EmbeddingConfig struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Dim      int         `json:"dim"`
	Data     interface{} `json:"data"`
}

type GenerationConfig struct {
	Provider         string      `json:"provider"`
	Model            string      `json:"model"`
	JudgeModel       string      `json:"judge_model"`
	MaxTokens        int64       `json:"max_tokens"`
	InsightMaxTokens int64       `json:"insight_max_tokens"`
	TimeoutSeconds   int         `json:"timeout_seconds"`
	Data             interface{} `json:"data"`
}

type RetrievalConfig struct {
	TopK int `json:"top_k"`
}

type EvaluationConfig struct {
	CronSpec        string            `json:"cron_spec"`
	WindowHours     int               `json:"window_hours"`
	JudgeSampleSize int               `json:"judge_sample_size"`
	SlackWebhookURL string            `json:"slack_webhook_url"`
	ReportStore     ReportStoreConfig `json:"report_store"`
}

type ReportStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.Embedding.Provider == "" {
		return nil, fmt.Errorf("embedding.provider is required")
	}
	if cfg.Generation.Provider == "" {
		return nil, fmt.Errorf("generation.provider is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-004"
	}
	if cfg.Embedding.Dim == 0 {
		cfg.Embedding.Dim = 768
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = 4096
	}
	if cfg.Generation.InsightMaxTokens == 0 {
		cfg.Generation.InsightMaxTokens = 1024
	}
	if cfg.Generation.TimeoutSeconds == 0 {
		cfg.Generation.TimeoutSeconds = 120
	}
	if cfg.Generation.JudgeModel == "" {
		cfg.Generation.JudgeModel = cfg.Generation.Model
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Evaluation.CronSpec == "" {
		cfg.Evaluation.CronSpec = "0 2 * * *"
	}
	if cfg.Evaluation.WindowHours == 0 {
		cfg.Evaluation.WindowHours = 24
	}
	if cfg.Evaluation.JudgeSampleSize == 0 {
		cfg.Evaluation.JudgeSampleSize = 20
	}
	if cfg.Evaluation.ReportStore.Type == "" {
		cfg.Evaluation.ReportStore.Type = "local"
		cfg.Evaluation.ReportStore.Data = map[string]interface{}{"dir": "./reports"}
	}
	return &cfg, nil
}
