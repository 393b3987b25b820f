package appconfig

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/SaiNageswarS/go-api-boot/config"
	"github.com/go-ini/ini"
)

type AppConfig struct {
	config.BootConfig `ini:",extends"`

	CatalogDatabase      string  `ini:"catalog_database"`
	OrdersDatabase       string  `ini:"orders_database"`
	RetrievalTopK        int     `ini:"retrieval_top_k"`
	MaxAutoReply         int     `ini:"max_auto_reply"`
	LLMTimeoutSeconds    int     `ini:"llm_timeout_seconds"`
	IngestTimeoutSeconds int     `ini:"ingest_timeout_seconds"`
	LLMProvider          string  `ini:"llm_provider"`
	LLMModel             string  `ini:"llm_model"`
	RateLimitPerSecond   float64 `ini:"rate_limit_per_second"`
	RateLimitBurst       int     `ini:"rate_limit_burst"`
	EnableMCP            bool    `ini:"enable_mcp"`
}

func Default() *AppConfig {
	return &AppConfig{
		CatalogDatabase:      "medicine_catalog",
		OrdersDatabase:       "HealthcareAssistant",
		RetrievalTopK:        5,
		MaxAutoReply:         10,
		LLMTimeoutSeconds:    60,
		IngestTimeoutSeconds: 300,
		LLMProvider:          "anthropic",
		LLMModel:             "claude-3-5-haiku-20241022",
		RateLimitPerSecond:   5,
		RateLimitBurst:       10,
		EnableMCP:            true,
	}
}

// Load maps the section named by $ENV (default "dev") of the ini file at path
// over the defaults. A missing file leaves the defaults in place.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	file, err := ini.LooseLoad(path)
	if err != nil {
		return nil, fmt.Errorf("appconfig: load %s: %w", path, err)
	}

	env := os.Getenv("ENV")
	if env == "" {
		env = "dev"
	}

	if err := file.Section(ini.DefaultSection).MapTo(cfg); err != nil {
		return nil, fmt.Errorf("appconfig: map default section: %w", err)
	}
	if file.HasSection(env) {
		if err := file.Section(env).MapTo(cfg); err != nil {
			return nil, fmt.Errorf("appconfig: map section %s: %w", env, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

func (c *AppConfig) IngestTimeout() time.Duration {
	return time.Duration(c.IngestTimeoutSeconds) * time.Second
}

func (c *AppConfig) validate() error {
	var errs []error
	if c.CatalogDatabase == "" {
		errs = append(errs, errors.New("appconfig: catalog_database is required"))
	}
	if c.OrdersDatabase == "" {
		errs = append(errs, errors.New("appconfig: orders_database is required"))
	}
	if c.RetrievalTopK <= 0 {
		errs = append(errs, errors.New("appconfig: retrieval_top_k must be positive"))
	}
	if c.MaxAutoReply <= 0 {
		errs = append(errs, errors.New("appconfig: max_auto_reply must be positive"))
	}
	if c.LLMTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("appconfig: llm_timeout_seconds must be positive"))
	}
	if c.IngestTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("appconfig: ingest_timeout_seconds must be positive"))
	}
	if c.RateLimitPerSecond <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("appconfig: rate limit must be positive"))
	}
	return errors.Join(errs...)
}
