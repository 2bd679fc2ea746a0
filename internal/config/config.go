// Package config provides configuration for the director.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Registry backends.
const (
	RegistryRedis = "redis"
	RegistryFile  = "file"
)

// LLM providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Context policies applied after a failed pipeline step.
const (
	ContextRetain = "retain"
	ContextReset  = "reset"
)

// Config holds the director configuration.
type Config struct {
	// Server settings
	HTTPPort        int
	AgentServerPort int

	// Job ledger
	DatabaseURL string

	// Agent registry
	RegistryBackend string
	RedisURL        string
	RegistryFile    string

	// Generative backend
	LLMProvider   string
	GoogleAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Remote agents
	AgentServerURL  string
	AgentRateLimit  float64
	AgentRateBurst  int
	RegistryRefresh time.Duration

	// Pipeline
	AgentTimeout     time.Duration
	PlannerTimeout   time.Duration
	StepDelay        time.Duration
	ContextOnFailure string

	// Plan policy, zero means unlimited
	MaxPlanSteps int
	MaxPlanCost  float64

	ScraperHealthURL string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load loads configuration from a .env file, if present, and the environment.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:         getEnvInt("HTTP_PORT", 3000),
		AgentServerPort:  getEnvInt("AGENT_SERVER_PORT", 3001),
		DatabaseURL:      getEnv("DATABASE_URL", "file:director.db?cache=shared&mode=rwc"),
		RegistryBackend:  strings.ToLower(getEnv("REGISTRY_BACKEND", RegistryRedis)),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RegistryFile:     getEnv("REGISTRY_FILE", ""),
		LLMProvider:      strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		GoogleAPIKey:     getEnv("GOOGLE_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AgentServerURL:   getEnv("AGENT_SERVER_URL", ""),
		AgentRateLimit:   getEnvFloat("AGENT_RATE_LIMIT", 0),
		AgentRateBurst:   getEnvInt("AGENT_RATE_BURST", 1),
		RegistryRefresh:  time.Duration(getEnvInt("AGENT_SERVER_REFRESH_MS", 30000)) * time.Millisecond,
		AgentTimeout:     time.Duration(getEnvInt("AGENT_TIMEOUT_MS", 120000)) * time.Millisecond,
		PlannerTimeout:   time.Duration(getEnvInt("PLANNER_TIMEOUT_MS", 60000)) * time.Millisecond,
		StepDelay:        time.Duration(getEnvInt("STEP_DELAY_MS", 500)) * time.Millisecond,
		ContextOnFailure: strings.ToLower(getEnv("PIPELINE_CONTEXT_ON_FAILURE", ContextRetain)),
		MaxPlanSteps:     getEnvInt("MAX_PLAN_STEPS", 0),
		MaxPlanCost:      getEnvFloat("MAX_PLAN_COST", 0),
		ScraperHealthURL: getEnv("SCRAPER_HEALTH_URL", "https://httpbin.org/html"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
	}
	return cfg
}

// Validate rejects configurations the director cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.RegistryBackend {
	case RegistryRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis registry"))
		}
	case RegistryFile:
		// an empty REGISTRY_FILE serves the built-in catalogue
	default:
		errs = append(errs, fmt.Errorf("unknown REGISTRY_BACKEND %q", c.RegistryBackend))
	}
	switch c.LLMProvider {
	case ProviderGemini, ProviderOpenAI, ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	switch c.ContextOnFailure {
	case ContextRetain, ContextReset:
	default:
		errs = append(errs, fmt.Errorf("PIPELINE_CONTEXT_ON_FAILURE must be %q or %q", ContextRetain, ContextReset))
	}
	if c.StepDelay < 0 {
		errs = append(errs, errors.New("STEP_DELAY_MS must not be negative"))
	}
	if c.RegistryRefresh < 0 {
		errs = append(errs, errors.New("AGENT_SERVER_REFRESH_MS must not be negative"))
	}
	if c.AgentTimeout <= 0 || c.PlannerTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if c.MaxPlanSteps < 0 || c.MaxPlanCost < 0 {
		errs = append(errs, errors.New("plan limits must not be negative"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
