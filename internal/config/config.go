package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	env "github.com/netflix/go-env"
)

const (
	BackendSimulated = "simulated"
	BackendFastGPT   = "fastgpt"
)

type Config struct {
	APIPort       string `env:"API_PORT,default=8080"`
	LogLevel      string `env:"LOG_LEVEL,default=info"`
	MessageLocale string `env:"MESSAGE_LOCALE,default=zh-CN"`

	MaxQueryLength       int `env:"MAX_QUERY_LENGTH,default=1000"`
	RateLimitMaxRequests int `env:"RATE_LIMIT_MAX_REQUESTS,default=10"`
	RateLimitWindowMS    int `env:"RATE_LIMIT_WINDOW_MS,default=60000"`
	NoticeTTLMS          int `env:"NOTICE_TTL_MS,default=3000"`

	AnswerBackend     string `env:"ANSWER_BACKEND,default=simulated"`
	FastGPTAPIURL     string `env:"FASTGPT_API_URL,default=https://api.fastgpt.cn/api/v1/chat/completions"`
	FastGPTAPIKey     string `env:"FASTGPT_API_KEY"`
	RequestTimeoutMS  int    `env:"REQUEST_TIMEOUT_MS,default=30000"`
	SimulatedDelayMS  int    `env:"SIMULATED_DELAY_MS,default=1500"`
	SimulatedJitterMS int    `env:"SIMULATED_JITTER_MS,default=1000"`

	FastGPTRetryMaxAttempts int  `env:"FASTGPT_RETRY_MAX_ATTEMPTS,default=2"`
	FastGPTBreakerEnabled   bool `env:"FASTGPT_BREAKER_ENABLED,default=true"`

	APIRateLimitRPS   int `env:"API_RATE_LIMIT_RPS,default=20"`
	APIRateLimitBurst int `env:"API_RATE_LIMIT_BURST,default=40"`
	APIMaxInFlight    int `env:"API_MAX_IN_FLIGHT,default=64"`
	APIQueueWaitMS    int `env:"API_QUEUE_WAIT_MS,default=250"`
	SessionIdleTTLMS  int `env:"SESSION_IDLE_TTL_MS,default=1800000"`

	NATSURL           string `env:"NATS_URL"`
	NATSSubject       string `env:"NATS_SUBJECT,default=medq.queries"`
	WorkerMetricsPort string `env:"WORKER_METRICS_PORT,default=9090"`
}

// Load reads optional dotenv files (".env" when none are given) and then
// decodes the process environment. Variables already set in the
// environment win over dotenv values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment variables: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.AnswerBackend = strings.ToLower(strings.TrimSpace(c.AnswerBackend))
	switch c.AnswerBackend {
	case "":
		c.AnswerBackend = BackendSimulated
	case BackendSimulated, BackendFastGPT:
	default:
		return fmt.Errorf("unsupported ANSWER_BACKEND %q (want %s or %s)", c.AnswerBackend, BackendSimulated, BackendFastGPT)
	}

	if c.MaxQueryLength < 1 {
		c.MaxQueryLength = 1000
	}
	if c.RateLimitMaxRequests < 1 {
		c.RateLimitMaxRequests = 10
	}
	if c.RateLimitWindowMS < 1 {
		c.RateLimitWindowMS = 60000
	}
	if c.NoticeTTLMS < 1 {
		c.NoticeTTLMS = 3000
	}
	if c.RequestTimeoutMS < 1 {
		c.RequestTimeoutMS = 30000
	}
	if c.SimulatedDelayMS < 0 {
		c.SimulatedDelayMS = 0
	}
	if c.SimulatedJitterMS < 0 {
		c.SimulatedJitterMS = 0
	}
	if c.FastGPTRetryMaxAttempts < 1 {
		c.FastGPTRetryMaxAttempts = 1
	}
	if c.FastGPTRetryMaxAttempts > 5 {
		c.FastGPTRetryMaxAttempts = 5
	}
	if c.APIRateLimitBurst < c.APIRateLimitRPS {
		c.APIRateLimitBurst = c.APIRateLimitRPS
	}
	if c.APIMaxInFlight < 0 {
		c.APIMaxInFlight = 0
	}
	if c.SessionIdleTTLMS < 1 {
		c.SessionIdleTTLMS = 1800000
	}
	return nil
}

func (c Config) RateLimitWindow() time.Duration { return ms(c.RateLimitWindowMS) }
func (c Config) NoticeTTL() time.Duration       { return ms(c.NoticeTTLMS) }
func (c Config) RequestTimeout() time.Duration  { return ms(c.RequestTimeoutMS) }
func (c Config) SimulatedDelay() time.Duration  { return ms(c.SimulatedDelayMS) }
func (c Config) SimulatedJitter() time.Duration { return ms(c.SimulatedJitterMS) }
func (c Config) APIQueueWait() time.Duration    { return ms(c.APIQueueWaitMS) }
func (c Config) SessionIdleTTL() time.Duration  { return ms(c.SessionIdleTTLMS) }

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
