package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string
	// DatabaseConnectTimeout bounds the startup ping retries.
	DatabaseConnectTimeout time.Duration
	LLM                    LLMConfig
	Interview              InterviewConfig
	Cache                  CacheConfig
	Artifact               ArtifactConfig
	CORS                   CORSConfig
}

type LLMConfig struct {
	// Provider is "gemini" or "fake".
	Provider          string
	APIKey            string
	Model             string
	RequestsPerMinute int
}

type InterviewConfig struct {
	TurnLimit      int
	QuestionCount  int
	IdleTTL        time.Duration
	MaxResumeBytes int64
}

type CacheConfig struct {
	SessionEntries int
	ResumeEntries  int
}

type ArtifactConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

// CanUseS3 reports whether enough settings exist to build an S3 store.
func (a ArtifactConfig) CanUseS3() bool {
	return strings.TrimSpace(a.Endpoint) != "" &&
		strings.TrimSpace(a.AccessKey) != "" &&
		strings.TrimSpace(a.SecretKey) != "" &&
		strings.TrimSpace(a.Bucket) != ""
}

// UseFakeLLM reports whether generation is served by the offline fake.
func (c *Config) UseFakeLLM() bool {
	return strings.EqualFold(c.LLM.Provider, "fake")
}

// Loader reads configuration from defaults, an optional config file, .env
// and the process environment, in increasing priority.
type Loader struct {
	v *viper.Viper
}

// NewLoader prepares a loader. configFile may be empty, in which case
// ./interviewprep.{yaml,json,toml} and ./configs/ are searched.
func NewLoader(configFile string) *Loader {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	bindEnv(v)
	if f := strings.TrimSpace(configFile); f != "" {
		v.SetConfigFile(f)
	} else {
		v.SetConfigName("interviewprep")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}
	return &Loader{v: v}
}

// Load reads the config file if present and decodes the merged settings.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && l.v.ConfigFileUsed() != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return l.decode()
}

// ConfigFileUsed returns the config file path, or "" when none was found.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Watch re-decodes the configuration whenever the config file changes.
// It is a no-op when no config file is in use.
func (l *Loader) Watch(onChange func(*Config, error)) {
	if l.v.ConfigFileUsed() == "" || onChange == nil {
		return
	}
	l.v.OnConfigChange(func(fsnotify.Event) {
		onChange(l.decode())
	})
	l.v.WatchConfig()
}

func (l *Loader) decode() (*Config, error) {
	v := l.v
	cfg := &Config{
		Port:                   normalizePort(v.GetString("port")),
		Env:                    firstNonEmpty(strings.TrimSpace(v.GetString("app_env")), "local"),
		LogLevel:               strings.TrimSpace(v.GetString("log_level")),
		DatabaseURL:            strings.TrimSpace(v.GetString("database.url")),
		DatabaseConnectTimeout: v.GetDuration("database.connect_timeout"),
		LLM: LLMConfig{
			Provider:          strings.ToLower(strings.TrimSpace(v.GetString("llm.provider"))),
			APIKey:            strings.TrimSpace(v.GetString("llm.api_key")),
			Model:             strings.TrimSpace(v.GetString("llm.model")),
			RequestsPerMinute: v.GetInt("llm.requests_per_minute"),
		},
		Interview: InterviewConfig{
			TurnLimit:      v.GetInt("interview.turn_limit"),
			QuestionCount:  v.GetInt("interview.question_count"),
			IdleTTL:        v.GetDuration("interview.idle_ttl"),
			MaxResumeBytes: v.GetInt64("interview.max_resume_bytes"),
		},
		Cache: CacheConfig{
			SessionEntries: v.GetInt("cache.session_entries"),
			ResumeEntries:  v.GetInt("cache.resume_entries"),
		},
		Artifact: ArtifactConfig{
			Endpoint:  strings.TrimSpace(v.GetString("artifact.endpoint")),
			Region:    firstNonEmpty(strings.TrimSpace(v.GetString("artifact.region")), "us-east-1"),
			AccessKey: strings.TrimSpace(v.GetString("artifact.access_key")),
			SecretKey: strings.TrimSpace(v.GetString("artifact.secret_key")),
			Bucket:    strings.TrimSpace(v.GetString("artifact.bucket")),
			UseSSL:    v.GetBool("artifact.use_ssl"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetStringSlice("cors.allowed_origins")),
		},
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "gemini"
		if cfg.LLM.APIKey == "" && strings.EqualFold(cfg.Env, "local") {
			cfg.LLM.Provider = "fake"
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "gemini", "fake":
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	if c.Interview.TurnLimit <= 0 {
		return fmt.Errorf("interview.turn_limit must be positive")
	}
	if c.Interview.QuestionCount <= 0 {
		return fmt.Errorf("interview.question_count must be positive")
	}
	if c.Interview.MaxResumeBytes <= 0 {
		return fmt.Errorf("interview.max_resume_bytes must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", ":8081")
	v.SetDefault("app_env", "local")
	v.SetDefault("log_level", "info")
	v.SetDefault("database.connect_timeout", 30*time.Second)
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.requests_per_minute", 15)
	v.SetDefault("interview.turn_limit", 6)
	v.SetDefault("interview.question_count", 6)
	v.SetDefault("interview.idle_ttl", 30*time.Minute)
	v.SetDefault("interview.max_resume_bytes", 10*1024*1024)
	v.SetDefault("cache.session_entries", 1024)
	v.SetDefault("cache.resume_entries", 256)
	v.SetDefault("artifact.bucket", "interviewprep-resumes")
	v.SetDefault("artifact.use_ssl", true)
	v.SetDefault("cors.allowed_origins", []string{"*"})
}

func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("llm.api_key", "GEMINI_API_KEY", "LLM_API_KEY")
	_ = v.BindEnv("llm.model", "GEMINI_MODEL", "LLM_MODEL")
	_ = v.BindEnv("llm.requests_per_minute", "GEMINI_RPM", "LLM_REQUESTS_PER_MINUTE")
	_ = v.BindEnv("interview.turn_limit", "INTERVIEW_TURN_LIMIT")
	_ = v.BindEnv("interview.idle_ttl", "INTERVIEW_IDLE_TTL")
	_ = v.BindEnv("cache.session_entries", "SESSION_CACHE_SIZE")
	_ = v.BindEnv("artifact.endpoint", "ARTIFACT_S3_ENDPOINT")
	_ = v.BindEnv("artifact.region", "ARTIFACT_S3_REGION")
	_ = v.BindEnv("artifact.access_key", "ARTIFACT_S3_ACCESS_KEY", "MINIO_ROOT_USER")
	_ = v.BindEnv("artifact.secret_key", "ARTIFACT_S3_SECRET_KEY", "MINIO_ROOT_PASSWORD")
	_ = v.BindEnv("artifact.bucket", "ARTIFACT_S3_BUCKET")
	_ = v.BindEnv("artifact.use_ssl", "ARTIFACT_S3_USE_SSL")
	_ = v.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS")
}

func normalizePort(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return ":8081"
	}
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
