package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendNone     = "none"
	BackendDatabase = "database"
	BackendSupabase = "supabase"
)

// ServerConfig configures the RPC server. With AllowLocalUser, requests without
// a token share the progress of the local user.
type ServerConfig struct {
	Port                int           `mapstructure:"port" validate:"min=1,max=65535"`
	CORS                CORSConfig    `mapstructure:"cors"`
	AllowLocalUser      bool          `mapstructure:"allow_local_user"`
	ExpirySweepInterval time.Duration `mapstructure:"expiry_sweep_interval" validate:"gt=0"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type StorageConfig struct {
	Backend     string `mapstructure:"backend" validate:"oneof=none database supabase"`
	LocalFile   string `mapstructure:"local_file" validate:"required"`
	SessionFile string `mapstructure:"session_file" validate:"required"`
}

type DatabaseConfig struct {
	Driver          string            `mapstructure:"driver" validate:"oneof=mysql postgres"`
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

type SupabaseConfig struct {
	URL           string `mapstructure:"url" validate:"omitempty,url"`
	AnonKey       string `mapstructure:"anon_key"`
	JWTSecret     string `mapstructure:"jwt_secret"`
	RedirectURL   string `mapstructure:"redirect_url" validate:"omitempty,url"`
	RetryAttempts uint   `mapstructure:"retry_attempts" validate:"max=10"`
}

// Configured reports whether the identity provider can be reached.
func (c SupabaseConfig) Configured() bool {
	return c.URL != "" && c.AnonKey != ""
}

type ContentConfig struct {
	VocabularyFile string `mapstructure:"vocabulary_file" validate:"omitempty,file"`
	PlanFile       string `mapstructure:"plan_file" validate:"omitempty,file"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
	Content  ContentConfig  `mapstructure:"content"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
	envFiles   []string
}

func NewConfigLoader(configFile string, envFiles ...string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/wordday")
	}
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
		envFiles:   envFiles,
	}, nil
}

func dataDirectory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wordday"
	}
	return filepath.Join(home, ".local", "share", "wordday")
}

func (loader *ConfigLoader) Load() (*Config, error) {
	// Variables already set in the environment win over .env files.
	for _, envFile := range loader.envFiles {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	v := loader.viper

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.allow_local_user", false)
	v.SetDefault("server.expiry_sweep_interval", time.Minute)
	v.SetDefault("storage.backend", BackendNone)
	v.SetDefault("storage.local_file", filepath.Join(dataDirectory(), "local.yml"))
	v.SetDefault("storage.session_file", filepath.Join(dataDirectory(), "session.yml"))
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "wordday")
	v.SetDefault("database.username", "user")
	v.SetDefault("supabase.retry_attempts", 3)

	envs := map[string][]string{
		"storage.backend":     {"WORDDAY_STORAGE_BACKEND"},
		"database.password":   {"DB_PASSWORD"},
		"supabase.url":        {"SUPABASE_URL", "VITE_SUPABASE_URL"},
		"supabase.anon_key":   {"SUPABASE_ANON_KEY", "VITE_SUPABASE_ANON_KEY"},
		"supabase.jwt_secret": {"SUPABASE_JWT_SECRET"},
	}
	for key, names := range envs {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", names[0], err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}
