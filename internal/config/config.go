// Package config resolves hark settings. Precedence, highest first: values set
// explicitly on the viper instance (bound flags), HARK_ environment variables,
// config.yaml in the user config dir, .env files, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"hark/pkg/recognition"
)

// EnvPrefix prefixes every environment variable hark reads.
const EnvPrefix = "HARK"

// Configuration keys.
const (
	KeyLanguage              = "language"
	KeyContinuous            = "continuous"
	KeyAutoRestart           = "auto_restart"
	KeyPaused                = "paused"
	KeyDebug                 = "debug"
	KeySecure                = "secure"
	KeyCommandsFile          = "commands_file"
	KeyAlternativesSeparator = "alternatives_separator"
	KeyOpenAIAPIKey          = "openai_api_key"
	KeyTranscriptionModel    = "transcription_model"
	KeyLogLevel              = "log_level"
	KeyLogFile               = "log_file"
)

// Config holds the resolved settings.
type Config struct {
	Language string
	// Continuous is nil unless configured; the session then derives it from Secure.
	Continuous            *bool
	AutoRestart           bool
	Paused                bool
	Debug                 bool
	Secure                bool
	CommandsFile          string
	AlternativesSeparator string
	OpenAIAPIKey          string
	TranscriptionModel    string
	LogLevel              string
	LogFile               string
}

// Loader reads configuration into a viper instance.
type Loader struct {
	v         *viper.Viper
	configDir string
	workDir   string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithConfigDir overrides the user config directory (default: <user config dir>/hark).
func WithConfigDir(dir string) LoaderOption {
	return func(l *Loader) { l.configDir = dir }
}

// WithWorkDir overrides the directory searched for a local .env file.
func WithWorkDir(dir string) LoaderOption {
	return func(l *Loader) { l.workDir = dir }
}

// NewLoader creates a loader around v. Pass viper.GetViper() to share the
// global instance that cobra flags are bound to.
func NewLoader(v *viper.Viper, opts ...LoaderOption) *Loader {
	l := &Loader{v: v}
	for _, opt := range opts {
		opt(l)
	}
	if l.configDir == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			l.configDir = filepath.Join(dir, "hark")
		}
	}
	if l.workDir == "" {
		if dir, err := os.Getwd(); err == nil {
			l.workDir = dir
		}
	}
	return l
}

// SetDefaults installs the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyLanguage, recognition.DefaultLanguage)
	v.SetDefault(KeyAutoRestart, true)
	v.SetDefault(KeyPaused, false)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeySecure, true)
	v.SetDefault(KeyCommandsFile, "")
	v.SetDefault(KeyAlternativesSeparator, "|")
	v.SetDefault(KeyOpenAIAPIKey, "")
	v.SetDefault(KeyTranscriptionModel, "whisper-1")
	v.SetDefault(KeyLogLevel, "")
	v.SetDefault(KeyLogFile, "")
}

// Load resolves the configuration. Missing .env and config files are not errors.
func (l *Loader) Load() (*Config, error) {
	SetDefaults(l.v)

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	l.v.AutomaticEnv()
	if err := l.v.BindEnv(KeyOpenAIAPIKey, EnvPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if l.configDir != "" {
		l.v.SetConfigName("config")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(l.configDir)
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// The local .env is applied last so it wins over the one in the config dir.
	for _, dir := range []string{l.configDir, l.workDir} {
		if dir == "" {
			continue
		}
		if err := l.loadDotEnv(filepath.Join(dir, ".env")); err != nil {
			return nil, err
		}
	}

	return &Config{
		Language:              l.v.GetString(KeyLanguage),
		Continuous:            optionalBool(l.v, KeyContinuous),
		AutoRestart:           l.v.GetBool(KeyAutoRestart),
		Paused:                l.v.GetBool(KeyPaused),
		Debug:                 l.v.GetBool(KeyDebug),
		Secure:                l.v.GetBool(KeySecure),
		CommandsFile:          l.v.GetString(KeyCommandsFile),
		AlternativesSeparator: l.v.GetString(KeyAlternativesSeparator),
		OpenAIAPIKey:          l.v.GetString(KeyOpenAIAPIKey),
		TranscriptionModel:    l.v.GetString(KeyTranscriptionModel),
		LogLevel:              l.v.GetString(KeyLogLevel),
		LogFile:               l.v.GetString(KeyLogFile),
	}, nil
}

// loadDotEnv applies a .env file as defaults, so real environment variables
// and flags still take precedence over it.
func (l *Loader) loadDotEnv(envPath string) error {
	data, err := os.ReadFile(envPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read .env file %s: %w", envPath, err)
	}

	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse .env file %s: %w", envPath, err)
	}

	for name, value := range envMap {
		if key, ok := keyForEnv(name); ok {
			l.v.SetDefault(key, value)
		}
	}
	return nil
}

func optionalBool(v *viper.Viper, key string) *bool {
	if v.Get(key) == nil {
		return nil
	}
	return recognition.Bool(v.GetBool(key))
}

// keyForEnv maps HARK_AUTO_RESTART to auto_restart. OPENAI_API_KEY is accepted
// without the prefix.
func keyForEnv(name string) (string, bool) {
	if name == "OPENAI_API_KEY" {
		return KeyOpenAIAPIKey, true
	}
	rest, ok := strings.CutPrefix(name, EnvPrefix+"_")
	if !ok || rest == "" {
		return "", false
	}
	return strings.ToLower(rest), true
}

// StartOptions converts the listening settings into session start options.
func (c *Config) StartOptions() recognition.StartOptions {
	return recognition.StartOptions{
		AutoRestart: recognition.Bool(c.AutoRestart),
		Continuous:  c.Continuous,
		Paused:      recognition.Bool(c.Paused),
	}
}

// SessionOptions converts the session-level settings into session options.
func (c *Config) SessionOptions() []recognition.Option {
	return []recognition.Option{
		recognition.WithLanguage(c.Language),
		recognition.WithSecureContext(c.Secure),
		recognition.WithDebug(c.Debug),
	}
}
