// Package config loads voiceagent settings from defaults, an optional TOML
// file, a .env file and the process environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	// Address to listen on (e.g., ":8000")
	ListenAddr string `toml:"listen_addr"`

	// UploadDir is where uploaded audio is staged before processing.
	UploadDir string `toml:"upload_dir"`

	// StaticDir holds the browser client. It is served only if it exists.
	StaticDir string `toml:"static_dir"`

	// MaxUploadBytes caps request bodies.
	MaxUploadBytes int `toml:"max_upload_bytes"`

	Debug bool `toml:"debug"`

	// LogFormat is "console" or "json".
	LogFormat string `toml:"log_format"`

	AssemblyAI AssemblyAI `toml:"assemblyai"`
	Gemini     Gemini     `toml:"gemini"`
	Murf       Murf       `toml:"murf"`
}

// AssemblyAI configures speech-to-text.
type AssemblyAI struct {
	APIKey       string        `toml:"api_key"`
	BaseURL      string        `toml:"base_url"`
	Timeout      time.Duration `toml:"timeout"`
	PollInterval time.Duration `toml:"poll_interval"`
}

// Gemini configures the language model.
type Gemini struct {
	APIKey      string        `toml:"api_key"`
	BaseURL     string        `toml:"base_url"`
	Model       string        `toml:"model"`
	Temperature *float64      `toml:"temperature"`
	MaxTokens   *int          `toml:"max_output_tokens"`
	Timeout     time.Duration `toml:"timeout"`
}

// Murf configures text-to-speech.
type Murf struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`

	// Voice is used for agent replies and echoes.
	Voice string `toml:"voice"`

	// GenerateAudioVoice is used by the plain text-to-speech endpoint.
	GenerateAudioVoice string `toml:"generate_audio_voice"`

	// ChunkSize is the longest text sent in one synthesis call.
	ChunkSize int `toml:"chunk_size"`

	Timeout time.Duration `toml:"timeout"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		ListenAddr:     ":8000",
		UploadDir:      "app/uploads",
		StaticDir:      "app/static",
		MaxUploadBytes: 25 << 20,
		LogFormat:      "console",
		AssemblyAI: AssemblyAI{
			BaseURL:      "https://api.assemblyai.com",
			Timeout:      30 * time.Second,
			PollInterval: time.Second,
		},
		Gemini: Gemini{
			BaseURL: "https://generativelanguage.googleapis.com",
			Model:   "gemini-1.5-flash",
			Timeout: 30 * time.Second,
		},
		Murf: Murf{
			BaseURL:            "https://api.murf.ai",
			Voice:              "en-US-natalie",
			GenerateAudioVoice: "en-US-amara",
			ChunkSize:          3000,
			Timeout:            30 * time.Second,
		},
	}
}

// Load builds a Config. path is an optional TOML file; envFile is an optional
// dotenv file whose variables never override ones already set in the
// environment. A missing envFile is not an error.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("could not decode config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("could not load env file %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every missing or invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.AssemblyAI.APIKey == "" {
		errs = append(errs, errors.New("ASSEMBLYAI_API_KEY is required"))
	}
	if c.Gemini.APIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	if c.Murf.APIKey == "" {
		errs = append(errs, errors.New("MURF_API_KEY is required"))
	}
	if c.Murf.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk size must be positive, got %d", c.Murf.ChunkSize))
	}
	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("ASSEMBLYAI_API_KEY", &c.AssemblyAI.APIKey)
	str("GEMINI_API_KEY", &c.Gemini.APIKey)
	str("MURF_API_KEY", &c.Murf.APIKey)
	str("UPLOAD_DIR", &c.UploadDir)
	str("STATIC_DIR", &c.StaticDir)
	str("LISTEN_ADDR", &c.ListenAddr)
	str("LOG_FORMAT", &c.LogFormat)
	str("ASSEMBLYAI_BASE_URL", &c.AssemblyAI.BaseURL)
	str("GEMINI_BASE_URL", &c.Gemini.BaseURL)
	str("GEMINI_MODEL", &c.Gemini.Model)
	str("MURF_BASE_URL", &c.Murf.BaseURL)
	str("MURF_VOICE_ID", &c.Murf.Voice)
	str("MURF_GENERATE_AUDIO_VOICE_ID", &c.Murf.GenerateAudioVoice)

	var errs []error
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	duration("ASSEMBLYAI_TIMEOUT", &c.AssemblyAI.Timeout)
	duration("ASSEMBLYAI_POLL_INTERVAL", &c.AssemblyAI.PollInterval)
	duration("GEMINI_TIMEOUT", &c.Gemini.Timeout)
	duration("MURF_TIMEOUT", &c.Murf.Timeout)
	integer("TTS_CHUNK_SIZE", &c.Murf.ChunkSize)
	integer("MAX_UPLOAD_BYTES", &c.MaxUploadBytes)

	if v, ok := lookup("DEBUG"); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid DEBUG: %w", err))
		} else {
			c.Debug = b
		}
	}

	return errors.Join(errs...)
}
