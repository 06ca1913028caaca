package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"speak-sfx/internal/domain"
	"speak-sfx/internal/infra/freesound"
)

type Config struct {
	Audio     AudioConfig     `yaml:"audio"`
	Speech    SpeechConfig    `yaml:"speech"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Google    GoogleConfig    `yaml:"google"`
	Freesound FreesoundConfig `yaml:"freesound"`
	Playback  PlaybackConfig  `yaml:"playback"`
	Pushover  PushoverConfig  `yaml:"pushover"`
	Loop      LoopConfig      `yaml:"loop"`
	Log       LogConfig       `yaml:"log"`
}

type AudioConfig struct {
	Source         string        `yaml:"source"`
	HTTPAddr       string        `yaml:"http_addr"`
	FileDir        string        `yaml:"file_dir"`
	SampleRate     int           `yaml:"sample_rate"`
	AuthToken      string        `yaml:"auth_token"`
	InitialTimeout time.Duration `yaml:"initial_timeout"`
	Calibration    time.Duration `yaml:"calibration"`
	MinListen      time.Duration `yaml:"min_listen"`
	MaxListen      time.Duration `yaml:"max_listen"`
}

type SpeechConfig struct {
	Backend  string `yaml:"backend"`
	Language string `yaml:"language"`
}

type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
}

type GoogleConfig struct {
	APIKey string `yaml:"api_key"`
}

type FreesoundConfig struct {
	APIKey   string        `yaml:"api_key"`
	BaseURL  string        `yaml:"base_url"`
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
}

type PlaybackConfig struct {
	// Command overrides the system URL opener, e.g. "mpv --no-video".
	Command string `yaml:"command"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type LoopConfig struct {
	// Iterations bounds the run loop; zero means run until interrupted.
	Iterations int `yaml:"iterations"`
	// Seed fixes the random source; zero seeds from the clock.
	Seed uint64 `yaml:"seed"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyEnv()
	cfg.setDefaults()

	return &cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults plus
// whatever the environment provides.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func Default() *Config {
	var cfg Config
	cfg.applyEnv()
	cfg.setDefaults()
	return &cfg
}

func (c *Config) applyEnv() {
	if c.Freesound.APIKey == "" {
		c.Freesound.APIKey = os.Getenv("FREESOUND_API_KEY")
	}
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Google.APIKey == "" {
		c.Google.APIKey = os.Getenv("GOOGLE_SPEECH_API_KEY")
	}
}

func (c *Config) setDefaults() {
	if c.Audio.Source == "" {
		c.Audio.Source = "microphone"
	}
	if c.Audio.HTTPAddr == "" {
		c.Audio.HTTPAddr = ":8080"
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.InitialTimeout == 0 {
		c.Audio.InitialTimeout = 5 * time.Second
	}
	if c.Audio.Calibration == 0 {
		c.Audio.Calibration = time.Second
	}
	if c.Audio.MinListen == 0 {
		c.Audio.MinListen = 4 * time.Second
	}
	if c.Audio.MaxListen == 0 {
		c.Audio.MaxListen = 8 * time.Second
	}
	if c.Speech.Backend == "" {
		switch {
		case c.Google.APIKey != "":
			c.Speech.Backend = "google"
		case c.OpenAI.APIKey != "":
			c.Speech.Backend = "whisper"
		default:
			c.Speech.Backend = "none"
		}
	}
	if c.Speech.Language == "" {
		c.Speech.Language = "en-US"
	}
	if c.Freesound.BaseURL == "" {
		c.Freesound.BaseURL = freesound.DefaultBaseURL
	}
	if c.Freesound.PageSize == 0 {
		c.Freesound.PageSize = 10
	}
	if c.Freesound.Timeout == 0 {
		c.Freesound.Timeout = 15 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate reports settings the tool cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if freesound.IsPlaceholderKey(c.Freesound.APIKey) {
		errs = append(errs, fmt.Errorf("freesound.api_key (or FREESOUND_API_KEY): %w", domain.ErrMissingCredential))
	}
	if c.Freesound.PageSize < 1 || c.Freesound.PageSize > 150 {
		errs = append(errs, fmt.Errorf("freesound.page_size must be between 1 and 150, got %d", c.Freesound.PageSize))
	}
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate))
	}
	if c.Audio.InitialTimeout <= 0 {
		errs = append(errs, fmt.Errorf("audio.initial_timeout must be positive, got %s", c.Audio.InitialTimeout))
	}
	if c.Audio.Calibration < 0 {
		errs = append(errs, fmt.Errorf("audio.calibration must not be negative, got %s", c.Audio.Calibration))
	}
	if c.Audio.MinListen <= 0 || c.Audio.MaxListen < c.Audio.MinListen {
		errs = append(errs, fmt.Errorf("audio listen window [%s, %s) is invalid", c.Audio.MinListen, c.Audio.MaxListen))
	}
	switch c.Audio.Source {
	case "microphone", "file", "http":
	default:
		errs = append(errs, fmt.Errorf("audio.source %q is not one of microphone, file, http", c.Audio.Source))
	}
	switch c.Speech.Backend {
	case "google", "whisper", "none":
	default:
		errs = append(errs, fmt.Errorf("speech.backend %q is not one of google, whisper, none", c.Speech.Backend))
	}
	if c.Loop.Iterations < 0 {
		errs = append(errs, fmt.Errorf("loop.iterations must not be negative, got %d", c.Loop.Iterations))
	}

	return errors.Join(errs...)
}
