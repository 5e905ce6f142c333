package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Credentials are the three secrets read from the environment (or a .env file).
// Missing values are left empty; the provider rejects them later as an auth failure.
type Credentials struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	UserID       string `env:"SPOTIFY_USER_ID"`
}

// App holds process-wide settings.
type App struct {
	Credentials

	RedirectURI string `env:"SPOTIFY_REDIRECT_URI" envDefault:"http://localhost:3000/"`
	TokenFile   string `env:"SPOTIFY_TOKEN_FILE" envDefault:".spotify_token.json"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE"`
}

// Load reads envFiles (".env" when none are given) into the process
// environment and parses it. A missing .env file is not an error.
func Load(envFiles ...string) (*App, error) {
	_ = godotenv.Load(envFiles...)

	cfg := &App{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Run configures a single playthrough or a series of them.
type Run struct {
	PlaylistName     string
	PercentageToPlay float64
	// Delay is the pause after each skip so the provider's playback state catches up.
	Delay time.Duration
	// SettleDelay is the pause between starting playback and the first read.
	SettleDelay time.Duration
	Dedupe      bool
	Output      string

	Runs       int
	OutputBase string
}

const (
	DefaultPlaylistName     = "sma"
	DefaultPercentageToPlay = 0.1
	DefaultDelay            = 500 * time.Millisecond
	DefaultSettleDelay      = time.Second
	DefaultOutput           = "./data/playthrough.csv"
	DefaultOutputBase       = "./data/playthrough"
)

// DefaultRun returns the documented defaults for a single deduplicated run.
func DefaultRun() Run {
	return Run{
		PlaylistName:     DefaultPlaylistName,
		PercentageToPlay: DefaultPercentageToPlay,
		Delay:            DefaultDelay,
		SettleDelay:      DefaultSettleDelay,
		Dedupe:           true,
		Output:           DefaultOutput,
		Runs:             1,
		OutputBase:       DefaultOutputBase,
	}
}

func (r Run) Validate() error {
	var errs []error
	if r.PlaylistName == "" {
		errs = append(errs, errors.New("playlist name is required"))
	}
	if math.IsNaN(r.PercentageToPlay) || r.PercentageToPlay < 0 || r.PercentageToPlay > 1 {
		errs = append(errs, fmt.Errorf("percentage to play must be within [0, 1], got %v", r.PercentageToPlay))
	}
	if r.Delay < 0 || r.SettleDelay < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	if r.Runs < 1 {
		errs = append(errs, fmt.Errorf("runs must be at least 1, got %d", r.Runs))
	}
	return errors.Join(errs...)
}

// RunOutput is the CSV path for the i-th (1-based) run of a series.
func (r Run) RunOutput(i int) string {
	return fmt.Sprintf("%s_%d.csv", r.OutputBase, i)
}
