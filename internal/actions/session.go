package actions

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"

	"shuffletrace/internal/adapters"
	"shuffletrace/internal/auth"
	"shuffletrace/internal/config"
	"shuffletrace/internal/logger"
)

// session bundles what every provider-facing command needs.
type session struct {
	cfg     *config.App
	log     *zap.Logger
	auth    *auth.Authenticator
	client  *spotify.Client
	adapter adapters.ApiAdapter
}

func loadApp(c *cli.Context) (*config.App, *zap.Logger, error) {
	var envFiles []string
	if f := c.String("env"); f != "" {
		envFiles = append(envFiles, f)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, nil, err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogFile,
		MaxBackups: 3,
		MaxAge:     28,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func newAuthenticator(cfg *config.App, log *zap.Logger) (*auth.Authenticator, error) {
	return auth.New(auth.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		TokenFile:    cfg.TokenFile,
	}, log)
}

func openSession(c *cli.Context) (*session, error) {
	cfg, log, err := loadApp(c)
	if err != nil {
		return nil, err
	}
	authenticator, err := newAuthenticator(cfg, log)
	if err != nil {
		return nil, err
	}
	client, err := authenticator.Client(c.Context)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	return &session{
		cfg:     cfg,
		log:     log,
		auth:    authenticator,
		client:  client,
		adapter: adapters.NewSpotifyAdapter(client, cfg.UserID),
	}, nil
}

// close saves any refreshed token and flushes the logger.
func (s *session) close() {
	if err := s.auth.Persist(s.client); err != nil {
		s.log.Warn("could not save token", zap.Error(err))
	}
	_ = s.log.Sync()
}

// Login only runs the consent flow and stores the token.
func Login(c *cli.Context) error {
	cfg, log, err := loadApp(c)
	if err != nil {
		return err
	}
	defer log.Sync()

	authenticator, err := newAuthenticator(cfg, log)
	if err != nil {
		return err
	}
	if _, err := authenticator.Login(c.Context); err != nil {
		return err
	}
	fmt.Println("Token saved to", cfg.TokenFile)
	return nil
}
