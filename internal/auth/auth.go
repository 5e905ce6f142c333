// Register an application at https://developer.spotify.com/dashboard and add
// the redirect URI (SPOTIFY_REDIRECT_URI, default http://localhost:3000/) to it.
// Put CLIENT_ID, CLIENT_SECRET and SPOTIFY_USER_ID in .env.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"shuffletrace/internal/adapters"
	"shuffletrace/internal/utils"
)

// ScopeAppRemoteControl is not among the library's scope constants.
const ScopeAppRemoteControl = "app-remote-control"

// Scopes needed to read playlists and drive playback.
var Scopes = []string{
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopeUserReadPlaybackState,
	ScopeAppRemoteControl,
	spotifyauth.ScopeUserModifyPlaybackState,
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// TokenFile caches the OAuth token between invocations. Empty disables caching.
	TokenFile string
}

// Authenticator hands out Spotify clients, running the authorization-code
// flow through a loopback callback server when no cached token exists.
type Authenticator struct {
	auth        *spotifyauth.Authenticator
	redirect    *url.URL
	tokenFile   string
	log         *zap.Logger
	stdout      io.Writer
	openBrowser func(string) error
}

func New(cfg Config, log *zap.Logger) (*Authenticator, error) {
	redirect, err := url.Parse(cfg.RedirectURI)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("invalid redirect URI %q", cfg.RedirectURI)
	}
	return &Authenticator{
		auth: spotifyauth.New(
			spotifyauth.WithRedirectURL(cfg.RedirectURI),
			spotifyauth.WithScopes(Scopes...),
			spotifyauth.WithClientID(cfg.ClientID),
			spotifyauth.WithClientSecret(cfg.ClientSecret),
		),
		redirect:    redirect,
		tokenFile:   cfg.TokenFile,
		log:         log,
		stdout:      os.Stdout,
		openBrowser: utils.OpenBrowser,
	}, nil
}

// Client returns a client backed by the cached token, logging in first when
// there is none. The client refreshes expired tokens itself.
func (a *Authenticator) Client(ctx context.Context) (*spotify.Client, error) {
	tok, err := a.cachedToken()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			a.log.Warn("ignoring unreadable token cache", zap.String("file", a.tokenFile), zap.Error(err))
		}
		if tok, err = a.Login(ctx); err != nil {
			return nil, err
		}
	}
	return spotify.New(a.auth.Client(ctx, tok)), nil
}

// Login runs the interactive consent flow and caches the resulting token.
func (a *Authenticator) Login(ctx context.Context) (*oauth2.Token, error) {
	state, err := utils.GenerateState()
	if err != nil {
		return nil, err
	}

	results := make(chan callbackResult, 1)
	path := a.redirect.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, a.completeAuth(state, results))

	ln, err := net.Listen("tcp", a.redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("listen for oauth callback on %s: %w", a.redirect.Host, err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("oauth callback server stopped", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := a.auth.AuthURL(state)
	fmt.Fprintln(a.stdout, "Please log in to Spotify by visiting the following page in your browser:", authURL)
	if err := a.openBrowser(authURL); err != nil {
		a.log.Debug("could not open browser", zap.Error(err))
	}

	var res callbackResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-results:
	}
	if res.err != nil {
		return nil, res.err
	}

	if err := a.saveToken(res.token); err != nil {
		return nil, err
	}
	a.log.Info("logged in to spotify")
	return res.token, nil
}

// Persist writes the client's current token back to the cache so that a
// refresh during this run is not lost.
func (a *Authenticator) Persist(client *spotify.Client) error {
	tok, err := client.Token()
	if err != nil {
		return fmt.Errorf("read client token: %w", err)
	}
	return a.saveToken(tok)
}

type callbackResult struct {
	token *oauth2.Token
	err   error
}

// completeAuth exchanges the authorization code for a token. Only the first
// callback is delivered; later hits are answered but dropped. Requests carrying
// neither a code nor an error (favicon fetches, stray tabs) are ignored.
func (a *Authenticator) completeAuth(state string, results chan<- callbackResult) http.HandlerFunc {
	deliver := func(res callbackResult) {
		select {
		case results <- res:
		default:
		}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("code") == "" && r.FormValue("error") == "" {
			http.NotFound(w, r)
			return
		}
		if st := r.FormValue("state"); st != state {
			http.NotFound(w, r)
			deliver(callbackResult{err: fmt.Errorf("%w: oauth state mismatch", adapters.ErrAuth)})
			return
		}
		tok, err := a.auth.Token(r.Context(), state, r)
		if err != nil {
			http.Error(w, "Couldn't get token", http.StatusForbidden)
			deliver(callbackResult{err: fmt.Errorf("%w: %w", adapters.ErrAuth, err)})
			return
		}
		fmt.Fprintf(w, "Login Completed! You can now close this window.")
		deliver(callbackResult{token: tok})
	}
}

func (a *Authenticator) cachedToken() (*oauth2.Token, error) {
	if a.tokenFile == "" {
		return nil, fs.ErrNotExist
	}
	return LoadToken(a.tokenFile)
}

func (a *Authenticator) saveToken(tok *oauth2.Token) error {
	if a.tokenFile == "" {
		return nil
	}
	return SaveToken(a.tokenFile, tok)
}

func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("token file holds no token")
	}
	return tok, nil
}

func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}
