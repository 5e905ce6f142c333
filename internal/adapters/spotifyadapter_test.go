package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/zmb3/spotify/v2"

	"shuffletrace/internal/playlist"
)

// fakeAPI serves the handful of Web API endpoints the adapter calls.
type fakeAPI struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	calls    []string
	pages    map[string]string // path -> JSON body
	player   string
	failWith map[string]int // path -> status
}

func newFakeAPI(t *testing.T) *fakeAPI {
	f := &fakeAPI{
		t:        t,
		pages:    make(map[string]string),
		failWith: make(map[string]int),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	status, fail := f.failWith[r.URL.Path]
	body, ok := f.pages[r.URL.Path]
	player := f.player
	f.mu.Unlock()

	if fail {
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"error":{"status":%d,"message":"forced failure"}}`, status)
		return
	}

	switch {
	case r.URL.Path == "/me/player" && r.Method == http.MethodGet:
		if player == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		fmt.Fprintf(w, `{"is_playing":true,"item":{"id":"x","name":%q,"type":"track"}}`, player)
	case strings.HasPrefix(r.URL.Path, "/me/player/"):
		w.WriteHeader(http.StatusNoContent)
	case ok:
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"status":404,"message":"no such endpoint"}}`)
	}
}

func (f *fakeAPI) url(path string) string {
	return f.server.URL + path
}

func (f *fakeAPI) adapter(userID string) *SpotifyAdapter {
	client := spotify.New(f.server.Client(), spotify.WithBaseURL(f.server.URL+"/"))
	return NewSpotifyAdapter(client, userID)
}

func (f *fakeAPI) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func playlistPage(next string, items ...[2]string) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf(`{"id":%q,"name":%q,"tracks":{"href":"","total":%d}}`, it[0], it[1], i+1)
	}
	return fmt.Sprintf(`{"items":[%s],"next":%q}`, strings.Join(parts, ","), next)
}

func itemsPage(next string, names ...string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf(`{"track":{"id":"t%d","name":%q,"type":"track"}}`, i, n)
	}
	return fmt.Sprintf(`{"items":[%s],"next":%q}`, strings.Join(parts, ","), next)
}

func TestSpotifyAdapter_FindPlaylistID_FollowsPages(t *testing.T) {
	api := newFakeAPI(t)
	api.pages["/users/u1/playlists"] = playlistPage(api.url("/page2"), [2]string{"p1", "weeb"})
	api.pages["/page2"] = playlistPage("", [2]string{"p2", "sma"}, [2]string{"p3", "sma"})

	id, found, err := api.adapter("u1").FindPlaylistID(context.Background(), "sma")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found || id != "p2" {
		t.Errorf("expected first match p2, got %q (found=%v)", id, found)
	}
}

func TestSpotifyAdapter_FindPlaylistID_StopsAtFirstMatch(t *testing.T) {
	api := newFakeAPI(t)
	api.pages["/users/u1/playlists"] = playlistPage(api.url("/page2"), [2]string{"p1", "sma"})
	api.pages["/page2"] = playlistPage("", [2]string{"p2", "other"})

	if _, _, err := api.adapter("u1").FindPlaylistID(context.Background(), "sma"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.called("GET /page2") {
		t.Error("expected paging to stop once the playlist was found")
	}
}

func TestSpotifyAdapter_FindPlaylistID_NotFound(t *testing.T) {
	api := newFakeAPI(t)
	api.pages["/users/u1/playlists"] = playlistPage("", [2]string{"p1", "Sma"})

	id, found, err := api.adapter("u1").FindPlaylistID(context.Background(), "sma")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found || id != "" {
		t.Errorf("expected not found, got %q", id)
	}
}

func TestSpotifyAdapter_ListPlaylists_CurrentUserWhenNoUserID(t *testing.T) {
	api := newFakeAPI(t)
	api.pages["/me/playlists"] = playlistPage("", [2]string{"p1", "sma"}, [2]string{"p2", "weeb"})

	got, err := api.adapter("").ListPlaylists(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []playlist.Playlist{
		{ID: "p1", Name: "sma", TrackCount: 1},
		{ID: "p2", Name: "weeb", TrackCount: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListPlaylists() = %+v, want %+v", got, want)
	}
}

func TestSpotifyAdapter_TrackNames_ConcatenatesPages(t *testing.T) {
	api := newFakeAPI(t)
	api.pages["/playlists/p1/tracks"] = itemsPage(api.url("/items2"), "A", "B")
	api.pages["/items2"] = itemsPage(api.url("/items3"), "C")
	api.pages["/items3"] = itemsPage("", "D")

	got, err := api.adapter("u1").TrackNames(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := (playlist.Snapshot{"A", "B", "C", "D"}); !reflect.DeepEqual(got, want) {
		t.Errorf("TrackNames() = %v, want %v", got, want)
	}
}

func TestSpotifyAdapter_Playback(t *testing.T) {
	api := newFakeAPI(t)
	api.player = "B"
	a := api.adapter("u1")
	ctx := context.Background()

	if err := a.SetShuffle(ctx, true); err != nil {
		t.Fatalf("SetShuffle: %v", err)
	}
	if err := a.StartPlaylist(ctx, "p1"); err != nil {
		t.Fatalf("StartPlaylist: %v", err)
	}
	name, err := a.CurrentTrackName(ctx)
	if err != nil {
		t.Fatalf("CurrentTrackName: %v", err)
	}
	if name != "B" {
		t.Errorf("expected now playing B, got %q", name)
	}
	if err := a.SkipToNext(ctx); err != nil {
		t.Fatalf("SkipToNext: %v", err)
	}

	for _, call := range []string{"PUT /me/player/shuffle", "PUT /me/player/play", "POST /me/player/next"} {
		if !api.called(call) {
			t.Errorf("expected call %q", call)
		}
	}
}

func TestSpotifyAdapter_CurrentTrackName_NothingPlaying(t *testing.T) {
	api := newFakeAPI(t)

	_, err := api.adapter("u1").CurrentTrackName(context.Background())
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestSpotifyAdapter_ClassifiesStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrAuth},
		{http.StatusForbidden, ErrAuth},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusTooManyRequests, ErrTransient},
		{http.StatusBadGateway, ErrTransient},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			api := newFakeAPI(t)
			api.failWith["/users/u1/playlists"] = tt.status

			_, err := api.adapter("u1").ListPlaylists(context.Background())
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSpotifyAdapter_UnauthenticatedAdapter(t *testing.T) {
	a := NewSpotifyAdapter(nil, "u1")

	if a.IsAuthenticated() {
		t.Fatal("adapter without client must not report authenticated")
	}
	if _, err := a.TrackNames(context.Background(), "p1"); !errors.Is(err, ErrAuth) {
		t.Errorf("expected ErrAuth, got %v", err)
	}
	if err := a.SkipToNext(context.Background()); !errors.Is(err, ErrAuth) {
		t.Errorf("expected ErrAuth, got %v", err)
	}
}

func TestKindOf_TransportError(t *testing.T) {
	client := spotify.New(http.DefaultClient, spotify.WithBaseURL("http://127.0.0.1:1/"))
	_, err := NewSpotifyAdapter(client, "u1").ListPlaylists(context.Background())
	if !errors.Is(err, ErrTransient) {
		t.Errorf("expected ErrTransient for unreachable host, got %v", err)
	}
}
