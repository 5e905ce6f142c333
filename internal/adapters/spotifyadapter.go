package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/zmb3/spotify/v2"

	"shuffletrace/internal/playlist"
)

// SpotifyAdapter adapts the Spotify Web API to ApiAdapter.
type SpotifyAdapter struct {
	BaseAdapter
	client *spotify.Client
	userID string
}

var _ ApiAdapter = (*SpotifyAdapter)(nil)

// NewSpotifyAdapter wraps an authenticated client. Playlists are listed for
// userID, or for the token's owner when userID is empty.
func NewSpotifyAdapter(client *spotify.Client, userID string) *SpotifyAdapter {
	a := &SpotifyAdapter{
		BaseAdapter: NewBaseAdapter("spotify"),
		client:      client,
		userID:      userID,
	}
	a.SetAuthenticated(client != nil)
	return a
}

// ListPlaylists follows the page cursor until the provider returns no next page.
func (a *SpotifyAdapter) ListPlaylists(ctx context.Context) ([]playlist.Playlist, error) {
	var out []playlist.Playlist
	err := a.eachPlaylistPage(ctx, func(page []playlist.Playlist) bool {
		out = append(out, page...)
		return true
	})
	return out, err
}

// FindPlaylistID returns the ID of the first playlist named exactly name.
// Paging stops at the first page holding a match.
func (a *SpotifyAdapter) FindPlaylistID(ctx context.Context, name string) (string, bool, error) {
	var (
		match playlist.Playlist
		found bool
	)
	err := a.eachPlaylistPage(ctx, func(page []playlist.Playlist) bool {
		match, found = playlist.FindByName(page, name)
		return !found
	})
	if err != nil {
		return "", false, err
	}
	return match.ID, found, nil
}

// eachPlaylistPage calls fn with every page of the user's playlists until fn
// returns false or the pages run out.
func (a *SpotifyAdapter) eachPlaylistPage(ctx context.Context, fn func([]playlist.Playlist) bool) error {
	if err := a.CheckAuth(); err != nil {
		return err
	}

	var (
		page *spotify.SimplePlaylistPage
		err  error
	)
	if a.userID != "" {
		page, err = a.client.GetPlaylistsForUser(ctx, a.userID)
	} else {
		page, err = a.client.CurrentUsersPlaylists(ctx)
	}
	if err != nil {
		return classify("list playlists", err)
	}

	for {
		playlists := make([]playlist.Playlist, len(page.Playlists))
		for i, p := range page.Playlists {
			playlists[i] = playlist.Playlist{
				ID:         string(p.ID),
				Name:       p.Name,
				TrackCount: int(p.Tracks.Total),
			}
		}
		if !fn(playlists) {
			return nil
		}
		err = a.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			return nil
		}
		if err != nil {
			return classify("list playlists", err)
		}
	}
}

// TrackNames returns the names of every track in the playlist in stored order.
// Entries without a track (removed or local-only items, episodes) keep their
// slot with an empty name so later positions stay aligned.
func (a *SpotifyAdapter) TrackNames(ctx context.Context, playlistID string) (playlist.Snapshot, error) {
	if err := a.CheckAuth(); err != nil {
		return nil, err
	}

	page, err := a.client.GetPlaylistItems(ctx, spotify.ID(playlistID))
	if err != nil {
		return nil, classify("list playlist items", err)
	}

	var names playlist.Snapshot
	for {
		for _, item := range page.Items {
			name := ""
			if item.Track.Track != nil {
				name = item.Track.Track.Name
			} else if item.Track.Episode != nil {
				name = item.Track.Episode.Name
			}
			names = append(names, name)
		}
		err = a.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			return names, nil
		}
		if err != nil {
			return nil, classify("list playlist items", err)
		}
	}
}

func (a *SpotifyAdapter) SetShuffle(ctx context.Context, on bool) error {
	if err := a.CheckAuth(); err != nil {
		return err
	}
	return classify("set shuffle", a.client.Shuffle(ctx, on))
}

// StartPlaylist starts playback with the playlist as context on the active device.
func (a *SpotifyAdapter) StartPlaylist(ctx context.Context, playlistID string) error {
	if err := a.CheckAuth(); err != nil {
		return err
	}
	uri := spotify.URI(fmt.Sprintf("spotify:playlist:%s", playlistID))
	return classify("start playback", a.client.PlayOpt(ctx, &spotify.PlayOptions{
		PlaybackContext: &uri,
	}))
}

// CurrentTrackName reads the playback state and returns the playing item's name.
func (a *SpotifyAdapter) CurrentTrackName(ctx context.Context) (string, error) {
	if err := a.CheckAuth(); err != nil {
		return "", err
	}
	state, err := a.client.PlayerState(ctx)
	if err != nil {
		return "", classify("read playback state", err)
	}
	if state == nil || state.Item == nil {
		return "", malformed("read playback state", "nothing is playing")
	}
	return state.Item.Name, nil
}

func (a *SpotifyAdapter) SkipToNext(ctx context.Context) error {
	if err := a.CheckAuth(); err != nil {
		return err
	}
	return classify("skip to next", a.client.Next(ctx))
}
