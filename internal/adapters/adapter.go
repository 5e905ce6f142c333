package adapters

import (
	"context"

	"shuffletrace/internal/playlist"
)

// ApiAdapter is everything the commands need from the music provider.
type ApiAdapter interface {
	IsAuthenticated() bool

	// Catalogue
	ListPlaylists(ctx context.Context) ([]playlist.Playlist, error)
	FindPlaylistID(ctx context.Context, name string) (string, bool, error)
	TrackNames(ctx context.Context, playlistID string) (playlist.Snapshot, error)

	// Playback control
	SetShuffle(ctx context.Context, on bool) error
	StartPlaylist(ctx context.Context, playlistID string) error
	CurrentTrackName(ctx context.Context) (string, error)
	SkipToNext(ctx context.Context) error
}
