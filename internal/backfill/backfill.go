package backfill

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"shuffletrace/internal/adapters"
	"shuffletrace/internal/playlist"
	"shuffletrace/internal/sampler"
	"shuffletrace/internal/utils"
)

const (
	nameColumn     = "track_name"
	positionColumn = "playlist_pos"
)

var ErrPlaylistNotFound = fmt.Errorf("playlist: %w", adapters.ErrNotFound)

// Catalogue resolves playlists and their stored track order.
type Catalogue interface {
	FindPlaylistID(ctx context.Context, name string) (string, bool, error)
	TrackNames(ctx context.Context, playlistID string) (playlist.Snapshot, error)
}

// Positions fills the playlist_pos column of the CSV at path from the current
// order of playlistName, adding the column when absent, and rewrites the file
// in place. Other columns are kept as they are.
func Positions(ctx context.Context, c Catalogue, log *zap.Logger, path, playlistName string) (int, error) {
	header, records, err := utils.ReadCsvFile(path)
	if err != nil {
		return 0, err
	}
	nameIdx := utils.IndexOf(header, nameColumn)
	if nameIdx < 0 {
		return 0, fmt.Errorf("%s: no %s column", path, nameColumn)
	}
	posIdx := utils.IndexOf(header, positionColumn)
	if posIdx < 0 {
		header = append(header, positionColumn)
		posIdx = len(header) - 1
	}

	id, found, err := c.FindPlaylistID(ctx, playlistName)
	if err != nil {
		return 0, fmt.Errorf("resolve playlist %q: %w", playlistName, err)
	}
	if !found {
		return 0, fmt.Errorf("%q: %w", playlistName, ErrPlaylistNotFound)
	}
	snapshot, err := c.TrackNames(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("list tracks: %w", err)
	}

	var errs []error
	for i, rec := range records {
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		pos := snapshot.Position(rec[nameIdx])
		if pos == 0 {
			errs = append(errs, fmt.Errorf("row %d: %q: %w", i+1, rec[nameIdx], sampler.ErrTrackNotInPlaylist))
			continue
		}
		rec[posIdx] = strconv.Itoa(pos)
		records[i] = rec
	}
	if err := errors.Join(errs...); err != nil {
		return 0, err
	}

	if err := utils.WriteCsvFile(path, header, records); err != nil {
		return 0, err
	}
	log.Info("filled playlist positions",
		zap.String("file", path),
		zap.String("playlist", playlistName),
		zap.Int("rows", len(records)))
	return len(records), nil
}
