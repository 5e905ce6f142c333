package playlist

// Playlist is a user's playlist as listed by the provider.
type Playlist struct {
	ID         string
	Name       string
	TrackCount int
}

// Sample is one observed row of a playthrough.
type Sample struct {
	TrackName   string `csv:"track_name"`
	PlaylistPos int    `csv:"playlist_pos"`
}

// Snapshot is the stored (unshuffled) order of track names in a playlist at
// the time it was fetched. Names are an imprecise key: a playlist holding two
// tracks with the same title resolves both to the first one.
type Snapshot []string

// Position returns the 1-based position of the first track called name, or 0
// when no track matches.
func (s Snapshot) Position(name string) int {
	for i, n := range s {
		if n == name {
			return i + 1
		}
	}
	return 0
}

// TracksToPlay is floor(percentage * len(s)). Non-positive and NaN
// percentages play nothing.
func (s Snapshot) TracksToPlay(percentage float64) int {
	if !(percentage > 0) {
		return 0
	}
	return int(percentage * float64(len(s)))
}

// FindByName returns the first playlist whose name equals name exactly.
func FindByName(playlists []Playlist, name string) (Playlist, bool) {
	for _, p := range playlists {
		if p.Name == name {
			return p, true
		}
	}
	return Playlist{}, false
}

// Dedupe drops exact duplicate rows, keeping the first occurrence of each.
func Dedupe(samples []Sample) []Sample {
	seen := make(map[Sample]struct{}, len(samples))
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
