package models

import "strings"

// ItemState is the position of an item in the per-item pipeline
type ItemState int

const (
	StateDiscovered ItemState = iota
	StateDetailResolved
	StateEpisodeResolved
	StatePlayerResolved
	StateMediaResolved
	StateThumbnailDownloaded
	StateVideoDownloaded
	StateComplete
	StateFailed
)

var stateNames = [...]string{
	StateDiscovered:          "discovered",
	StateDetailResolved:      "detail_resolved",
	StateEpisodeResolved:     "episode_resolved",
	StatePlayerResolved:      "player_resolved",
	StateMediaResolved:       "media_resolved",
	StateThumbnailDownloaded: "thumbnail_downloaded",
	StateVideoDownloaded:     "video_downloaded",
	StateComplete:            "complete",
	StateFailed:              "failed",
}

// String returns the string representation of the state
func (s ItemState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Next returns the state that follows s on the success path.
// Complete and Failed are terminal.
func (s ItemState) Next() ItemState {
	if s >= StateComplete {
		return s
	}
	return s + 1
}

// ParseItemState converts a state name to ItemState, returning StateFailed for unknown names
func ParseItemState(name string) ItemState {
	name = strings.ToLower(name)
	for i, n := range stateNames {
		if n == name {
			return ItemState(i)
		}
	}
	return StateFailed
}

// MarshalJSON implements json.Marshaler interface
func (s ItemState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler interface
func (s *ItemState) UnmarshalJSON(data []byte) error {
	*s = ParseItemState(strings.Trim(string(data), `"`))
	return nil
}
