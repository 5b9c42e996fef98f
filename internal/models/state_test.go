// Tests for state.go: ItemState String(), Next(), ParseItemState() and JSON encoding.
package models

import (
	"encoding/json"
	"testing"
)

func TestItemState_String(t *testing.T) {
	tests := []struct {
		name  string
		state ItemState
		want  string
	}{
		{"discovered", StateDiscovered, "discovered"},
		{"detail", StateDetailResolved, "detail_resolved"},
		{"media", StateMediaResolved, "media_resolved"},
		{"complete", StateComplete, "complete"},
		{"failed", StateFailed, "failed"},
		{"invalid high value", ItemState(99), "unknown"},
		{"negative value", ItemState(-1), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("ItemState(%d).String() = %q, want %q", tt.state, got, tt.want)
			}
		})
	}
}

func TestItemState_NextFollowsPipelineOrder(t *testing.T) {
	order := []ItemState{
		StateDiscovered,
		StateDetailResolved,
		StateEpisodeResolved,
		StatePlayerResolved,
		StateMediaResolved,
		StateThumbnailDownloaded,
		StateVideoDownloaded,
		StateComplete,
	}

	for i := 0; i < len(order)-1; i++ {
		if got := order[i].Next(); got != order[i+1] {
			t.Errorf("%s.Next() = %s, want %s", order[i], got, order[i+1])
		}
	}
	if got := StateComplete.Next(); got != StateComplete {
		t.Errorf("Complete.Next() = %s, want complete", got)
	}
	if got := StateFailed.Next(); got != StateFailed {
		t.Errorf("Failed.Next() = %s, want failed", got)
	}
}

func TestParseItemState(t *testing.T) {
	tests := []struct {
		input string
		want  ItemState
	}{
		{"discovered", StateDiscovered},
		{"PLAYER_RESOLVED", StatePlayerResolved},
		{"video_downloaded", StateVideoDownloaded},
		{"nonsense", StateFailed},
		{"", StateFailed},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseItemState(tt.input); got != tt.want {
				t.Errorf("ParseItemState(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestItemFailure_JSON(t *testing.T) {
	failure := ItemFailure{Index: 3, Title: "A", LastGoodState: StateEpisodeResolved, Reason: "boom", WorkerID: 1}

	data, err := json.Marshal(failure)
	if err != nil {
		t.Fatalf("Marshal() unexpected error: %v", err)
	}
	want := `{"index":3,"title":"A","lastGoodState":"episode_resolved","reason":"boom","worker":1}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var decoded ItemFailure
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() unexpected error: %v", err)
	}
	if decoded != failure {
		t.Errorf("decoded = %+v, want %+v", decoded, failure)
	}
}

func TestFraction(t *testing.T) {
	if got := Fraction(50, 200); got != 0.25 {
		t.Errorf("Fraction(50, 200) = %v, want 0.25", got)
	}
	if got := Fraction(50, -1); got != -1 {
		t.Errorf("Fraction with unknown size = %v, want -1", got)
	}
	if got := Fraction(0, 0); got != -1 {
		t.Errorf("Fraction with zero size = %v, want -1", got)
	}
}
