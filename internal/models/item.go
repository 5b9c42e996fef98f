package models

// DiscoveredItem represents one catalog entry found on the listing page
type DiscoveredItem struct {
	Index        int    `json:"index"`             // Position on the listing page, defines report order
	Title        string `json:"title"`             // Entry title, empty when the page omits it
	ThumbnailURL string `json:"thumbnailLocation"` // Absolute thumbnail URL, empty when missing
	Status       string `json:"statusText"`        // Update status text shown on the listing
	DetailURL    string `json:"detailLocation"`    // Absolute URL of the entry's detail page
}

// ResolvedEpisode is the latest episode link derived from an item's detail page
type ResolvedEpisode struct {
	ParentIndex      int    `json:"parentIndex"`
	LatestEpisodeURL string `json:"latestEpisodeLocation"`
}

// ResultRow is the unit the aggregator sorts and writes to the report
type ResultRow struct {
	Index            int    `json:"index"`
	Title            string `json:"title"`
	ThumbnailURL     string `json:"thumbnailLocation"`
	Status           string `json:"statusText"`
	LatestEpisodeURL string `json:"latestEpisodeLocation"`
}

// NewResultRow builds a row from a discovered item and its resolved episode link.
func NewResultRow(item DiscoveredItem, latestEpisodeURL string) ResultRow {
	return ResultRow{
		Index:            item.Index,
		Title:            item.Title,
		ThumbnailURL:     item.ThumbnailURL,
		Status:           item.Status,
		LatestEpisodeURL: latestEpisodeURL,
	}
}

// ItemFailure records why an item did not reach the Complete state
type ItemFailure struct {
	Index         int       `json:"index"`
	Title         string    `json:"title"`
	ThumbnailURL  string    `json:"thumbnailLocation,omitempty"`
	Status        string    `json:"statusText,omitempty"`
	DetailURL     string    `json:"detailLocation,omitempty"`
	LastGoodState ItemState `json:"lastGoodState"`
	Reason        string    `json:"reason"`
	WorkerID      int       `json:"worker"`
}

// NewItemFailure records item as failed after reaching lastGood.
func NewItemFailure(item DiscoveredItem, lastGood ItemState, reason string, workerID int) ItemFailure {
	return ItemFailure{
		Index:         item.Index,
		Title:         item.Title,
		ThumbnailURL:  item.ThumbnailURL,
		Status:        item.Status,
		DetailURL:     item.DetailURL,
		LastGoodState: lastGood,
		Reason:        reason,
		WorkerID:      workerID,
	}
}

// BlankRow returns the report row of a failed item: listing metadata kept, derived fields empty.
func (f ItemFailure) BlankRow() ResultRow {
	return ResultRow{
		Index:        f.Index,
		Title:        f.Title,
		ThumbnailURL: f.ThumbnailURL,
		Status:       f.Status,
	}
}

// Partial is the output of a single worker for its chunk
type Partial struct {
	WorkerID int           `json:"worker"`
	Rows     []ResultRow   `json:"rows"`
	Failures []ItemFailure `json:"failures"`
	Err      error         `json:"-"` // Set when the worker itself was unavailable
}
