package parser

import (
	"errors"
	"testing"

	"github.com/Belphemur/EpisodeHarvester/internal/apperrors"
	"github.com/Belphemur/EpisodeHarvester/internal/config"
	"github.com/Belphemur/EpisodeHarvester/internal/testutil"
)

const testSite = "https://www.857yhdm.com"

func mustDocument(t *testing.T, html, location string) Document {
	t.Helper()
	doc, err := NewDocumentFromString(html, location)
	if err != nil {
		t.Fatalf("failed to parse HTML: %v", err)
	}
	return doc
}

func TestResolver_ExtractListing(t *testing.T) {
	html := testutil.GenerateListingHTML([]testutil.ListingEntryOptions{
		{Title: "葬送的芙莉莲", DetailHref: "/v/101.html", ThumbnailURL: "https://img.example.com/101.jpg", Status: " 更新至28集 "},
		{Title: "间谍过家家", DetailHref: "/v/102.html", ThumbnailURL: "/upload/102.jpg", Status: "完结"},
	})
	doc := mustDocument(t, html, testSite+"/type/ribendongman.html")

	items := NewResolver(config.DefaultSelectors()).ExtractListing(doc, 20)

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.Index != 0 || first.Title != "葬送的芙莉莲" {
		t.Errorf("item 0 = %+v", first)
	}
	if first.DetailURL != testSite+"/v/101.html" {
		t.Errorf("DetailURL = %q, want absolute URL", first.DetailURL)
	}
	if first.ThumbnailURL != "https://img.example.com/101.jpg" {
		t.Errorf("ThumbnailURL = %q", first.ThumbnailURL)
	}
	if first.Status != "更新至28集" {
		t.Errorf("Status = %q, want trimmed text", first.Status)
	}

	second := items[1]
	if second.Index != 1 {
		t.Errorf("Index = %d, want 1", second.Index)
	}
	if second.ThumbnailURL != testSite+"/upload/102.jpg" {
		t.Errorf("relative thumbnail not resolved: %q", second.ThumbnailURL)
	}
}

func TestResolver_ExtractListing_Cap(t *testing.T) {
	entries := make([]testutil.ListingEntryOptions, 25)
	for i := range entries {
		entries[i] = testutil.ListingEntryOptions{Title: "t", DetailHref: "/v/1.html"}
	}
	doc := mustDocument(t, testutil.GenerateListingHTML(entries), testSite+"/")
	r := NewResolver(config.DefaultSelectors())

	tests := []struct {
		name string
		max  int
		want int
	}{
		{"default cap", 20, 20},
		{"cap above count", 30, 25},
		{"cap disabled", 0, 25},
		{"cap of two", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := r.ExtractListing(doc, tt.max)
			if len(items) != tt.want {
				t.Fatalf("Expected %d items, got %d", tt.want, len(items))
			}
			for i, item := range items {
				if item.Index != i {
					t.Errorf("item %d has index %d", i, item.Index)
				}
			}
		})
	}
}

func TestResolver_ExtractListing_MissingOptionalAttributes(t *testing.T) {
	html := testutil.GenerateListingHTML([]testutil.ListingEntryOptions{
		{Title: "无标题", DetailHref: "/v/7.html", OmitTitle: true, OmitThumbnail: true, OmitStatus: true},
	})
	doc := mustDocument(t, html, testSite+"/")

	items := NewResolver(config.DefaultSelectors()).ExtractListing(doc, 20)

	if len(items) != 1 {
		t.Fatalf("Expected partially populated item to be kept, got %d items", len(items))
	}
	item := items[0]
	if item.Title != "" || item.ThumbnailURL != "" || item.Status != "" {
		t.Errorf("Expected empty optional fields, got %+v", item)
	}
	if item.DetailURL != testSite+"/v/7.html" {
		t.Errorf("DetailURL = %q", item.DetailURL)
	}
}

func TestResolver_ExtractListing_NoBoxes(t *testing.T) {
	doc := mustDocument(t, `<html><body><p>empty</p></body></html>`, testSite+"/")
	if items := NewResolver(config.DefaultSelectors()).ExtractListing(doc, 20); len(items) != 0 {
		t.Errorf("Expected no items, got %d", len(items))
	}
}

func TestResolver_ResolveDetailToEpisode_PicksLastInDocumentOrder(t *testing.T) {
	// E3 is last in document order even though its label sorts before the others.
	html := `<html><body><ul class="myui-content__list sort-list clearfix">
		<li><a href="/play/5-1-1.html">2024-03-01 E1</a></li>
		<li><a href="/play/5-1-2.html">2024-05-01 E2</a></li>
		<li><a href="/play/5-1-3.html">2023-01-01 E3</a></li>
	</ul></body></html>`
	doc := mustDocument(t, html, testSite+"/v/5.html")

	episode, err := NewResolver(config.DefaultSelectors()).ResolveDetailToEpisode(doc, 5)
	if err != nil {
		t.Fatalf("ResolveDetailToEpisode failed: %v", err)
	}
	if episode.LatestEpisodeURL != testSite+"/play/5-1-3.html" {
		t.Errorf("LatestEpisodeURL = %q, want E3", episode.LatestEpisodeURL)
	}
	if episode.ParentIndex != 5 {
		t.Errorf("ParentIndex = %d, want 5", episode.ParentIndex)
	}
}

func TestResolver_ResolveDetailToEpisode_Errors(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"no episode list", `<html><body><div class="myui-panel"></div></body></html>`},
		{"empty episode list", `<html><body><ul class="myui-content__list sort-list clearfix"></ul></body></html>`},
		{"last link without href", `<html><body><ul class="myui-content__list sort-list clearfix"><li><a href="/play/1.html">1</a></li><li><a>2</a></li></ul></body></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDocument(t, tt.html, testSite+"/v/1.html")
			_, err := NewResolver(config.DefaultSelectors()).ResolveDetailToEpisode(doc, 1)
			if !errors.Is(err, &apperrors.ErrElementNotFound{}) {
				t.Fatalf("Expected ErrElementNotFound, got %v", err)
			}
		})
	}
}

func TestResolver_ResolveEpisodeToPlayer(t *testing.T) {
	r := NewResolver(config.DefaultSelectors())

	doc := mustDocument(t, testutil.GenerateEpisodeHTML("https://player.example.com/p.html?url=abc"), testSite+"/play/1-1-3.html")
	player, err := r.ResolveEpisodeToPlayer(doc)
	if err != nil {
		t.Fatalf("ResolveEpisodeToPlayer failed: %v", err)
	}
	if player != "https://player.example.com/p.html?url=abc" {
		t.Errorf("player = %q", player)
	}

	missing := mustDocument(t, testutil.GenerateEpisodeHTML(""), testSite+"/play/1-1-3.html")
	_, err = r.ResolveEpisodeToPlayer(missing)
	var notFound *apperrors.ErrElementNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected ErrElementNotFound, got %v", err)
	}
	if notFound.Selector != "table iframe" || notFound.URL != testSite+"/play/1-1-3.html" {
		t.Errorf("unexpected error context: %+v", notFound)
	}
}

func TestResolver_ResolvePlayerToMedia(t *testing.T) {
	r := NewResolver(config.DefaultSelectors())

	tests := []struct {
		name    string
		html    string
		want    string
		wantErr bool
	}{
		{
			name: "src attribute",
			html: testutil.GeneratePlayerHTML("https://cdn.example.com/v/1.mp4"),
			want: "https://cdn.example.com/v/1.mp4",
		},
		{
			name: "relative src",
			html: testutil.GeneratePlayerHTML("/media/1.mp4"),
			want: "https://player.example.com/media/1.mp4",
		},
		{
			name: "nested source element",
			html: `<html><body><video id="lelevideo"><source src="https://cdn.example.com/v/2.mp4" type="video/mp4"></video></body></html>`,
			want: "https://cdn.example.com/v/2.mp4",
		},
		{
			name:    "missing video",
			html:    testutil.GeneratePlayerHTML(""),
			wantErr: true,
		},
		{
			name:    "empty src",
			html:    `<html><body><video id="lelevideo" src=""></video></body></html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDocument(t, tt.html, "https://player.example.com/p.html")
			got, err := r.ResolvePlayerToMedia(doc)
			if tt.wantErr {
				if !errors.Is(err, &apperrors.ErrElementNotFound{}) {
					t.Fatalf("Expected ErrElementNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolvePlayerToMedia failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("media = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolver_CustomSelectors(t *testing.T) {
	sel := config.DefaultSelectors()
	sel.MediaElement = "video.main"
	sel.MediaAttr = "data-src"

	doc := mustDocument(t, `<html><body><video class="main" data-src="/m.mp4"></video></body></html>`, testSite+"/player.html")
	got, err := NewResolver(sel).ResolvePlayerToMedia(doc)
	if err != nil {
		t.Fatalf("ResolvePlayerToMedia failed: %v", err)
	}
	if got != testSite+"/m.mp4" {
		t.Errorf("media = %q", got)
	}
}
