package testutil

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// SiteItem configures one catalog entry served by a Site
type SiteItem struct {
	Title      string
	Status     string
	Episodes   int  // Number of episode links on the detail page, 0 means none
	NoPlayer   bool // Episode page without the player frame
	NoMedia    bool // Player page without the media element
	VideoSize  int  // Video payload size in bytes, defaults to 4096
	OmitLength bool // Stream the video without a Content-Length header
	FailThumb  bool // Thumbnail answers 404
	FailVideo  bool // Video answers 500
}

// Site is an httptest server mimicking the catalog, detail, episode, player and media hops
type Site struct {
	Server *httptest.Server
	Items  []SiteItem

	mu   sync.Mutex
	hits map[string]int
}

// NewSite starts a Site serving items and closes it when the test ends
func NewSite(t *testing.T, items []SiteItem) *Site {
	t.Helper()
	s := &Site{Items: items, hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Server.Close)
	return s
}

// CatalogURL returns the listing page URL
func (s *Site) CatalogURL() string {
	return s.Server.URL + "/type/ribendongman.html"
}

// ThumbnailURL returns the thumbnail location of item i
func (s *Site) ThumbnailURL(i int) string {
	return fmt.Sprintf("%s/upload/vod/%d.jpg", s.Server.URL, i)
}

// EpisodeURL returns the location of episode ep (1-based) of item i
func (s *Site) EpisodeURL(i, ep int) string {
	return fmt.Sprintf("%s/play/%d-1-%d.html", s.Server.URL, i, ep)
}

// Hits returns how many times path was requested
func (s *Site) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// VideoBytes returns the deterministic video payload of item i
func VideoBytes(i, size int) []byte {
	return bytes.Repeat([]byte{byte('a' + i%26)}, size)
}

// ThumbnailBytes returns the deterministic thumbnail payload of item i
func ThumbnailBytes(i int) []byte {
	return []byte(fmt.Sprintf("\xff\xd8\xff thumbnail %d", i))
}

func (s *Site) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	s.mu.Unlock()

	path := r.URL.Path
	switch {
	case path == "/type/ribendongman.html":
		s.writeHTML(w, s.listing())
	case strings.HasPrefix(path, "/v/"):
		i, ok := s.itemIndex(strings.TrimSuffix(strings.TrimPrefix(path, "/v/"), ".html"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		hrefs := make([]string, s.Items[i].Episodes)
		for ep := range hrefs {
			hrefs[ep] = fmt.Sprintf("/play/%d-1-%d.html", i, ep+1)
		}
		s.writeHTML(w, GenerateDetailHTML(s.Items[i].Title, hrefs))
	case strings.HasPrefix(path, "/play/"):
		i, ok := s.itemIndex(strings.SplitN(strings.TrimPrefix(path, "/play/"), "-", 2)[0])
		if !ok {
			http.NotFound(w, r)
			return
		}
		player := ""
		if !s.Items[i].NoPlayer {
			player = fmt.Sprintf("%s/player/%d.html", s.Server.URL, i)
		}
		s.writeHTML(w, GenerateEpisodeHTML(player))
	case strings.HasPrefix(path, "/player/"):
		i, ok := s.itemIndex(strings.TrimSuffix(strings.TrimPrefix(path, "/player/"), ".html"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		media := ""
		if !s.Items[i].NoMedia {
			media = fmt.Sprintf("/media/%d.mp4", i)
		}
		s.writeHTML(w, GeneratePlayerHTML(media))
	case strings.HasPrefix(path, "/upload/vod/"):
		i, ok := s.itemIndex(strings.TrimSuffix(strings.TrimPrefix(path, "/upload/vod/"), ".jpg"))
		if !ok || s.Items[i].FailThumb {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(ThumbnailBytes(i))
	case strings.HasPrefix(path, "/media/"):
		i, ok := s.itemIndex(strings.TrimSuffix(strings.TrimPrefix(path, "/media/"), ".mp4"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		s.writeVideo(w, i)
	default:
		http.NotFound(w, r)
	}
}

func (s *Site) listing() string {
	entries := make([]ListingEntryOptions, len(s.Items))
	for i, item := range s.Items {
		entries[i] = ListingEntryOptions{
			Title:        item.Title,
			DetailHref:   fmt.Sprintf("/v/%d.html", i),
			ThumbnailURL: fmt.Sprintf("/upload/vod/%d.jpg", i),
			Status:       item.Status,
		}
	}
	return GenerateListingHTML(entries)
}

func (s *Site) writeVideo(w http.ResponseWriter, i int) {
	item := s.Items[i]
	if item.FailVideo {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	size := item.VideoSize
	if size == 0 {
		size = 4096
	}
	payload := VideoBytes(i, size)

	w.Header().Set("Content-Type", "video/mp4")
	if !item.OmitLength {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
		return
	}
	// Flushing before the body is complete forces chunked encoding without a length.
	flusher, _ := w.(http.Flusher)
	half := len(payload) / 2
	_, _ = w.Write(payload[:half])
	if flusher != nil {
		flusher.Flush()
	}
	_, _ = w.Write(payload[half:])
}

func (s *Site) writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Site) itemIndex(raw string) (int, bool) {
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 || i >= len(s.Items) {
		return 0, false
	}
	return i, true
}
