package parser

import (
	"strings"

	"github.com/Belphemur/EpisodeHarvester/internal/apperrors"
	"github.com/Belphemur/EpisodeHarvester/internal/config"
	"github.com/Belphemur/EpisodeHarvester/internal/models"
)

// Resolver extracts typed records and next-hop locations from rendered pages.
// It holds no state besides its selectors and is safe for concurrent use.
type Resolver struct {
	sel config.Selectors
}

// NewResolver creates a resolver using the given selectors
func NewResolver(sel config.Selectors) *Resolver {
	return &Resolver{sel: sel}
}

// Selectors returns the selectors the resolver was built with.
func (r *Resolver) Selectors() config.Selectors {
	return r.sel
}

// ExtractListing returns the catalog entries of a listing page in document order,
// capped at max entries (max <= 0 disables the cap). Missing title, thumbnail or status
// degrade to empty strings; a partially populated item is still returned.
func (r *Resolver) ExtractListing(doc Document, max int) []models.DiscoveredItem {
	logger := config.GetLogger()

	boxes := doc.Find(r.sel.ListingItem)
	if max > 0 && len(boxes) > max {
		boxes = boxes[:max]
	}

	items := make([]models.DiscoveredItem, 0, len(boxes))
	for i, box := range boxes {
		item := models.DiscoveredItem{Index: i}

		if link := first(box.Find(r.sel.Title)); link != nil {
			item.Title, _ = link.Attr(r.sel.TitleAttr)
			item.Title = strings.TrimSpace(item.Title)
			if href, ok := link.Attr("href"); ok {
				item.DetailURL = resolveURL(doc, href)
			}
		}

		if thumb := first(box.Find(r.sel.Thumbnail)); thumb != nil {
			if src, ok := thumb.Attr(r.sel.ThumbnailAttr); ok {
				item.ThumbnailURL = resolveURL(doc, src)
			}
		}

		if status := first(box.Find(r.sel.Status)); status != nil {
			item.Status = strings.TrimSpace(status.Text())
		}

		logger.Debug().
			Int("index", item.Index).
			Str("title", item.Title).
			Str("detailURL", item.DetailURL).
			Msg("Extracted listing entry")

		items = append(items, item)
	}

	logger.Info().Int("found", len(boxes)).Int("max", max).Int("total_items", len(items)).Msg("Completed listing extraction")
	return items
}

// ResolveDetailToEpisode selects the latest episode of a detail page. The latest episode
// is the last link of the episode list in document order; no date parsing is involved.
func (r *Resolver) ResolveDetailToEpisode(doc Document, parentIndex int) (models.ResolvedEpisode, error) {
	links := doc.Find(r.sel.EpisodeLinks)
	if len(links) == 0 {
		return models.ResolvedEpisode{}, apperrors.NewElementNotFoundError(r.sel.EpisodeLinks, location(doc))
	}

	href, _ := links[len(links)-1].Attr(r.sel.EpisodeURLAttr)
	latest := resolveURL(doc, href)
	if latest == "" {
		return models.ResolvedEpisode{}, apperrors.NewElementNotFoundError(r.sel.EpisodeLinks+"["+r.sel.EpisodeURLAttr+"]", location(doc))
	}

	config.GetLogger().Debug().
		Int("index", parentIndex).
		Int("episodes", len(links)).
		Str("latest", latest).
		Msg("Resolved latest episode")

	return models.ResolvedEpisode{ParentIndex: parentIndex, LatestEpisodeURL: latest}, nil
}

// ResolveEpisodeToPlayer returns the location of the embedded player frame.
func (r *Resolver) ResolveEpisodeToPlayer(doc Document) (string, error) {
	for _, frame := range doc.Find(r.sel.PlayerFrame) {
		if src, ok := frame.Attr(r.sel.PlayerSrcAttr); ok && strings.TrimSpace(src) != "" {
			return resolveURL(doc, src), nil
		}
	}
	return "", apperrors.NewElementNotFoundError(r.sel.PlayerFrame, location(doc))
}

// ResolvePlayerToMedia returns the media source of the player page. A nested
// <source> element is accepted when the media element has no src of its own.
func (r *Resolver) ResolvePlayerToMedia(doc Document) (string, error) {
	for _, media := range doc.Find(r.sel.MediaElement) {
		if src, ok := media.Attr(r.sel.MediaAttr); ok && strings.TrimSpace(src) != "" {
			return resolveURL(doc, src), nil
		}
		for _, source := range media.Find("source") {
			if src, ok := source.Attr("src"); ok && strings.TrimSpace(src) != "" {
				return resolveURL(doc, src), nil
			}
		}
	}
	return "", apperrors.NewElementNotFoundError(r.sel.MediaElement, location(doc))
}

func first(elements []Element) Element {
	if len(elements) == 0 {
		return nil
	}
	return elements[0]
}

func location(doc Document) string {
	if loc := doc.Location(); loc != nil {
		return loc.String()
	}
	return ""
}
