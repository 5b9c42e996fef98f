package pipeline

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Belphemur/EpisodeHarvester/internal/models"
)

var unsafeFilenameChars = strings.NewReplacer(
	"/", "_",
	":", "_",
	"*", "_",
	"?", "_",
	`"`, "_",
	"<", "_",
	">", "_",
	"|", "_",
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// SanitizeFilename turns a title into a file name: NFC-normalized, with / : * ? " < > |
// replaced by underscores.
func SanitizeFilename(title string) string {
	name := strings.TrimSpace(norm.NFC.String(title))
	name = unsafeFilenameChars.Replace(name)
	if name == "." || name == ".." {
		return strings.Repeat("_", len(name))
	}
	return name
}

func baseName(item models.DiscoveredItem) string {
	if name := SanitizeFilename(item.Title); name != "" {
		return name
	}
	return fmt.Sprintf("item-%d", item.Index)
}

// ThumbnailPath returns where the thumbnail of item is stored. The extension follows the
// thumbnail URL when it names an image type and defaults to .jpg.
func ThumbnailPath(dir string, item models.DiscoveredItem) string {
	ext := ".jpg"
	if u, err := url.Parse(item.ThumbnailURL); err == nil {
		if e := strings.ToLower(path.Ext(u.Path)); imageExtensions[e] {
			ext = e
		}
	}
	return filepath.Join(dir, baseName(item)+ext)
}

// VideoPath returns where the video of item is stored.
func VideoPath(dir string, item models.DiscoveredItem) string {
	return filepath.Join(dir, baseName(item)+".mp4")
}
