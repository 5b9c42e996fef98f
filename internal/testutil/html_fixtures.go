package testutil

import (
	"fmt"
	"html"
	"strings"
)

// ListingEntryOptions contains options for generating one catalog box
type ListingEntryOptions struct {
	Title         string
	DetailHref    string // Detail page href, usually site-relative like /v/12.html
	ThumbnailURL  string
	Status        string
	OmitTitle     bool // Drop the title attribute but keep the link
	OmitThumbnail bool
	OmitStatus    bool
}

// GenerateListingHTML generates a catalog page with the box structure of the
// anime listing site (ul.myui-vodlist > li > div.myui-vodlist__box)
func GenerateListingHTML(entries []ListingEntryOptions) string {
	var sb strings.Builder

	sb.WriteString(`<html>
<head><meta charset="utf-8"><title>日本动漫</title></head>
<body>
<div class="container">
	<ul class="myui-vodlist clearfix">
`)

	for _, e := range entries {
		thumb := ""
		if !e.OmitThumbnail {
			thumb = fmt.Sprintf(`<a class="myui-vodlist__thumb lazyload" href="%s" title="%s" data-original="%s">`,
				html.EscapeString(e.DetailHref), html.EscapeString(e.Title), html.EscapeString(e.ThumbnailURL))
		} else {
			thumb = fmt.Sprintf(`<a class="myui-vodlist__thumb" href="%s">`, html.EscapeString(e.DetailHref))
		}

		status := ""
		if !e.OmitStatus {
			status = fmt.Sprintf(`<span class="pic-text text-right">%s</span>`, html.EscapeString(e.Status))
		}

		titleAttr := ""
		if !e.OmitTitle {
			titleAttr = fmt.Sprintf(` title="%s"`, html.EscapeString(e.Title))
		}

		fmt.Fprintf(&sb, `
		<li class="col-lg-6 col-md-6 col-sm-4 col-xs-3">
			<div class="myui-vodlist__box">
				%s
					<span class="play hidden-xs"></span>
					%s
				</a>
				<div class="myui-vodlist__detail">
					<h4 class="title text-overflow"><a%s href="%s">%s</a></h4>
				</div>
			</div>
		</li>`,
			thumb, status, titleAttr, html.EscapeString(e.DetailHref), html.EscapeString(e.Title))
	}

	sb.WriteString(`
	</ul>
</div>
</body>
</html>`)

	return sb.String()
}

// GenerateDetailHTML generates a detail page listing the given episode hrefs in order
func GenerateDetailHTML(title string, episodeHrefs []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body>
<div class="myui-panel">
	<h1 class="title">%s</h1>
	<ul class="myui-content__list sort-list clearfix" style="max-height: 300px;">
`, html.EscapeString(title), html.EscapeString(title))

	for i, href := range episodeHrefs {
		fmt.Fprintf(&sb, `		<li class="col-lg-10 col-md-8 col-sm-6 col-xs-4"><a class="btn btn-default" href="%s">第%02d集</a></li>
`, html.EscapeString(href), i+1)
	}

	sb.WriteString(`	</ul>
</div>
</body>
</html>`)

	return sb.String()
}

// GenerateEpisodeHTML generates an episode page embedding playerURL in a table iframe.
// An empty playerURL produces a page without the frame.
func GenerateEpisodeHTML(playerURL string) string {
	frame := ""
	if playerURL != "" {
		frame = fmt.Sprintf(`<iframe width="100%%" height="100%%" src="%s" frameborder="0" allowfullscreen="true"></iframe>`, html.EscapeString(playerURL))
	}
	return fmt.Sprintf(`<html>
<head><meta charset="utf-8"></head>
<body>
<div class="myui-player__item">
	<table border="0" cellpadding="0" cellspacing="0" width="100%%" height="100%%">
		<tr><td>%s</td></tr>
	</table>
</div>
</body>
</html>`, frame)
}

// GeneratePlayerHTML generates a player page whose #lelevideo element points at mediaURL.
// An empty mediaURL produces a page without the video element.
func GeneratePlayerHTML(mediaURL string) string {
	video := `<div class="loading">loading...</div>`
	if mediaURL != "" {
		video = fmt.Sprintf(`<video id="lelevideo" src="%s" controls="controls" width="100%%" height="100%%"></video>`, html.EscapeString(mediaURL))
	}
	return fmt.Sprintf(`<html>
<head><meta charset="utf-8"></head>
<body>
%s
</body>
</html>`, video)
}
