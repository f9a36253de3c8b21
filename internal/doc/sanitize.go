package doc

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// EmbedSrc matches the player URLs produced for supported video providers.
var EmbedSrc = regexp.MustCompile(`^https://(www\.youtube\.com/embed/|player\.vimeo\.com/video/|www\.dailymotion\.com/embed/video/)[A-Za-z0-9_-]+$`)

var (
	pastePolicy   = newPastePolicy()
	contentPolicy = newContentPolicy()
)

// editorStyles are the inline CSS properties formatting commands produce.
var editorStyles = []string{
	"color", "background-color", "text-align", "font-size", "font-family",
	"font-weight", "font-style", "text-decoration", "width", "height",
	"padding", "border", "border-collapse", "border-spacing",
	"vertical-align", "margin-left", "max-width",
}

func newPastePolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("span", "font", "u", "s", "strike", "mark", "small", "big")
	policy.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")
	policy.AllowAttrs("width", "height").OnElements("img")
	policy.AllowAttrs("data-natural-width", "data-natural-height").Matching(bluemonday.Integer).OnElements("img")
	policy.AllowAttrs("title").OnElements("a", "img")
	policy.AllowStyles(editorStyles...).Globally()
	policy.AllowDataURIImages()
	policy.AllowURLSchemes("http", "https", "mailto")
	return policy
}

// newContentPolicy extends the paste policy with provider embeds, which only
// the editor itself creates.
func newContentPolicy() *bluemonday.Policy {
	policy := newPastePolicy()
	policy.AllowElements("iframe")
	policy.AllowAttrs("src").Matching(EmbedSrc).OnElements("iframe")
	policy.AllowAttrs("width", "height", "frameborder", "allow", "allowfullscreen").OnElements("iframe")
	return policy
}

// SanitizePaste cleans clipboard HTML: scripts, styles, event handlers and
// javascript: URLs are removed; formatting, tables, images and links stay.
func SanitizePaste(s string) string {
	return pastePolicy.Sanitize(s)
}

// SanitizeContent cleans HTML handed to the editor as its whole content.
func SanitizeContent(s string) string {
	return contentPolicy.Sanitize(s)
}
