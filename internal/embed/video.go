// Package embed turns uploads and pasted URLs into document nodes: images
// become data URIs, provider video URLs become player embeds.
package embed

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/dgallion1/mintaro/internal/doc"
)

var ErrUnsupportedURL = errors.New("unsupported url")

// Provider recognises one video host.
type Provider struct {
	Name    string
	Pattern *regexp.Regexp
	// Player builds the embeddable player URL from the video id.
	Player func(id string) string
}

// Providers are checked in order; the first match wins.
var Providers = []Provider{
	{
		Name:    "youtube",
		Pattern: regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?(?:youtube\.com/(?:watch\?(?:.*&)?v=|embed/|shorts/)|youtu\.be/)([A-Za-z0-9_-]{6,})`),
		Player:  func(id string) string { return "https://www.youtube.com/embed/" + id },
	},
	{
		Name:    "vimeo",
		Pattern: regexp.MustCompile(`^(?:https?://)?(?:www\.|player\.)?vimeo\.com/(?:video/)?([0-9]+)`),
		Player:  func(id string) string { return "https://player.vimeo.com/video/" + id },
	},
	{
		Name:    "dailymotion",
		Pattern: regexp.MustCompile(`^(?:https?://)?(?:www\.)?(?:dailymotion\.com/(?:embed/)?video/|dai\.ly/)([A-Za-z0-9]+)`),
		Player:  func(id string) string { return "https://www.dailymotion.com/embed/video/" + id },
	},
}

// Embed dimensions of provider players.
const (
	PlayerWidth  = "560"
	PlayerHeight = "315"
)

// Match returns the provider and video id for raw, if any.
func Match(raw string) (Provider, string, bool) {
	raw = strings.TrimSpace(raw)
	for _, p := range Providers {
		if m := p.Pattern.FindStringSubmatch(raw); m != nil {
			return p, m[1], true
		}
	}
	return Provider{}, "", false
}

// ResolveURL returns an embed node for provider URLs, a link for any other
// http(s) URL and ErrUnsupportedURL for everything else.
func ResolveURL(raw string) (*doc.Node, error) {
	raw = strings.TrimSpace(raw)
	if p, id, ok := Match(raw); ok {
		return NewPlayer(p.Player(id)), nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, raw)
	}
	return doc.NewLink(u.String(), doc.NewText(raw)), nil
}

// NewPlayer builds the iframe node for a player URL.
func NewPlayer(src string) *doc.Node {
	n := doc.NewEmbed(src)
	n.SetAttr("width", PlayerWidth)
	n.SetAttr("height", PlayerHeight)
	n.SetAttr("frameborder", "0")
	n.SetAttr("allowfullscreen", "")
	return n
}
