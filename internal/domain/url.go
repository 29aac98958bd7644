package domain

import (
	"strings"

	"github.com/PuerkitoBio/purell"
)

const normalizeFlags = purell.FlagsSafe |
	purell.FlagRemoveFragment |
	purell.FlagRemoveDuplicateSlashes

// NormalizeURL lowercases and canonicalises an article or site URL so every
// discovery path produces the same registry key.
func NormalizeURL(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	normalized, err := purell.NormalizeURLString(raw, normalizeFlags)
	if err != nil {
		return raw
	}
	return normalized
}

// ShortSlug returns the domain fragment between the scheme and ".com",
// e.g. "https://OrlandoNews.com/x" -> "orlandonews".
func ShortSlug(rawURL string) string {
	s := strings.ToLower(strings.TrimSpace(rawURL))
	if _, rest, ok := strings.Cut(s, "://"); ok {
		s = rest
	}
	if host, _, ok := strings.Cut(s, ".com"); ok {
		return host
	}
	host, _, _ := strings.Cut(s, "/")
	return host
}

// StoryNumber extracts the nine character story id from ".../stories/<id>-slug".
func StoryNumber(articleURL string) string {
	_, rest, ok := strings.Cut(articleURL, ".com/stories/")
	if !ok {
		return ""
	}
	if len(rest) > 9 {
		rest = rest[:9]
	}
	return rest
}
