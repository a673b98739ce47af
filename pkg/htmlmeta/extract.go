// Package htmlmeta fetches a page and extracts a small SEO metadata model
// from its HTML using lightweight pattern matching.
package htmlmeta

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Metadata is the on-page SEO signal set extracted from one HTML document.
// Absent tags leave the corresponding fields nil or zero.
type Metadata struct {
	Title                 *string `json:"title"`
	TitleLength           int     `json:"title_length"`
	MetaDescription       *string `json:"meta_description"`
	MetaDescriptionLength int     `json:"meta_description_length"`
	H1Count               int     `json:"h1_count"`
	FirstH1               *string `json:"first_h1"`
	ImgCount              int     `json:"img_count"`
	ImgsMissingAlt        int     `json:"imgs_missing_alt"`
	HasViewport           bool    `json:"has_viewport"`
	HasCanonical          bool    `json:"has_canonical"`
	HasStructuredData     bool    `json:"has_structured_data"`
	IsHTTPS               bool    `json:"is_https"`
	HasRobotsMeta         bool    `json:"has_robots_meta"`
}

var (
	titleRe          = regexp.MustCompile(`(?i)<title[^>]*>([\s\S]*?)</title>`)
	metaDescNameRe   = regexp.MustCompile(`(?i)<meta[^>]+name=["']description["'][^>]+content=(?:"([^"]*)"|'([^']*)')[^>]*>`)
	metaDescContent  = regexp.MustCompile(`(?i)<meta[^>]+content=(?:"([^"]*)"|'([^']*)')[^>]+name=["']description["'][^>]*>`)
	h1Re             = regexp.MustCompile(`(?i)<h1[^>]*>([\s\S]*?)</h1>`)
	tagRe            = regexp.MustCompile(`<[^>]*>`)
	imgRe            = regexp.MustCompile(`(?i)<img[^>]*>`)
	altRe            = regexp.MustCompile(`(?i)alt=["'][^"']+["']`)
	viewportRe       = regexp.MustCompile(`(?i)<meta[^>]+name=["']viewport["'][^>]*>`)
	canonicalRe      = regexp.MustCompile(`(?i)<link[^>]+rel=["']canonical["'][^>]*>`)
	structuredDataRe = regexp.MustCompile(`(?i)<script[^>]+type=["']application/ld\+json["'][^>]*>`)
	robotsRe         = regexp.MustCompile(`(?i)<meta[^>]+name=["']robots["'][^>]*>`)
)

// Extract parses html for SEO signals. It never fails: malformed markup
// simply yields fewer signals. pageURL decides IsHTTPS.
func Extract(html []byte, pageURL string) *Metadata {
	meta := &Metadata{
		IsHTTPS: strings.HasPrefix(strings.ToLower(pageURL), "https://"),
	}

	if m := titleRe.FindSubmatch(html); m != nil {
		title := strings.TrimSpace(string(m[1]))
		if title != "" {
			meta.Title = &title
			meta.TitleLength = utf8.RuneCountInString(title)
		}
	}

	desc, ok := quotedGroup(metaDescNameRe, html)
	if !ok {
		desc, ok = quotedGroup(metaDescContent, html)
	}
	if ok {
		desc = strings.TrimSpace(desc)
		if desc != "" {
			meta.MetaDescription = &desc
			meta.MetaDescriptionLength = utf8.RuneCountInString(desc)
		}
	}

	h1s := h1Re.FindAllSubmatch(html, -1)
	meta.H1Count = len(h1s)
	if len(h1s) > 0 {
		text := strings.TrimSpace(tagRe.ReplaceAllString(string(h1s[0][1]), ""))
		meta.FirstH1 = &text
	}

	imgs := imgRe.FindAll(html, -1)
	meta.ImgCount = len(imgs)
	for _, img := range imgs {
		if !altRe.Match(img) {
			meta.ImgsMissingAlt++
		}
	}

	meta.HasViewport = viewportRe.Match(html)
	meta.HasCanonical = canonicalRe.Match(html)
	meta.HasStructuredData = structuredDataRe.Match(html)
	meta.HasRobotsMeta = robotsRe.Match(html)

	return meta
}

// quotedGroup returns whichever quote-style capture group of re matched.
func quotedGroup(re *regexp.Regexp, html []byte) (string, bool) {
	idx := re.FindSubmatchIndex(html)
	if idx == nil {
		return "", false
	}
	for g := 1; 2*g+1 < len(idx); g++ {
		if idx[2*g] >= 0 {
			return string(html[idx[2*g]:idx[2*g+1]]), true
		}
	}
	return "", true
}
