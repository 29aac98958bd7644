package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DirectoryLink is one site listed on the network directory page.
type DirectoryLink struct {
	Name  string
	URL   string
	State string
}

// ExtractDirectoryLinks lists every outbound site link in page order. The state of
// a link is the text of the nearest <b> heading above it.
func ExtractDirectoryLinks(doc *goquery.Document) []DirectoryLink {
	if doc == nil {
		return nil
	}

	var (
		links []DirectoryLink
		state string
	)

	doc.Find("b, a[target='_blank']").Each(func(_ int, sel *goquery.Selection) {
		if goquery.NodeName(sel) == "b" {
			state = cleanText(sel.Text())
			return
		}

		title, ok := sel.Attr("title")
		if !ok {
			return
		}
		href, _ := sel.Attr("href")
		host := lastPathSegment(href)
		if host == "" {
			return
		}

		links = append(links, DirectoryLink{
			Name:  cleanText(title),
			URL:   "https://" + host,
			State: state,
		})
	})

	return links
}

// lastPathSegment also repairs malformed links such as "https:/example.com".
func lastPathSegment(href string) string {
	href = strings.TrimRight(strings.ToLower(strings.TrimSpace(href)), "/")
	if i := strings.LastIndex(href, "/"); i >= 0 {
		return href[i+1:]
	}
	return href
}
