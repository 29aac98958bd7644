package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ArticleCard is a link that carries a title attribute and visible text.
type ArticleCard struct {
	Title string
	Href  string
}

// AuthorCard pairs a byline with the article link it belongs to.
type AuthorCard struct {
	Name  string
	Title string
	Href  string
}

// ExtractArticleCards returns every element with href, title and a single text
// string. Identical cards are reported once, in page order.
func ExtractArticleCards(doc *goquery.Document) []ArticleCard {
	if doc == nil {
		return nil
	}

	var cards []ArticleCard
	seen := map[ArticleCard]struct{}{}

	doc.Find("[href][title]").Each(func(_ int, sel *goquery.Selection) {
		if singleString(sel.Nodes[0]) == "" {
			return
		}
		title, _ := sel.Attr("title")
		href, _ := sel.Attr("href")

		card := ArticleCard{
			Title: strings.TrimSpace(title),
			Href:  strings.ToLower(strings.TrimSpace(href)),
		}
		if card.Href == "" {
			return
		}
		if _, ok := seen[card]; ok {
			return
		}
		seen[card] = struct{}{}
		cards = append(cards, card)
	})

	return cards
}

// ExtractAuthorCards returns the bylines tagged "card-author". The article link is
// the nearest following sibling anchor with a title, or failing that the first
// titled anchor in the byline's parent. Bylines without a link are dropped.
func ExtractAuthorCards(doc *goquery.Document) []AuthorCard {
	if doc == nil {
		return nil
	}

	var cards []AuthorCard
	doc.Find(".card-author").Each(func(_ int, sel *goquery.Selection) {
		name := bylineName(sel.Text())
		if name == "" {
			return
		}

		link := followingTitledAnchor(sel)
		if link == nil {
			link = sel.Parent().Find("a[title]").First()
		}
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		title, _ := link.Attr("title")
		cards = append(cards, AuthorCard{
			Name:  name,
			Title: strings.TrimSpace(title),
			Href:  strings.ToLower(strings.TrimSpace(href)),
		})
	})

	return cards
}

func followingTitledAnchor(sel *goquery.Selection) *goquery.Selection {
	var found *goquery.Selection
	sel.NextAll().EachWithBreak(func(_ int, sib *goquery.Selection) bool {
		if sib.Is("a[title]") {
			found = sib
			return false
		}
		if inner := sib.Find("a[title]"); inner.Length() > 0 {
			found = inner.First()
			return false
		}
		return true
	})
	return found
}

// bylineName strips everything up to the last "By " from a byline.
func bylineName(text string) string {
	text = cleanText(text) + " "
	if i := strings.LastIndex(text, "By "); i >= 0 {
		text = text[i+len("By "):]
	}
	return strings.TrimSpace(text)
}
