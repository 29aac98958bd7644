package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PoliticsCard is one entry of a politics tag listing. Rule names the byline
// layout that matched.
type PoliticsCard struct {
	Title  string
	Href   string
	Date   string
	Author string
	Rule   string
}

// bylineRule locates the author/date block relative to a card title.
type bylineRule struct {
	name   string
	locate func(title *goquery.Selection) *goquery.Selection
}

// Listings render the byline either right after the title or one element later;
// both layouts occur and are tried in this order.
var bylineRules = []bylineRule{
	{
		name:   "adjacent",
		locate: func(title *goquery.Selection) *goquery.Selection { return title.Next() },
	},
	{
		name:   "second-sibling",
		locate: func(title *goquery.Selection) *goquery.Selection { return title.Next().Next() },
	},
}

// ExtractPoliticsCards walks ".card-title.title" entries and pairs each with its
// byline block. Entries whose byline cannot be located are skipped.
func ExtractPoliticsCards(doc *goquery.Document) []PoliticsCard {
	if doc == nil {
		return nil
	}

	var cards []PoliticsCard
	doc.Find(".card-title.title").Each(func(_ int, title *goquery.Selection) {
		href, ok := title.Find("a").First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		for _, rule := range bylineRules {
			block := rule.locate(title)
			if !isByline(block) {
				continue
			}
			author := cleanText(block.Find("a").First().Text())
			date := cleanText(block.Find(".grey").First().Text())
			if author == "" || date == "" {
				return
			}
			cards = append(cards, PoliticsCard{
				Title:  cleanText(title.Text()),
				Href:   strings.TrimSpace(href),
				Date:   date,
				Author: author,
				Rule:   rule.name,
			})
			return
		}
	})

	return cards
}

func isByline(block *goquery.Selection) bool {
	if block == nil || block.Length() == 0 {
		return false
	}
	return block.HasClass("card-author") || block.Find(".card-author").Length() > 0
}
