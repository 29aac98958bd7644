package scanner

import (
	"context"
	"fmt"
	"strings"

	"LocalNewsMapper/internal/domain"
	"LocalNewsMapper/internal/infrastructure/parser"
)

const externalPrefix = "https://"

// articleURL resolves a card href against the site. Relative links belong to
// the site itself; absolute ones point at another host.
func articleURL(site *domain.Site, href string) (url string, local bool) {
	href = strings.ToLower(strings.TrimSpace(href))
	if strings.HasPrefix(href, externalPrefix) {
		return domain.NormalizeURL(href), false
	}
	return domain.NormalizeURL(strings.ToLower(site.URL) + href), true
}

func (s *SiteScanner) extractArticles(_ context.Context, v *visit) error {
	if v.root == nil {
		return fmt.Errorf("%w: no root document", errIncomplete)
	}
	site := v.site

	cards := parser.ExtractArticleCards(v.root)
	for _, card := range cards {
		url, local := articleURL(site, card.Href)
		if url == "" {
			continue
		}

		article := s.reg.UpsertArticle(card.Title, url, domain.ShortSlug(url))
		article.SiteSet.Add(site.Name)
		site.ArticleSet.Add(url)
		if local {
			site.LocalArticles.Add(url)
		}
	}

	s.debug("articles extracted", "site", site.Name, "cards", len(cards), "local", site.LocalArticles.Len())
	return nil
}

func (s *SiteScanner) extractAuthors(_ context.Context, v *visit) error {
	if v.root == nil {
		return fmt.Errorf("%w: no root document", errIncomplete)
	}
	site := v.site

	credited := 0
	for _, card := range parser.ExtractAuthorCards(v.root) {
		if s.excluded.Has(card.Name) {
			continue
		}
		url, _ := articleURL(site, card.Href)
		if url == "" {
			continue
		}

		article := s.reg.UpsertArticle(card.Title, url, domain.ShortSlug(url))
		article.SiteSet.Add(site.Name)
		site.ArticleSet.Add(url)

		if _, err := s.reg.CreditAuthor(url, card.Name); err != nil {
			return fmt.Errorf("credit front page author: %w", err)
		}
		credited++
	}

	s.debug("authors extracted", "site", site.Name, "credited", credited)
	return nil
}
