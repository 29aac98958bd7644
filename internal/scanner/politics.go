package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"LocalNewsMapper/internal/domain"
	"LocalNewsMapper/internal/infrastructure/cache"
	"LocalNewsMapper/internal/infrastructure/parser"
)

const (
	politicsPath = "/stories/tag/126-politics"
	localPrefix  = "/stories/"
)

// publicationDay parses a listing date and truncates it to a UTC calendar day.
func publicationDay(raw string) (time.Time, error) {
	t, err := dateparse.ParseIn(strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// classifyDay reports whether a politics article dated day is kept at all and
// whether it counts as recent. The cutoff day itself is kept but not recent.
func classifyDay(day, cutoff time.Time) (include, recent bool) {
	return !day.Before(cutoff), day.After(cutoff)
}

func (s *SiteScanner) extractPolitics(ctx context.Context, v *visit) error {
	site := v.site
	path := s.pages.Path(site.ShortSlug, cache.PurposePolitics)

	content, err := s.pages.ReadOrFetch(ctx, path, site.URL+politicsPath, s.opts.PreferLocal)
	if err != nil {
		return fmt.Errorf("bad politics %s: %w", site.URL, err)
	}
	doc, err := parser.Parse(content)
	if err != nil {
		if errors.Is(err, parser.ErrNoDocument) {
			return fmt.Errorf("%w: %v", errIncomplete, err)
		}
		return err
	}

	kept := 0
	for _, card := range parser.ExtractPoliticsCards(doc) {
		if s.excluded.Has(card.Author) {
			continue
		}
		day, err := publicationDay(card.Date)
		if err != nil {
			s.debug("drop politics card", "site", site.Name, "href", card.Href, "error", err)
			continue
		}
		include, recent := classifyDay(day, s.opts.Cutoff)
		if !include {
			continue
		}

		href := strings.ToLower(strings.TrimSpace(card.Href))
		local := strings.HasPrefix(href, localPrefix)
		if !local && !strings.HasPrefix(href, externalPrefix) {
			continue
		}
		url := domain.NormalizeURL(href)
		home := domain.ShortSlug(url)
		if local {
			url = domain.NormalizeURL(site.URL + href)
			home = site.ShortSlug
		}

		article := s.reg.UpsertArticle(card.Title, url, home)
		published := day
		article.Date = &published
		article.SiteSet.Add(site.Name)
		if _, err := s.reg.CreditAuthor(url, card.Author); err != nil {
			return fmt.Errorf("credit politics author: %w", err)
		}

		site.ArticleSet.Add(url)
		if local {
			site.LocalArticles.Add(url)
			site.LocalWrittenArticles.Add(url)
			if recent {
				site.LocalRecentPolitics.Add(url)
			}
		}
		kept++
	}

	s.debug("politics extracted", "site", site.Name, "kept", kept, "recent", site.LocalRecentPolitics.Len())
	return nil
}
