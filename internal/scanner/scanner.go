// Package scanner drives one network site through the crawl stages.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/PuerkitoBio/goquery"

	"LocalNewsMapper/internal/domain"
	"LocalNewsMapper/internal/infrastructure/cache"
	"LocalNewsMapper/internal/infrastructure/parser"
	"LocalNewsMapper/internal/ports"
)

var (
	// errSkipSite ends the visit of a site without failing the run.
	errSkipSite = errors.New("site skipped")
	// errIncomplete marks a stage that ran but produced nothing to record.
	errIncomplete = errors.New("stage incomplete")
)

// DefaultCutoff is the first publication day counted as a politics article.
var DefaultCutoff = time.Date(2020, time.September, 1, 0, 0, 0, 0, time.UTC)

const defaultLocaleAttempts = 4

// Options tunes a scan; zero values fall back to the defaults.
type Options struct {
	PreferLocal     bool
	BrokenLinks     []string
	ExcludedAuthors []string
	Cutoff          time.Time
	LocaleAttempts  int
	// Diagnostics receives the "network error <url>" lines for unreachable sites.
	Diagnostics io.Writer
}

// Deps are the adapters used by the stages. Geocoder and Civic may be nil, in
// which case only cached API answers are used.
type Deps struct {
	Registry *domain.Registry
	Pages    *cache.Store
	Geocoder ports.Geocoder
	Civic    ports.CivicInfo
}

// SiteScanner runs the ordered stages against one site at a time.
type SiteScanner struct {
	reg      *domain.Registry
	pages    *cache.Store
	geocoder ports.Geocoder
	civic    ports.CivicInfo

	opts     Options
	broken   domain.Set
	excluded domain.Set
	logger   *slog.Logger
}

// visit carries the per-site state shared between stages.
type visit struct {
	site *domain.Site
	root *goquery.Document
}

type step struct {
	stage domain.Stage
	run   func(ctx context.Context, v *visit) error
}

// NewSiteScanner wires the stage dependencies.
func NewSiteScanner(deps Deps, opts Options, logger *slog.Logger) *SiteScanner {
	if opts.Cutoff.IsZero() {
		opts.Cutoff = DefaultCutoff
	}
	if opts.LocaleAttempts <= 0 {
		opts.LocaleAttempts = defaultLocaleAttempts
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = os.Stdout
	}

	broken := domain.NewSet()
	for _, link := range opts.BrokenLinks {
		broken.Add(domain.NormalizeURL(link))
	}

	return &SiteScanner{
		reg:      deps.Registry,
		pages:    deps.Pages,
		geocoder: deps.Geocoder,
		civic:    deps.Civic,
		opts:     opts,
		broken:   broken,
		excluded: domain.NewSet(opts.ExcludedAuthors...),
		logger:   logger,
	}
}

func (s *SiteScanner) steps() []step {
	return []step{
		{domain.StageHTMLFetched, s.fetchRoot},
		{domain.StageArticlesExtracted, s.extractArticles},
		{domain.StageAuthorsExtracted, s.extractAuthors},
		{domain.StagePoliticsExtracted, s.extractPolitics},
		{domain.StageGeolocated, s.geolocate},
		{domain.StageOfficialsResolved, s.resolveOfficials},
	}
}

// Scan visits site. Stage failures are logged and recorded on the site; only a
// cancelled context is returned as an error.
func (s *SiteScanner) Scan(ctx context.Context, site *domain.Site) error {
	if s.broken.Has(domain.NormalizeURL(site.URL)) {
		site.Skip()
		s.debug("skip known broken link", "site", site.Name, "url", site.URL)
		return nil
	}

	if err := s.reg.ResolvePostalState(site); err != nil {
		s.warn("postal state unresolved", "site", site.Name, "error", err)
	}

	v := &visit{site: site}
	for _, st := range s.steps() {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := st.run(ctx, v)
		switch {
		case err == nil:
			site.Stage = st.stage
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, errSkipSite):
			site.Skip()
			return nil
		case errors.Is(err, errIncomplete):
			s.debug("stage incomplete", "site", site.Name, "stage", st.stage, "reason", err)
		default:
			s.warn("stage failed", "site", site.Name, "stage", st.stage, "error", err)
		}
	}

	s.debug("site scanned", "site", site.Name, "stage", site.Stage,
		"articles", site.ArticleSet.Len(), "recent_politics", site.LocalRecentPolitics.Len())
	return nil
}

func (s *SiteScanner) fetchRoot(ctx context.Context, v *visit) error {
	site := v.site
	path := s.pages.Path(site.ShortSlug, cache.PurposeRoot)

	content, err := s.pages.ReadOrFetch(ctx, path, site.URL, s.opts.PreferLocal)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintln(s.opts.Diagnostics, "network error", site.URL)
		s.warn("site unreachable", "site", site.Name, "error", err)
		return fmt.Errorf("%w: %v", errSkipSite, err)
	}
	site.HasHTML = true

	doc, err := parser.Parse(content)
	if err != nil {
		s.warn("root page unreadable", "site", site.Name, "error", err)
	}
	v.root = doc
	return nil
}

func (s *SiteScanner) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *SiteScanner) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
