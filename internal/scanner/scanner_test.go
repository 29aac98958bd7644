package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LocalNewsMapper/internal/domain"
	"LocalNewsMapper/internal/infrastructure/cache"
	"LocalNewsMapper/internal/infrastructure/fetch"
)

const siteURL = "https://tampatoday.com"

const rootHTML = `<html><body>
<div class="card">
  <a href="/stories/511111111-council-meets" title="Council meets">Council meets</a>
  <span class="card-author">By Jane Roe</span>
</div>
<div class="card">
  <span class="card-author">By Metric Media News Service</span>
  <a href="/stories/522222222-wire-story" title="Wire story">Wire story</a>
</div>
<div class="card">
  <a href="https://othertimes.com/stories/533333333-elsewhere" title="Elsewhere">Elsewhere</a>
</div>
</body></html>`

const politicsHTML = `<html><body>
<div class="card">
  <h5 class="card-title title"><a href="/stories/544444444-recent">Recent vote</a></h5>
  <p class="card-author">By <a href="/author/john">John Doe</a> <span class="grey">Sep 14, 2020</span></p>
</div>
<div class="card">
  <h5 class="card-title title"><a href="/stories/555555555-cutoff">Cutoff day</a></h5>
  <p class="card-text">teaser</p>
  <div><span class="card-author"><a href="/author/john">John Doe</a></span><span class="grey">Sep 1, 2020</span></div>
</div>
<div class="card">
  <h5 class="card-title title"><a href="/stories/566666666-old">Old news</a></h5>
  <p class="card-author"><a href="/author/john">John Doe</a> <span class="grey">Aug 31, 2020</span></p>
</div>
<div class="card">
  <h5 class="card-title title"><a href="/stories/577777777-release">Release</a></h5>
  <p class="card-author"><a href="/author/pr">Press release submission</a> <span class="grey">Oct 1, 2020</span></p>
</div>
<div class="card">
  <h5 class="card-title title"><a href="https://othertimes.com/stories/588888888-shared">Shared</a></h5>
  <p class="card-author"><a href="/author/john">John Doe</a> <span class="grey">Oct 5, 2020</span></p>
</div>
<div class="card">
  <h5 class="card-title title"><a href="/stories/599999999-undated">Undated</a></h5>
  <p class="card-author"><a href="/author/john">John Doe</a> <span class="grey">sometime soon</span></p>
</div>
</body></html>`

const businessHTML = `<p>Visit 123 Main St, Tampa, FL Zip 33602. Our other desk: zip code 33606 here. zip unknown</p>`

const geocodeJSON = `{"status":"OK","results":[{"formatted_address":"Tampa, FL 33602, USA",
"address_components":[{"long_name":"33602","types":["postal_code"]}],
"geometry":{"location":{"lat":27.95,"lng":-82.46}}}]}`

const civicJSON = `{"offices":[{"name":"U.S. Senator","divisionId":"ocd-division/country:us/state:fl","officialIndices":[0]}],
"officials":[{"name":"Jane Senator","party":"Republican Party"}]}`

var badAuthors = []string{"Metric Media News Service", "Press release submission"}

type stubFetcher struct {
	pages map[string]string
	calls []string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	body, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s", fetch.ErrUnavailable, url)
	}
	return []byte(body), nil
}

type stubGeocoder struct {
	payloads map[string]string
	err      error
	calls    []string
}

func (g *stubGeocoder) Geocode(_ context.Context, locale string) ([]byte, error) {
	g.calls = append(g.calls, locale)
	if g.err != nil {
		return nil, g.err
	}
	if body, ok := g.payloads[locale]; ok {
		return []byte(body), nil
	}
	return []byte(`{"status":"ZERO_RESULTS","results":[]}`), nil
}

type stubCivic struct {
	payload string
	err     error
	calls   []string
}

func (c *stubCivic) Representatives(_ context.Context, address string) ([]byte, error) {
	c.calls = append(c.calls, address)
	if c.err != nil {
		return nil, c.err
	}
	return []byte(c.payload), nil
}

func newRegistry() (*domain.Registry, *domain.Site) {
	reg := domain.NewRegistry()
	reg.UpsertState("Florida", "FL", 27.6648274, -81.5157535)
	site := reg.UpsertSite("Tampa Today", siteURL, "Florida")
	return reg, site
}

func TestDeriveLocales(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want []string
	}{
		{"single marker", "Our office ZIP 33602 downtown", []string{"33602"}},
		{"several markers deduplicated", "zip 33606, zip 33602 and zip 33602", []string{"33602", "33606"}},
		{"digits beyond the window", "zip code is, as always, 33602", []string{"Tampa Florida"}},
		{"no marker", "call 555-33602 today", []string{"Tampa Florida"}},
		{"marker without digits", "zip unknown", []string{"Tampa Florida"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveLocales(tc.text, "Tampa Florida"))
		})
	}
}

func TestClassifyDay(t *testing.T) {
	t.Parallel()

	day := func(raw string) time.Time {
		d, err := publicationDay(raw)
		require.NoError(t, err)
		return d
	}

	include, recent := classifyDay(day("Aug 31, 2020"), DefaultCutoff)
	assert.False(t, include)
	assert.False(t, recent)

	include, recent = classifyDay(day("September 1, 2020"), DefaultCutoff)
	assert.True(t, include)
	assert.False(t, recent)

	include, recent = classifyDay(day("2020-09-02"), DefaultCutoff)
	assert.True(t, include)
	assert.True(t, recent)

	_, err := publicationDay("not a date")
	assert.Error(t, err)
}

func TestScanFullSite(t *testing.T) {
	t.Parallel()

	reg, site := newRegistry()
	fetcher := &stubFetcher{pages: map[string]string{
		siteURL:                rootHTML,
		siteURL + politicsPath: politicsHTML,
		siteURL + businessPath: businessHTML,
	}}
	geocoder := &stubGeocoder{payloads: map[string]string{"33602": geocodeJSON}}
	civic := &stubCivic{payload: civicJSON}
	pages := cache.NewStore(t.TempDir(), fetcher, nil)

	s := NewSiteScanner(Deps{Registry: reg, Pages: pages, Geocoder: geocoder, Civic: civic},
		Options{ExcludedAuthors: badAuthors, Diagnostics: &bytes.Buffer{}}, nil)
	require.NoError(t, s.Scan(context.Background(), site))

	assert.Equal(t, domain.StageOfficialsResolved, site.Stage)
	assert.False(t, site.Skipped)
	assert.True(t, site.HasHTML)
	assert.Equal(t, "FL", site.PostalState)

	council := siteURL + "/stories/511111111-council-meets"
	wire := siteURL + "/stories/522222222-wire-story"
	elsewhere := "https://othertimes.com/stories/533333333-elsewhere"
	recent := siteURL + "/stories/544444444-recent"
	cutoff := siteURL + "/stories/555555555-cutoff"
	shared := "https://othertimes.com/stories/588888888-shared"

	assert.ElementsMatch(t, []string{council, wire, elsewhere, recent, cutoff, shared}, site.ArticleSet.Sorted())
	assert.ElementsMatch(t, []string{council, wire, recent, cutoff}, site.LocalArticles.Sorted())
	assert.ElementsMatch(t, []string{recent, cutoff}, site.LocalWrittenArticles.Sorted())
	assert.Equal(t, []string{recent}, site.LocalRecentPolitics.Sorted())

	assert.NotContains(t, reg.Authors, "Metric Media News Service")
	assert.NotContains(t, reg.Authors, "Press release submission")
	assert.NotContains(t, reg.Articles, siteURL+"/stories/577777777-release")
	assert.NotContains(t, reg.Articles, siteURL+"/stories/566666666-old")
	assert.NotContains(t, reg.Articles, siteURL+"/stories/599999999-undated")
	assert.Nil(t, reg.Articles[wire].Author)

	require.Contains(t, reg.Authors, "Jane Roe")
	assert.Equal(t, []string{council}, reg.Authors["Jane Roe"].ArticleSet.Sorted())
	assert.ElementsMatch(t, []string{recent, cutoff, shared}, reg.Authors["John Doe"].ArticleSet.Sorted())

	require.NotNil(t, reg.Articles[recent].Date)
	assert.Equal(t, time.Date(2020, 9, 14, 0, 0, 0, 0, time.UTC), *reg.Articles[recent].Date)
	assert.Equal(t, "othertimes", reg.Articles[shared].Home)
	assert.Equal(t, "tampatoday", reg.Articles[recent].Home)

	assert.Equal(t, []string{"33602", "33606"}, site.Locales)
	assert.Equal(t, []string{"33602"}, geocoder.calls)
	require.NotNil(t, site.Address)
	assert.Equal(t, "Tampa, FL 33602, USA", *site.Address)
	require.NotNil(t, site.MLat)

	assert.Equal(t, []string{"Tampa, FL 33602, USA"}, civic.calls)
	assert.Equal(t, []string{"FL Jane Senator"}, site.Officials.Sorted())

	for _, purpose := range []cache.Purpose{cache.PurposeRoot, cache.PurposePolitics, cache.PurposeBusiness, cache.PurposeGeocode, cache.PurposeCivic} {
		assert.True(t, pages.Exists(pages.Path(site.ShortSlug, purpose)), "purpose %d not cached", purpose)
	}

	reg.TallyRecentPolitics()
	assert.Equal(t, 1, reg.States["Florida"].LocalRecentPolitics)
}

func TestScanSkipsBrokenLink(t *testing.T) {
	t.Parallel()

	reg, site := newRegistry()
	fetcher := &stubFetcher{pages: map[string]string{siteURL: rootHTML}}
	pages := cache.NewStore(t.TempDir(), fetcher, nil)

	s := NewSiteScanner(Deps{Registry: reg, Pages: pages},
		Options{BrokenLinks: []string{"https://TampaToday.com"}, Diagnostics: &bytes.Buffer{}}, nil)
	require.NoError(t, s.Scan(context.Background(), site))

	assert.True(t, site.Skipped)
	assert.Equal(t, domain.StageSkipped, site.Stage)
	assert.Empty(t, fetcher.calls)
	assert.Empty(t, reg.Articles)
}

func TestScanReportsUnreachableSite(t *testing.T) {
	t.Parallel()

	reg, site := newRegistry()
	fetcher := &stubFetcher{}
	pages := cache.NewStore(t.TempDir(), fetcher, nil)
	var diag bytes.Buffer

	s := NewSiteScanner(Deps{Registry: reg, Pages: pages}, Options{Diagnostics: &diag}, nil)
	require.NoError(t, s.Scan(context.Background(), site))

	assert.Equal(t, "network error "+siteURL+"\n", diag.String())
	assert.True(t, site.Skipped)
	assert.Equal(t, domain.StageSkipped, site.Stage)
	assert.False(t, site.HasHTML)
	assert.Equal(t, []string{siteURL}, fetcher.calls)
}

func TestScanPrefersCacheAndRetriesBusinessPage(t *testing.T) {
	t.Parallel()

	reg, site := newRegistry()
	fetcher := &stubFetcher{}
	pages := cache.NewStore(t.TempDir(), fetcher, nil)
	require.NoError(t, pages.Write(pages.Path(site.ShortSlug, cache.PurposeRoot), []byte(rootHTML)))

	s := NewSiteScanner(Deps{Registry: reg, Pages: pages},
		Options{PreferLocal: true, Diagnostics: &bytes.Buffer{}}, nil)
	require.NoError(t, s.Scan(context.Background(), site))

	assert.True(t, site.HasHTML)
	assert.Equal(t, domain.StageAuthorsExtracted, site.Stage)
	assert.Len(t, site.ArticleSet, 3)
	assert.Equal(t, []string{"Florida"}, site.Locales)

	politics := 0
	business := 0
	for _, url := range fetcher.calls {
		switch url {
		case siteURL + politicsPath:
			politics++
		case siteURL + businessPath:
			business++
		default:
			t.Fatalf("unexpected fetch of %s", url)
		}
	}
	assert.Equal(t, 1, politics)
	assert.Equal(t, defaultLocaleAttempts, business)
}

func TestScanUsesCachedGeocodeAndCivic(t *testing.T) {
	t.Parallel()

	reg, site := newRegistry()
	pages := cache.NewStore(t.TempDir(), &stubFetcher{}, nil)
	for purpose, body := range map[cache.Purpose]string{
		cache.PurposeRoot:     rootHTML,
		cache.PurposePolitics: politicsHTML,
		cache.PurposeBusiness: businessHTML,
		cache.PurposeGeocode:  geocodeJSON,
		cache.PurposeCivic:    civicJSON,
	} {
		require.NoError(t, pages.Write(pages.Path(site.ShortSlug, purpose), []byte(body)))
	}

	s := NewSiteScanner(Deps{Registry: reg, Pages: pages},
		Options{PreferLocal: true, ExcludedAuthors: badAuthors, Diagnostics: &bytes.Buffer{}}, nil)
	require.NoError(t, s.Scan(context.Background(), site))

	assert.Equal(t, domain.StageOfficialsResolved, site.Stage)
	require.NotNil(t, site.ZipCode)
	assert.Equal(t, "33602", *site.ZipCode)
	assert.Equal(t, []string{"33602", "33606"}, site.Locales)
	assert.Contains(t, reg.Officials, "FL Jane Senator")
}

func TestScanFallsBackToCachedAnswersWhenAPIsFail(t *testing.T) {
	t.Parallel()

	reg, site := newRegistry()
	fetcher := &stubFetcher{pages: map[string]string{
		siteURL:                rootHTML,
		siteURL + politicsPath: politicsHTML,
		siteURL + businessPath: businessHTML,
	}}
	pages := cache.NewStore(t.TempDir(), fetcher, nil)
	require.NoError(t, pages.Write(pages.Path(site.ShortSlug, cache.PurposeGeocode), []byte(geocodeJSON)))
	require.NoError(t, pages.Write(pages.Path(site.ShortSlug, cache.PurposeCivic), []byte(civicJSON)))

	quota := errors.New("quota exceeded")
	geocoder := &stubGeocoder{err: quota}
	civic := &stubCivic{err: quota}

	s := NewSiteScanner(Deps{Registry: reg, Pages: pages, Geocoder: geocoder, Civic: civic},
		Options{ExcludedAuthors: badAuthors, Diagnostics: &bytes.Buffer{}}, nil)
	require.NoError(t, s.Scan(context.Background(), site))

	assert.Equal(t, []string{"33602", "33606"}, geocoder.calls)
	assert.Len(t, civic.calls, 1)
	assert.Equal(t, domain.StageOfficialsResolved, site.Stage)
	require.NotNil(t, site.Address)
	assert.Equal(t, "Tampa, FL 33602, USA", *site.Address)
	assert.Equal(t, []string{"FL Jane Senator"}, site.Officials.Sorted())
}

func TestScanWithoutCachedAnswersLeavesSiteUnlocated(t *testing.T) {
	t.Parallel()

	reg, site := newRegistry()
	fetcher := &stubFetcher{pages: map[string]string{
		siteURL:                rootHTML,
		siteURL + politicsPath: politicsHTML,
		siteURL + businessPath: businessHTML,
	}}
	pages := cache.NewStore(t.TempDir(), fetcher, nil)
	geocoder := &stubGeocoder{err: errors.New("quota exceeded")}

	s := NewSiteScanner(Deps{Registry: reg, Pages: pages, Geocoder: geocoder},
		Options{Diagnostics: &bytes.Buffer{}}, nil)
	require.NoError(t, s.Scan(context.Background(), site))

	assert.Equal(t, domain.StagePoliticsExtracted, site.Stage)
	assert.Nil(t, site.Address)
	assert.Empty(t, site.Officials)
}

func TestScanMergesFrontPageAndPoliticsArticle(t *testing.T) {
	t.Parallel()

	const front = `<html><body>
<div class="card"><a href="/Stories/544444444-Recent" title="Recent vote">Recent vote</a></div>
</body></html>`
	const listing = `<html><body>
<div class="card">
  <h5 class="card-title title"><a href="/stories/544444444-recent">Recent vote</a></h5>
  <p class="card-author">By <a href="/author/john">John Doe</a> <span class="grey">Sep 14, 2020</span></p>
</div>
</body></html>`

	reg, site := newRegistry()
	fetcher := &stubFetcher{pages: map[string]string{
		siteURL:                front,
		siteURL + politicsPath: listing,
	}}
	pages := cache.NewStore(t.TempDir(), fetcher, nil)

	s := NewSiteScanner(Deps{Registry: reg, Pages: pages}, Options{Diagnostics: &bytes.Buffer{}}, nil)
	require.NoError(t, s.Scan(context.Background(), site))

	url := siteURL + "/stories/544444444-recent"
	require.Len(t, reg.Articles, 1)
	require.Contains(t, reg.Articles, url)

	article := reg.Articles[url]
	require.NotNil(t, article.Date)
	assert.Equal(t, time.Date(2020, 9, 14, 0, 0, 0, 0, time.UTC), *article.Date)
	assert.Equal(t, "John Doe", article.AuthorName())
	assert.Equal(t, []string{"Tampa Today"}, article.SiteSet.Sorted())
	assert.Equal(t, []string{url}, site.ArticleSet.Sorted())
	assert.Equal(t, []string{url}, site.LocalRecentPolitics.Sorted())
}

func TestScanStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	reg, site := newRegistry()
	pages := cache.NewStore(t.TempDir(), &stubFetcher{}, nil)
	s := NewSiteScanner(Deps{Registry: reg, Pages: pages}, Options{Diagnostics: &bytes.Buffer{}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Scan(ctx, site), context.Canceled)
	assert.False(t, site.Skipped)
}
