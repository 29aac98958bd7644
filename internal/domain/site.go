package domain

import "strings"

// Stage is the last pipeline step a site completed, or StageSkipped when the
// visit ended early.
type Stage string

const (
	StagePending           Stage = "pending"
	StageHTMLFetched       Stage = "html_fetched"
	StageArticlesExtracted Stage = "articles_extracted"
	StageAuthorsExtracted  Stage = "authors_extracted"
	StagePoliticsExtracted Stage = "politics_extracted"
	StageGeolocated        Stage = "geolocated"
	StageOfficialsResolved Stage = "officials_resolved"
	StageSkipped           Stage = "skipped"
)

// Site is one franchise website listed on the network directory page.
type Site struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ShortSlug   string `json:"short_slug"`
	State       string `json:"state"`
	PostalState string `json:"postal_state"`

	HasHTML bool     `json:"has_html"`
	Stage   Stage    `json:"stage"`
	Skipped bool     `json:"skipped"`
	Locales []string `json:"locales,omitempty"`

	Address *string  `json:"address"`
	ZipCode *string  `json:"zip_code"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	MLat    *float64 `json:"mlat"`
	MLng    *float64 `json:"mlng"`

	ArticleSet           Set `json:"article_set"`
	LocalArticles        Set `json:"local_articles"`
	LocalWrittenArticles Set `json:"local_written_articles"`
	LocalRecentPolitics  Set `json:"local_recent_politics"`
	Officials            Set `json:"officials"`
}

// Skip ends the visit of the site.
func (s *Site) Skip() {
	s.Skipped = true
	s.Stage = StageSkipped
}

// NewSite builds a site in the pending stage.
func NewSite(name, url, state string) *Site {
	return &Site{
		Name:                 name,
		URL:                  url,
		ShortSlug:            ShortSlug(url),
		State:                state,
		Stage:                StagePending,
		ArticleSet:           NewSet(),
		LocalArticles:        NewSet(),
		LocalWrittenArticles: NewSet(),
		LocalRecentPolitics:  NewSet(),
		Officials:            NewSet(),
	}
}

func (s *Site) String() string {
	return s.Name
}

// SetLocation records a geocoding result and refreshes the projection.
func (s *Site) SetLocation(address, zip string, lat, lng float64) {
	s.Address = &address
	if zip != "" {
		s.ZipCode = &zip
	}
	s.Lat = &lat
	s.Lng = &lng
	s.Mercator()
}

// Mercator recomputes MLat/MLng. Sites without a usable coordinate pair keep nil projections.
func (s *Site) Mercator() {
	if s.Lat == nil || s.Lng == nil || *s.Lat == 0 || *s.Lng == 0 {
		s.MLat, s.MLng = nil, nil
		return
	}
	mlat, mlng := Mercator(*s.Lat, *s.Lng)
	s.MLat, s.MLng = &mlat, &mlng
}

// FallbackLocale is the site name without its last word followed by the state,
// e.g. "Tampa Bay Times" in "Florida" -> "Tampa Bay Florida".
func (s *Site) FallbackLocale() string {
	words := strings.Fields(s.Name)
	if len(words) > 0 {
		words = words[:len(words)-1]
	}
	return strings.Join(append(words, s.State), " ")
}
