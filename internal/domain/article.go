package domain

import "time"

// Article is a story discovered on one or more sites. The normalized URL is its identity.
type Article struct {
	URL     string     `json:"url"`
	Title   string     `json:"title"`
	Number  string     `json:"number,omitempty"`
	Author  *string    `json:"author"`
	Date    *time.Time `json:"date"`
	Home    string     `json:"home"`
	SiteSet Set        `json:"site_set"`
}

// NewArticle builds an article with empty cross-reference sets.
func NewArticle(title, url, home string) *Article {
	return &Article{
		URL:     url,
		Title:   title,
		Number:  StoryNumber(url),
		Home:    home,
		SiteSet: NewSet(),
	}
}

// AuthorName returns the credited byline or an empty string.
func (a *Article) AuthorName() string {
	if a.Author == nil {
		return ""
	}
	return *a.Author
}

func (a *Article) String() string {
	return a.URL
}

// Author is a byline string seen on a site front page or politics listing.
// Two people sharing a byline collapse into one Author.
type Author struct {
	Name       string `json:"name"`
	ArticleSet Set    `json:"article_set"`

	network      []NetworkPoint
	networkBuilt bool
}

// NetworkPoint places one of an author's articles on the map of its home site.
type NetworkPoint struct {
	SiteName string
	MLat     float64
	MLng     float64
	Count    int
}

// NewAuthor builds an author with no credited articles.
func NewAuthor(name string) *Author {
	return &Author{Name: name, ArticleSet: NewSet()}
}

func (a *Author) String() string {
	return a.Name
}
