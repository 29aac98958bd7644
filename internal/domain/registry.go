package domain

import (
	"errors"
	"fmt"
)

// ErrSiteNotFound signals a short slug that belongs to no known site, usually an
// article hosted outside the network.
var ErrSiteNotFound = errors.New("site not found")

// Registry owns every entity discovered during a run.
type Registry struct {
	Sites     map[string]*Site     `json:"sites"`
	Authors   map[string]*Author   `json:"authors"`
	States    map[string]*State    `json:"states"`
	Articles  map[string]*Article  `json:"articles"`
	Officials map[string]*Official `json:"officials"`

	slugIndex map[string]string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		Sites:     map[string]*Site{},
		Authors:   map[string]*Author{},
		States:    map[string]*State{},
		Articles:  map[string]*Article{},
		Officials: map[string]*Official{},
	}
}

// Upsert returns the entity stored at key, creating it with factory when absent.
// The boolean reports whether a new entity was inserted.
func Upsert[V any](m map[string]*V, key string, factory func() *V) (*V, bool) {
	if existing, ok := m[key]; ok {
		return existing, false
	}
	created := factory()
	m[key] = created
	return created, true
}

// UpsertSite returns the site for url, creating it if needed.
func (r *Registry) UpsertSite(name, url, state string) *Site {
	site, created := Upsert(r.Sites, url, func() *Site {
		return NewSite(name, url, state)
	})
	if created {
		r.slugIndex = nil
	}
	return site
}

// UpsertArticle returns the article for url, creating it if needed.
func (r *Registry) UpsertArticle(title, url, home string) *Article {
	article, _ := Upsert(r.Articles, url, func() *Article {
		return NewArticle(title, url, home)
	})
	return article
}

// UpsertAuthor returns the author for name, creating it if needed.
func (r *Registry) UpsertAuthor(name string) *Author {
	author, _ := Upsert(r.Authors, name, func() *Author {
		return NewAuthor(name)
	})
	return author
}

// UpsertState returns the state for name, creating it if needed.
func (r *Registry) UpsertState(name, postal string, lat, lng float64) *State {
	state, _ := Upsert(r.States, name, func() *State {
		return NewState(name, postal, lat, lng)
	})
	return state
}

// UpsertOfficial returns the official keyed by postal state and name, creating it if needed.
func (r *Registry) UpsertOfficial(state, name, role, district string, party *string) *Official {
	official, _ := Upsert(r.Officials, OfficialKey(state, name), func() *Official {
		return NewOfficial(state, name, role, district, party)
	})
	return official
}

// CreditAuthor attributes an existing article to name, moving it out of any
// previously credited author's set.
func (r *Registry) CreditAuthor(articleURL, name string) (*Author, error) {
	article, ok := r.Articles[articleURL]
	if !ok {
		return nil, fmt.Errorf("credit %s: article %s is not registered", name, articleURL)
	}
	if prev := article.AuthorName(); prev != "" && prev != name {
		if old, ok := r.Authors[prev]; ok {
			old.ArticleSet.Remove(articleURL)
			old.networkBuilt = false
		}
	}

	author := r.UpsertAuthor(name)
	credited := name
	article.Author = &credited
	if author.ArticleSet.Add(articleURL) {
		author.networkBuilt = false
	}
	return author, nil
}

// ResolveShortNameToSite maps a short slug back to its site.
func (r *Registry) ResolveShortNameToSite(slug string) (*Site, error) {
	if r.slugIndex == nil {
		r.slugIndex = make(map[string]string, len(r.Sites))
		for url, site := range r.Sites {
			r.slugIndex[site.ShortSlug] = url
		}
	}

	url, ok := r.slugIndex[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSiteNotFound, slug)
	}
	return r.Sites[url], nil
}

// ResolvePostalState copies the postal abbreviation of the site's state.
func (r *Registry) ResolvePostalState(site *Site) error {
	state, ok := r.States[site.State]
	if !ok {
		return fmt.Errorf("unknown state %q for site %s", site.State, site.URL)
	}
	site.PostalState = state.PostalState
	return nil
}

// TallyRecentPolitics recomputes every state's recent politics counter from its sites.
func (r *Registry) TallyRecentPolitics() {
	for _, state := range r.States {
		state.LocalRecentPolitics = 0
	}
	for _, site := range r.Sites {
		if state, ok := r.States[site.State]; ok {
			state.LocalRecentPolitics += site.LocalRecentPolitics.Len()
		}
	}
}

// AuthorNetwork lists the home sites of an author's articles with their projected
// coordinates. Articles hosted outside the network are skipped. The result is
// memoized on the author until its article set changes.
func (r *Registry) AuthorNetwork(name string) []NetworkPoint {
	author, ok := r.Authors[name]
	if !ok {
		return nil
	}
	if author.networkBuilt {
		return author.network
	}

	points := make([]NetworkPoint, 0, author.ArticleSet.Len())
	for _, url := range author.ArticleSet.Sorted() {
		article, ok := r.Articles[url]
		if !ok {
			continue
		}
		site, err := r.ResolveShortNameToSite(article.Home)
		if err != nil {
			continue
		}
		if site.MLat == nil {
			site.Mercator()
		}
		if site.MLat == nil || site.MLng == nil {
			continue
		}
		points = append(points, NetworkPoint{
			SiteName: site.Name,
			MLat:     *site.MLat,
			MLng:     *site.MLng,
			Count:    1,
		})
	}

	author.network = points
	author.networkBuilt = true
	return points
}

func (r *Registry) String() string {
	return fmt.Sprintf("%d Sites, %d Articles, %d Authors, %d Officials",
		len(r.Sites), len(r.Articles), len(r.Authors), len(r.Officials))
}
