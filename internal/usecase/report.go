package usecase

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"LocalNewsMapper/internal/domain"
)

const reportTopAuthors = 10

// WriteReport renders the end-of-run tables: recent local politics per state
// and the most prolific bylines.
func WriteReport(w io.Writer, reg *domain.Registry, summary RunSummary) {
	states := make([]*domain.State, 0, len(reg.States))
	for _, st := range reg.States {
		if st.LocalRecentPolitics > 0 {
			states = append(states, st)
		}
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].LocalRecentPolitics != states[j].LocalRecentPolitics {
			return states[i].LocalRecentPolitics > states[j].LocalRecentPolitics
		}
		return states[i].Name < states[j].Name
	})

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Recent local politics")
	t.AppendHeader(table.Row{"State", "Postal", "Articles"})
	for _, st := range states {
		t.AppendRow(table.Row{st.Name, st.PostalState, st.LocalRecentPolitics})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	authors := make([]*domain.Author, 0, len(reg.Authors))
	for _, a := range reg.Authors {
		authors = append(authors, a)
	}
	sort.Slice(authors, func(i, j int) bool {
		if authors[i].ArticleSet.Len() != authors[j].ArticleSet.Len() {
			return authors[i].ArticleSet.Len() > authors[j].ArticleSet.Len()
		}
		return authors[i].Name < authors[j].Name
	})
	if len(authors) > reportTopAuthors {
		authors = authors[:reportTopAuthors]
	}

	t = table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Top authors")
	t.AppendHeader(table.Row{"Author", "Articles", "Mapped"})
	for _, a := range authors {
		t.AppendRow(table.Row{a.Name, a.ArticleSet.Len(), len(reg.AuthorNetwork(a.Name))})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	fmt.Fprintf(w, "%s (%d listed, %d visited, %d skipped)\n",
		reg.String(), summary.Listed, summary.Visited, summary.Skipped)
}
