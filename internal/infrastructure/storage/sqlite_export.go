package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"LocalNewsMapper/internal/domain"
	"LocalNewsMapper/internal/ports"
)

//go:embed schema.sql
var schema string

// SQLiteExporter writes the registry into relational tables for ad-hoc queries.
type SQLiteExporter struct {
	db     *sql.DB
	header Header
	logger *slog.Logger
}

var _ ports.Exporter = (*SQLiteExporter)(nil)

// OpenSQLite opens (or creates) the database file at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// NewSQLiteExporter wires a sql.DB implementation.
func NewSQLiteExporter(db *sql.DB, header Header, logger *slog.Logger) *SQLiteExporter {
	return &SQLiteExporter{db: db, header: header, logger: logger}
}

// Export replaces the rows of every entity table with the registry content and
// records the run. Everything is written in one transaction.
func (e *SQLiteExporter) Export(ctx context.Context, reg *domain.Registry) error {
	if e.db == nil {
		return nil
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin export: %w", err)
	}

	if err := e.write(ctx, tx, reg); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit export: %w", err)
	}

	if e.logger != nil {
		e.logger.Info("sqlite export written", "run_id", e.header.RunID, "summary", reg.String())
	}
	return nil
}

var exportTables = []string{
	"site_officials", "author_articles", "site_articles",
	"officials", "authors", "articles", "sites", "states",
}

func (e *SQLiteExporter) write(ctx context.Context, tx *sql.Tx, reg *domain.Registry) error {
	for _, table := range exportTables {
		if _, err := sq.Delete(table).RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	steps := []struct {
		name string
		run  func(context.Context, *sql.Tx, *domain.Registry) error
	}{
		{"states", insertStates},
		{"sites", insertSites},
		{"articles", insertArticles},
		{"authors", insertAuthors},
		{"officials", insertOfficials},
	}
	for _, step := range steps {
		if err := step.run(ctx, tx, reg); err != nil {
			return fmt.Errorf("export %s: %w", step.name, err)
		}
	}

	_, err := sq.Insert("runs").
		Columns("run_id", "mode", "created_at", "summary").
		Values(e.header.RunID, e.header.Mode, e.header.CreatedAt.Format(time.RFC3339), reg.String()).
		Suffix("ON CONFLICT (run_id) DO UPDATE SET summary = excluded.summary").
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func insertStates(ctx context.Context, tx *sql.Tx, reg *domain.Registry) error {
	for _, name := range sortedKeys(reg.States) {
		st := reg.States[name]
		_, err := sq.Insert("states").
			Columns("name", "postal_state", "lat", "lng", "mlat", "mlng", "local_recent_politics").
			Values(st.Name, st.PostalState, st.Lat, st.Lng, st.MLat, st.MLng, st.LocalRecentPolitics).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("insert state %s: %w", name, err)
		}
	}
	return nil
}

func insertSites(ctx context.Context, tx *sql.Tx, reg *domain.Registry) error {
	for _, url := range sortedKeys(reg.Sites) {
		site := reg.Sites[url]
		_, err := sq.Insert("sites").
			Columns("url", "name", "short_slug", "state", "postal_state", "stage", "skipped", "has_html",
				"address", "zip_code", "lat", "lng", "mlat", "mlng").
			Values(site.URL, site.Name, site.ShortSlug, site.State, site.PostalState, string(site.Stage),
				site.Skipped, site.HasHTML, site.Address, site.ZipCode, site.Lat, site.Lng, site.MLat, site.MLng).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("insert site %s: %w", url, err)
		}

		for _, articleURL := range site.ArticleSet.Sorted() {
			_, err := sq.Insert("site_articles").
				Columns("site_url", "article_url", "local", "written", "recent").
				Values(site.URL, articleURL,
					site.LocalArticles.Has(articleURL),
					site.LocalWrittenArticles.Has(articleURL),
					site.LocalRecentPolitics.Has(articleURL)).
				RunWith(tx).
				ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("link article %s to %s: %w", articleURL, url, err)
			}
		}

		for _, key := range site.Officials.Sorted() {
			_, err := sq.Insert("site_officials").
				Columns("site_url", "official_key").
				Values(site.URL, key).
				RunWith(tx).
				ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("link official %s to %s: %w", key, url, err)
			}
		}
	}
	return nil
}

func insertArticles(ctx context.Context, tx *sql.Tx, reg *domain.Registry) error {
	for _, url := range sortedKeys(reg.Articles) {
		article := reg.Articles[url]
		var published *string
		if article.Date != nil {
			d := article.Date.Format(time.DateOnly)
			published = &d
		}
		_, err := sq.Insert("articles").
			Columns("url", "title", "number", "author", "published_at", "home").
			Values(article.URL, article.Title, article.Number, article.Author, published, article.Home).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("insert article %s: %w", url, err)
		}
	}
	return nil
}

func insertAuthors(ctx context.Context, tx *sql.Tx, reg *domain.Registry) error {
	for _, name := range sortedKeys(reg.Authors) {
		author := reg.Authors[name]
		_, err := sq.Insert("authors").
			Columns("name", "article_count").
			Values(author.Name, author.ArticleSet.Len()).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("insert author %s: %w", name, err)
		}
		for _, url := range author.ArticleSet.Sorted() {
			_, err := sq.Insert("author_articles").
				Columns("author_name", "article_url").
				Values(author.Name, url).
				RunWith(tx).
				ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("link article %s to author %s: %w", url, name, err)
			}
		}
	}
	return nil
}

func insertOfficials(ctx context.Context, tx *sql.Tx, reg *domain.Registry) error {
	for _, key := range sortedKeys(reg.Officials) {
		o := reg.Officials[key]
		_, err := sq.Insert("officials").
			Columns("key", "state", "name", "role", "district", "party").
			Values(key, o.State, o.Name, o.Role, o.District, o.Party).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("insert official %s: %w", key, err)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]*V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
