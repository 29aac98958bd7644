package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"LocalNewsMapper/internal/domain"
	"LocalNewsMapper/internal/infrastructure/parser"
	"LocalNewsMapper/internal/ports"
)

// SiteScanner runs the per-site stages.
type SiteScanner interface {
	Scan(ctx context.Context, site *domain.Site) error
}

// PipelineDeps wires all driven adapters into the crawl pipeline.
type PipelineDeps struct {
	Registry  *domain.Registry
	Pages     ports.PageSource
	Scanner   SiteScanner
	Snapshots ports.SnapshotStore
	Exporter  ports.Exporter
	Report    io.Writer
	Logger    *slog.Logger
}

// PipelineOptions locate the directory page and bound the run.
type PipelineOptions struct {
	DirectoryURL  string
	DirectoryPath string
	PreferLocal   bool
	// SiteLimit keeps only the first sites of the directory when positive.
	SiteLimit int
}

// RunSummary counts what happened to the directory sites.
type RunSummary struct {
	Listed  int
	Visited int
	Skipped int
}

// Pipeline implements one crawl of the network.
type Pipeline struct {
	registry  *domain.Registry
	pages     ports.PageSource
	scanner   SiteScanner
	snapshots ports.SnapshotStore
	exporter  ports.Exporter
	report    io.Writer
	logger    *slog.Logger
	opts      PipelineOptions
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps, opts PipelineOptions) *Pipeline {
	return &Pipeline{
		registry:  deps.Registry,
		pages:     deps.Pages,
		scanner:   deps.Scanner,
		snapshots: deps.Snapshots,
		exporter:  deps.Exporter,
		report:    deps.Report,
		logger:    deps.Logger,
		opts:      opts,
	}
}

// Run loads the directory, visits its sites in listing order, aggregates the
// per-state counters and persists the registry.
func (p *Pipeline) Run(ctx context.Context) (RunSummary, error) {
	var summary RunSummary

	sites, err := p.loadDirectory(ctx)
	if err != nil {
		return summary, err
	}
	summary.Listed = len(sites)

	if p.opts.SiteLimit > 0 && len(sites) > p.opts.SiteLimit {
		sites = sites[:p.opts.SiteLimit]
	}

	for i, site := range sites {
		p.info("visit site", "n", i+1, "of", len(sites), "site", site.Name)
		if err := p.scanner.Scan(ctx, site); err != nil {
			return summary, fmt.Errorf("scan %s: %w", site.URL, err)
		}
		if site.Skipped {
			summary.Skipped++
			continue
		}
		summary.Visited++
	}

	p.registry.TallyRecentPolitics()
	p.info("crawl finished", "registry", p.registry.String(), "visited", summary.Visited, "skipped", summary.Skipped)

	if p.snapshots != nil {
		if err := p.snapshots.Save(ctx, p.registry); err != nil {
			return summary, fmt.Errorf("save snapshot: %w", err)
		}
	}

	if p.exporter != nil {
		if err := p.exporter.Export(ctx, p.registry); err != nil {
			return summary, fmt.Errorf("export registry: %w", err)
		}
	}

	if p.report != nil {
		WriteReport(p.report, p.registry, summary)
	}

	return summary, nil
}

// loadDirectory registers every listed site and returns them in page order.
func (p *Pipeline) loadDirectory(ctx context.Context) ([]*domain.Site, error) {
	content, err := p.pages.ReadOrFetch(ctx, p.opts.DirectoryPath, p.opts.DirectoryURL, p.opts.PreferLocal)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		cached, readErr := p.pages.Read(p.opts.DirectoryPath)
		if readErr != nil {
			return nil, fmt.Errorf("load directory %s: %w", p.opts.DirectoryURL, err)
		}
		p.warn("directory unavailable, using cached copy", "url", p.opts.DirectoryURL,
			"path", p.opts.DirectoryPath, "error", err)
		content = cached
	}
	doc, err := parser.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse directory: %w", err)
	}

	links := parser.ExtractDirectoryLinks(doc)
	sites := make([]*domain.Site, 0, len(links))
	seen := domain.NewSet()
	for _, link := range links {
		site := p.registry.UpsertSite(link.Name, link.URL, link.State)
		if seen.Add(site.URL) {
			sites = append(sites, site)
		}
	}

	p.info("directory loaded", "links", len(links), "sites", len(sites))
	return sites, nil
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
