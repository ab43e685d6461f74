package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/auracli/aura/internal/domain"
)

const defaultPageSize = 50

// Fetcher pages through one section at a time.
type Fetcher struct {
	repo     domain.SectionRepository
	pageSize int
	logger   *slog.Logger
}

// NewFetcher creates a fetcher requesting pageSize items per page.
func NewFetcher(repo domain.SectionRepository, pageSize int, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Fetcher{repo: repo, pageSize: pageSize, logger: logger}
}

// FetchSection appends every remaining item of section to section.MediaItems,
// starting at the current item count. The returned error is the page failure
// that stopped pagination; items gathered before it are kept.
func (f *Fetcher) FetchSection(ctx context.Context, section *domain.LibrarySection, onProgress domain.ProgressFunc) error {
	items, total, err := fetchAll(ctx, section.MediaItems,
		func(ctx context.Context, offset, limit int) ([]*domain.MediaItem, int, error) {
			return f.repo.GetSectionItems(ctx, *section, offset, limit)
		},
		f.pageSize,
		onProgress,
	)
	section.MediaItems = items
	if total >= 0 {
		section.TotalSize = total
	}
	switch {
	case errors.Is(err, context.Canceled):
		f.logger.Debug("section fetch cancelled", "section", section.Title, "offset", len(items))
		return err
	case err != nil:
		f.logger.Error("section fetch stopped",
			"error", err, "section", section.Title, "offset", len(items), "total", total)
		return err
	}
	f.logger.Debug("fetched section", "section", section.Title, "count", len(items), "total", total)
	return nil
}

// fetchAll is a generic pagination helper.
// The total is captured from the first successful page; a page with no items
// ends pagination even when short of it. Returns the accumulated items, the
// total (-1 if no page succeeded) and the error that stopped the loop.
func fetchAll[T any](
	ctx context.Context,
	start []T,
	fetch func(ctx context.Context, offset, limit int) ([]T, int, error),
	pageSize int,
	onProgress domain.ProgressFunc,
) ([]T, int, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	all := start
	total := -1

	for {
		if err := ctx.Err(); err != nil {
			return all, total, err
		}

		items, pageTotal, err := fetch(ctx, len(all), pageSize)
		if err != nil {
			return all, total, err
		}
		if total < 0 {
			total = pageTotal
		}

		all = append(all, items...)

		if onProgress != nil {
			onProgress(min(len(all), total), total)
		}

		if len(items) == 0 || len(all) >= total {
			return all, total, nil
		}
	}
}
