package provider

import (
	"context"

	"github.com/seenimoa/newspulse/pkg/models"
)

// Pager describes a source's paging rules.
type Pager struct {
	MaxArticles int  // stop once this many rows are collected
	MaxPage     int  // provider's largest page
	FixedSize   bool // request min(MaxPage, MaxArticles) every page instead of the remainder
}

// PageFunc fetches one 1-based page of the given size.
type PageFunc func(ctx context.Context, page, size int) ([]models.Article, error)

// Paginate drives fetch until MaxArticles rows are collected or a page comes
// back short. Rows beyond MaxArticles are trimmed.
func Paginate(ctx context.Context, p Pager, fetch PageFunc) ([]models.Article, error) {
	if p.MaxArticles <= 0 {
		return []models.Article{}, nil
	}
	maxPage := p.MaxPage
	if maxPage <= 0 {
		maxPage = p.MaxArticles
	}

	out := make([]models.Article, 0, min(p.MaxArticles, maxPage))
	for page := 1; len(out) < p.MaxArticles; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		size := min(maxPage, p.MaxArticles-len(out))
		if p.FixedSize {
			size = min(maxPage, p.MaxArticles)
		}
		rows, err := fetch(ctx, page, size)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
		if len(rows) < size {
			break
		}
	}
	if len(out) > p.MaxArticles {
		out = out[:p.MaxArticles]
	}
	return out, nil
}

// Dedup keeps the first row for each key, preserving order.
func Dedup(rows []models.Article, key func(models.Article) string) []models.Article {
	seen := make(map[string]struct{}, len(rows))
	out := make([]models.Article, 0, len(rows))
	for _, r := range rows {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// ByKeyword is the per-source dedup key (keyword, title, url).
func ByKeyword(a models.Article) string { return a.KeywordKey() }

// ByIdentity is the cross-source dedup key (title, url).
func ByIdentity(a models.Article) string { return a.IdentityKey() }
