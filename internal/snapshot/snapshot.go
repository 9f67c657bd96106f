// Package snapshot persists collected article rows as a single parquet
// file and imports rows from CSV exports.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/seenimoa/newspulse/pkg/models"
)

// DefaultPath is where collect writes its snapshot.
const DefaultPath = "data/processed/news.parquet"

// record is one article row in the parquet file.
type record struct {
	Keyword        string `parquet:"keyword"`
	Title          string `parquet:"title"`
	Description    string `parquet:"description"`
	Content        string `parquet:"content"`
	Source         string `parquet:"source"`
	Author         string `parquet:"author"`
	URL            string `parquet:"url"`
	PublishedAt    int64  `parquet:"published_at,timestamp(millisecond)"`
	Date           string `parquet:"date"`
	Text           string `parquet:"text"`
	Entity         string `parquet:"entity"`
	SourceProvider string `parquet:"source_provider"`
	TermType       string `parquet:"term_type"`
}

func toRecord(a models.Article) record {
	var ms int64
	if !a.PublishedAt.IsZero() {
		ms = a.PublishedAt.UnixMilli()
	}
	return record{
		Keyword:        a.Keyword,
		Title:          a.Title,
		Description:    a.Description,
		Content:        a.Content,
		Source:         a.Source,
		Author:         a.Author,
		URL:            a.URL,
		PublishedAt:    ms,
		Date:           a.Date,
		Text:           a.Text,
		Entity:         a.Entity,
		SourceProvider: string(a.SourceProvider),
		TermType:       string(a.TermType),
	}
}

func (r record) article() models.Article {
	var published time.Time
	if r.PublishedAt != 0 {
		published = time.UnixMilli(r.PublishedAt).UTC()
	}
	return models.Article{
		Keyword:        r.Keyword,
		Title:          r.Title,
		Description:    r.Description,
		Content:        r.Content,
		Source:         r.Source,
		Author:         r.Author,
		URL:            r.URL,
		PublishedAt:    published,
		Date:           r.Date,
		Text:           r.Text,
		Entity:         r.Entity,
		SourceProvider: models.ProviderName(r.SourceProvider),
		TermType:       models.TermType(r.TermType),
	}
}

// Write replaces the file at path with rows. The data goes to a temporary
// file in the same directory first and is renamed into place.
func Write(path string, rows []models.Article) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.parquet")
	if err != nil {
		return fmt.Errorf("snapshot temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	records := make([]record, len(rows))
	for i, a := range rows {
		records[i] = toRecord(a)
	}
	if err := parquet.Write(tmp, records); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("snapshot rename: %w", err)
	}
	return nil
}

// Read loads every row from a snapshot written by Write.
func Read(path string) ([]models.Article, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	records, err := parquet.ReadFile[record](path)
	if err != nil {
		return nil, fmt.Errorf("snapshot read %s: %w", path, err)
	}
	out := make([]models.Article, len(records))
	for i, r := range records {
		out[i] = r.article()
	}
	return out, nil
}
