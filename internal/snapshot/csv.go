package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/seenimoa/newspulse/pkg/models"
)

// ReadCSV maps a header row onto Article fields. Unknown columns are
// ignored; the returned columns are the recognised header names in file
// order. Text is derived from title, description and content when the
// file has no text column.
func ReadCSV(r io.Reader) ([]models.Article, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, errors.New("csv: empty file")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("csv header: %w", err)
	}

	idx := map[string]int{}
	var columns []string
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, known := setters[name]; known {
			if _, dup := idx[name]; !dup {
				idx[name] = i
				columns = append(columns, name)
			}
		}
	}
	if len(idx) == 0 {
		return nil, nil, fmt.Errorf("csv: no recognised columns in header %v", header)
	}
	_, hasText := idx["text"]

	var rows []models.Article
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		var a models.Article
		for name, i := range idx {
			if i < len(rec) {
				setters[name](&a, strings.TrimSpace(rec[i]))
			}
		}
		if a.Date == "" && !a.PublishedAt.IsZero() {
			a.Date = models.DayOf(a.PublishedAt)
		}
		if !hasText {
			a.RebuildText()
		}
		if a.Entity == "" {
			a.Entity = a.Keyword
		}
		rows = append(rows, a)
	}
	return rows, columns, nil
}

var setters = map[string]func(*models.Article, string){
	"keyword":         func(a *models.Article, v string) { a.Keyword = v },
	"title":           func(a *models.Article, v string) { a.Title = v },
	"description":     func(a *models.Article, v string) { a.Description = v },
	"content":         func(a *models.Article, v string) { a.Content = v },
	"source":          func(a *models.Article, v string) { a.Source = v },
	"author":          func(a *models.Article, v string) { a.Author = v },
	"url":             func(a *models.Article, v string) { a.URL = v },
	"published_at":    func(a *models.Article, v string) { a.PublishedAt = parseTime(v) },
	"date":            func(a *models.Article, v string) { a.Date = normalizeDay(v) },
	"text":            func(a *models.Article, v string) { a.Text = v },
	"entity":          func(a *models.Article, v string) { a.Entity = v },
	"source_provider": func(a *models.Article, v string) { a.SourceProvider = models.ProviderName(v) },
	"term_type":       func(a *models.Article, v string) { a.TermType = models.TermType(v) },
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05", models.DateLayout}

func parseTime(v string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// normalizeDay keeps only the calendar day of a date or timestamp value.
func normalizeDay(v string) string {
	if t := parseTime(v); !t.IsZero() {
		return models.DayOf(t)
	}
	return ""
}

// Load reads rows from a .parquet snapshot or a .csv export. For parquet
// every column is present.
func Load(path string) ([]models.Article, []string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		rows, err := Read(path)
		if err != nil {
			return nil, nil, err
		}
		return rows, []string{"keyword", "title", "description", "content", "text"}, nil
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		return ReadCSV(f)
	}
	return nil, nil, fmt.Errorf("unsupported file type %q (want .csv or .parquet)", filepath.Ext(path))
}
