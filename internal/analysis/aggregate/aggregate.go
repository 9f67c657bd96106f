// Package aggregate rolls annotated articles up into per-group daily
// sentiment series.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/seenimoa/newspulse/pkg/models"
)

// GroupField is the article column a daily series is grouped by.
type GroupField string

const (
	GroupEntity         GroupField = "entity"
	GroupKeyword        GroupField = "keyword"
	GroupSource         GroupField = "source"
	GroupSourceProvider GroupField = "source_provider"
	GroupTermType       GroupField = "term_type"
)

// GroupFields lists every supported grouping.
var GroupFields = []GroupField{GroupEntity, GroupKeyword, GroupSource, GroupSourceProvider, GroupTermType}

// ParseGroupField resolves a config or flag value. Empty means entity.
func ParseGroupField(s string) (GroupField, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return GroupEntity, nil
	}
	for _, f := range GroupFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown group field %q", s)
}

type bucket struct {
	group string
	day   time.Time
}

// Daily computes the mean score and article count per (group, day), sorted
// ascending by group then day. Days without articles are absent. Rows with
// no parsable date are skipped.
func Daily(rows []models.AnnotatedArticle, field GroupField) ([]models.DailyPoint, error) {
	if _, err := ParseGroupField(string(field)); err != nil {
		return nil, err
	}
	sums := map[bucket]float64{}
	counts := map[bucket]int{}
	for _, r := range rows {
		day, err := rowDay(r.Article)
		if err != nil {
			continue
		}
		group, _ := r.Field(string(field))
		k := bucket{group: group, day: day}
		sums[k] += r.SentimentScore
		counts[k]++
	}

	out := make([]models.DailyPoint, 0, len(counts))
	for k, n := range counts {
		out = append(out, models.DailyPoint{
			Group:         k.group,
			Day:           k.day,
			MeanSentiment: sums[k] / float64(n),
			ArticleCount:  n,
		})
	}
	sortPoints(out)
	return out, nil
}

func rowDay(a models.Article) (time.Time, error) {
	if a.Date != "" {
		return models.ParseDay(a.Date)
	}
	if a.PublishedAt.IsZero() {
		return time.Time{}, fmt.Errorf("article %q has no date", a.Title)
	}
	return models.ParseDay(models.DayOf(a.PublishedAt))
}

func sortPoints(p []models.DailyPoint) {
	sort.Slice(p, func(i, j int) bool {
		if p[i].Group != p[j].Group {
			return p[i].Group < p[j].Group
		}
		return p[i].Day.Before(p[j].Day)
	})
}

// ByGroup splits points into per-group series, each kept in day order.
func ByGroup(points []models.DailyPoint) map[string][]models.DailyPoint {
	out := map[string][]models.DailyPoint{}
	for _, p := range points {
		out[p.Group] = append(out[p.Group], p)
	}
	for g := range out {
		sortPoints(out[g])
	}
	return out
}

// Groups returns the distinct group values in sorted order.
func Groups(points []models.DailyPoint) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range points {
		if !seen[p.Group] {
			seen[p.Group] = true
			out = append(out, p.Group)
		}
	}
	sort.Strings(out)
	return out
}

// Reindex fills the day range of a single-group series with explicit gap
// points (ArticleCount 0, MeanSentiment NaN).
func Reindex(series []models.DailyPoint) []models.DailyPoint {
	if len(series) == 0 {
		return nil
	}
	sorted := append([]models.DailyPoint(nil), series...)
	sortPoints(sorted)
	have := make(map[time.Time]models.DailyPoint, len(sorted))
	for _, p := range sorted {
		have[p.Day] = p
	}
	first, last := sorted[0].Day, sorted[len(sorted)-1].Day
	var out []models.DailyPoint
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if p, ok := have[d]; ok {
			out = append(out, p)
			continue
		}
		out = append(out, models.DailyPoint{Group: sorted[0].Group, Day: d, MeanSentiment: math.NaN()})
	}
	return out
}
