package sentiment

import (
	"sort"

	"github.com/seenimoa/newspulse/pkg/models"
)

// Summarize computes the headline counters. Positive counts scores strictly
// above 0.05 and Negative strictly below -0.05; everything else is Neutral.
func Summarize(rows []models.AnnotatedArticle) models.KPIs {
	k := models.KPIs{Total: len(rows)}
	if len(rows) == 0 {
		return k
	}
	sum := 0.0
	for _, r := range rows {
		sum += r.SentimentScore
		switch {
		case r.SentimentScore > PositiveThreshold:
			k.Positive++
		case r.SentimentScore < NegativeThreshold:
			k.Negative++
		default:
			k.Neutral++
		}
	}
	k.Average = sum / float64(len(rows))
	return k
}

// Breakdown counts rows per entity in the bins [-1,-0.05], (-0.05,0.05],
// (0.05,1]. Entities are sorted by name.
func Breakdown(rows []models.AnnotatedArticle) []models.EntityBreakdown {
	idx := map[string]*models.EntityBreakdown{}
	for _, r := range rows {
		b, ok := idx[r.Entity]
		if !ok {
			b = &models.EntityBreakdown{Entity: r.Entity}
			idx[r.Entity] = b
		}
		switch {
		case r.SentimentScore <= NegativeThreshold:
			b.Negative++
		case r.SentimentScore <= PositiveThreshold:
			b.Neutral++
		default:
			b.Positive++
		}
	}
	out := make([]models.EntityBreakdown, 0, len(idx))
	for _, b := range idx {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entity < out[j].Entity })
	return out
}
