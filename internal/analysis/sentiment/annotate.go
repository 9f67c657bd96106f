package sentiment

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/seenimoa/newspulse/pkg/models"
)

// TextFields are the columns the annotator can read.
var TextFields = []string{"text", "title", "description", "content"}

// ErrMissingField is a schema error: the requested text column does not exist.
type ErrMissingField struct {
	Field string
}

func (e *ErrMissingField) Error() string {
	return fmt.Sprintf("text column %q not found (want one of %s)", e.Field, strings.Join(TextFields, ", "))
}

// Annotator attaches a score and label to each row.
type Annotator struct {
	scorer Scorer
	log    *slog.Logger
}

// NewAnnotator wraps scorer. A nil logger uses slog.Default().
func NewAnnotator(scorer Scorer, logger *slog.Logger) *Annotator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Annotator{scorer: scorer, log: logger}
}

// Annotate scores field on every row. A row whose text is blank, or whose
// scoring fails, panics or yields NaN, gets 0.0 neutral; the batch never
// aborts. An unknown field returns *ErrMissingField.
func (a *Annotator) Annotate(rows []models.Article, field string) ([]models.AnnotatedArticle, error) {
	if !slices.Contains(TextFields, field) {
		return nil, &ErrMissingField{Field: field}
	}
	out := make([]models.AnnotatedArticle, len(rows))
	failed := 0
	for i, row := range rows {
		text, _ := row.Field(field)
		score, ok := a.score(text)
		if !ok {
			failed++
		}
		out[i] = models.AnnotatedArticle{
			Article:        row,
			SentimentScore: score,
			SentimentLabel: Label(score),
		}
	}
	if failed > 0 {
		a.log.Warn("annotate_defaulted", slog.Int("rows", failed), slog.String("field", field))
	}
	return out, nil
}

// score returns the clamped polarity, or 0 and false when it could not be computed.
func (a *Annotator) score(text string) (score float64, ok bool) {
	if strings.TrimSpace(text) == "" {
		return 0, true
	}
	defer func() {
		if r := recover(); r != nil {
			score, ok = 0, false
		}
	}()
	s, err := a.scorer.Polarity(text)
	if err != nil || math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, false
	}
	return clamp(s), true
}

// PreferredField picks description when the column set has it, else text.
func PreferredField(columns []string) string {
	if slices.Contains(columns, "description") {
		return "description"
	}
	return "text"
}
