// Package alerting turns strongly polarised articles into alert messages
// and delivers them to chat channels.
package alerting

import (
	"fmt"
	"math"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/pkg/models"
)

// DefaultThreshold is the negative alert threshold.
const DefaultThreshold = -0.5

// Thresholds bound the scores that raise alerts: score <= Lower is a
// negative alert, score >= Upper a positive one.
type Thresholds struct {
	Lower float64
	Upper float64
}

// Mirrored uses |lower| as the positive threshold.
func Mirrored(lower float64) Thresholds {
	return Thresholds{Lower: lower, Upper: math.Abs(lower)}
}

// ThresholdsFromConfig mirrors alerts.threshold unless alerts.upper_threshold
// is set explicitly.
func ThresholdsFromConfig(cfg config.AlertsConfig) Thresholds {
	th := Mirrored(cfg.Threshold)
	if cfg.UpperThreshold != nil {
		th.Upper = *cfg.UpperThreshold
	}
	return th
}

// Evaluate returns negative alerts in row order followed by positive
// alerts in row order. The two checks are independent: a row inside both
// bands raises both alerts.
func Evaluate(rows []models.AnnotatedArticle, th Thresholds) []models.Alert {
	var neg, pos []models.Alert
	for _, r := range rows {
		if r.SentimentScore <= th.Lower {
			neg = append(neg, newAlert(models.AlertNegative, r))
		}
		if r.SentimentScore >= th.Upper {
			pos = append(pos, newAlert(models.AlertPositive, r))
		}
	}
	return append(neg, pos...)
}

func newAlert(kind models.AlertKind, r models.AnnotatedArticle) models.Alert {
	a := models.Alert{
		Kind:   kind,
		Entity: r.Entity,
		Title:  r.Title,
		Text:   r.Text,
		URL:    r.URL,
		Score:  r.SentimentScore,
	}
	a.Message = Message(a)
	return a
}

// Message renders the chat text for an alert, e.g.
//
//	ALERT: Negative sentiment (-0.60) detected for Acme.
//	Acme recalls widgets
func Message(a models.Alert) string {
	kind := "Negative"
	if a.Kind == models.AlertPositive {
		kind = "Positive"
	}
	headline := a.Title
	if headline == "" {
		headline = a.Text
	}
	return fmt.Sprintf("ALERT: %s sentiment (%.2f) detected for %s.\n%s", kind, a.Score, a.Entity, headline)
}
