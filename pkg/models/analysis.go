package models

import "time"

// SentimentLabel is the three-way polarity bucket derived from a compound score.
type SentimentLabel string

const (
	LabelPositive SentimentLabel = "positive"
	LabelNeutral  SentimentLabel = "neutral"
	LabelNegative SentimentLabel = "negative"
)

// AnnotatedArticle is an Article plus its sentiment annotation.
type AnnotatedArticle struct {
	Article
	SentimentScore float64        `json:"sentiment_score"` // compound polarity, -1..+1
	SentimentLabel SentimentLabel `json:"sentiment_label"`
}

// DailyPoint is the mean sentiment and article count for one group on one day.
type DailyPoint struct {
	Group         string    `json:"group"`
	Day           time.Time `json:"day"`
	MeanSentiment float64   `json:"mean_sentiment"`
	ArticleCount  int       `json:"article_count"`
}

// ForecastPoint is one fitted or projected value with its interval.
type ForecastPoint struct {
	Group     string    `json:"group"`
	Day       time.Time `json:"day"`
	Predicted float64   `json:"predicted"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
	InSample  bool      `json:"in_sample"`
}

// AlertKind is the direction of a sentiment alert.
type AlertKind string

const (
	AlertNegative AlertKind = "negative"
	AlertPositive AlertKind = "positive"
)

// Alert is a human-readable notification triggered by a single article.
type Alert struct {
	Kind    AlertKind `json:"kind"`
	Entity  string    `json:"entity"`
	Title   string    `json:"title"`
	Text    string    `json:"text,omitempty"`
	URL     string    `json:"url,omitempty"`
	Score   float64   `json:"score"`
	Message string    `json:"message"`
}

// KPIs are the headline counters shown for an annotated batch.
type KPIs struct {
	Total    int     `json:"total"`
	Positive int     `json:"positive"`
	Negative int     `json:"negative"`
	Neutral  int     `json:"neutral"`
	Average  float64 `json:"average"`
}

// EntityBreakdown counts articles per sentiment bucket for one entity.
type EntityBreakdown struct {
	Entity   string `json:"entity"`
	Negative int    `json:"negative"`
	Neutral  int    `json:"neutral"`
	Positive int    `json:"positive"`
}
