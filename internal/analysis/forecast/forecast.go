// Package forecast projects daily sentiment series forward with an
// interval.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/seenimoa/newspulse/internal/analysis/aggregate"
	"github.com/seenimoa/newspulse/pkg/models"
)

// DefaultHorizon is the number of days projected past the last observation.
const DefaultHorizon = 7

// IntervalWidth is the central coverage of the predictive band.
const IntervalWidth = 0.8

// ErrInsufficientData is returned when a series has fewer than two usable points.
var ErrInsufficientData = errors.New("forecast needs at least two observations")

// Estimate is a point prediction with its band.
type Estimate struct {
	Value float64
	Lower float64
	Upper float64
}

// Model is a univariate time-series model over calendar days.
type Model interface {
	Fit(days []time.Time, values []float64) error
	Predict(days []time.Time) ([]Estimate, error)
}

// LinearTrend is an ordinary least-squares trend on day offsets.
type LinearTrend struct {
	origin time.Time
	alpha  float64
	beta   float64
	n      int
	meanX  float64
	sxx    float64
	sigma  float64 // residual standard error, 0 when n == 2
	tq     float64
}

// NewLinearTrend returns an unfitted trend model.
func NewLinearTrend() Model { return &LinearTrend{} }

// Fit estimates intercept and slope.
func (m *LinearTrend) Fit(days []time.Time, values []float64) error {
	if len(days) != len(values) {
		return fmt.Errorf("forecast: %d days but %d values", len(days), len(values))
	}
	if len(days) < 2 {
		return ErrInsufficientData
	}
	m.origin = days[0]
	xs := make([]float64, len(days))
	for i, d := range days {
		xs[i] = m.offset(d)
	}
	m.n = 0
	m.meanX = stat.Mean(xs, nil)
	m.sxx = 0
	for _, x := range xs {
		m.sxx += (x - m.meanX) * (x - m.meanX)
	}
	if m.sxx == 0 {
		return fmt.Errorf("%w: all observations on one day", ErrInsufficientData)
	}
	m.n = len(xs)
	m.alpha, m.beta = stat.LinearRegression(xs, values, nil, false)

	m.sigma, m.tq = 0, 0
	if dof := m.n - 2; dof > 0 {
		rss := 0.0
		for i, x := range xs {
			r := values[i] - (m.alpha + m.beta*x)
			rss += r * r
		}
		m.sigma = math.Sqrt(rss / float64(dof))
		t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dof)}
		m.tq = t.Quantile(0.5 + IntervalWidth/2)
	}
	return nil
}

// Predict returns the trend value and prediction interval at each day.
func (m *LinearTrend) Predict(days []time.Time) ([]Estimate, error) {
	if m.n < 2 {
		return nil, errors.New("forecast: model not fitted")
	}
	out := make([]Estimate, len(days))
	for i, d := range days {
		x := m.offset(d)
		y := m.alpha + m.beta*x
		half := m.tq * m.sigma * math.Sqrt(1+1/float64(m.n)+(x-m.meanX)*(x-m.meanX)/m.sxx)
		out[i] = Estimate{Value: y, Lower: y - half, Upper: y + half}
	}
	return out, nil
}

func (m *LinearTrend) offset(d time.Time) float64 {
	return d.Sub(m.origin).Hours() / 24
}

// Forecast fits model to one group's series and returns a fitted point for
// every observed day followed by horizon daily points after the last one.
// NaN gap points are ignored.
func Forecast(series []models.DailyPoint, horizon int, model Model) ([]models.ForecastPoint, error) {
	if horizon < 0 {
		return nil, fmt.Errorf("forecast: negative horizon %d", horizon)
	}
	obs := make([]models.DailyPoint, 0, len(series))
	for _, p := range series {
		if !math.IsNaN(p.MeanSentiment) {
			obs = append(obs, p)
		}
	}
	if len(obs) < 2 {
		return nil, ErrInsufficientData
	}
	sort.Slice(obs, func(i, j int) bool { return obs[i].Day.Before(obs[j].Day) })

	days := make([]time.Time, len(obs))
	values := make([]float64, len(obs))
	for i, p := range obs {
		days[i] = p.Day
		values[i] = p.MeanSentiment
	}
	if err := model.Fit(days, values); err != nil {
		return nil, err
	}

	last := days[len(days)-1]
	all := append([]time.Time(nil), days...)
	for h := 1; h <= horizon; h++ {
		all = append(all, last.AddDate(0, 0, h))
	}
	est, err := model.Predict(all)
	if err != nil {
		return nil, err
	}

	group := obs[0].Group
	out := make([]models.ForecastPoint, len(all))
	for i, d := range all {
		out[i] = models.ForecastPoint{
			Group:     group,
			Day:       d,
			Predicted: est[i].Value,
			Lower:     est[i].Lower,
			Upper:     est[i].Upper,
			InSample:  i < len(days),
		}
	}
	return out, nil
}

// ForecastAll fits every group independently. Groups with fewer than two
// observations are skipped and reported in skipped.
func ForecastAll(points []models.DailyPoint, horizon int, newModel func() Model) (out []models.ForecastPoint, skipped []string, err error) {
	if newModel == nil {
		newModel = NewLinearTrend
	}
	by := aggregate.ByGroup(points)
	for _, g := range aggregate.Groups(points) {
		fc, ferr := Forecast(by[g], horizon, newModel())
		if errors.Is(ferr, ErrInsufficientData) {
			skipped = append(skipped, g)
			continue
		}
		if ferr != nil {
			return nil, nil, fmt.Errorf("forecast %q: %w", g, ferr)
		}
		out = append(out, fc...)
	}
	return out, skipped, nil
}
