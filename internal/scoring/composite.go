package scoring

import (
	"github.com/rs/zerolog"

	"github.com/aristath/marketscan/internal/config"
	"github.com/aristath/marketscan/internal/domain"
	"github.com/aristath/marketscan/pkg/formulas"
)

// Engine runs the four factor scorers and blends them into the
// composite. The volatility factor is inverted here and only here, so
// the sub-score stays "high = risky" for the ascending volatility
// ranking.
type Engine struct {
	weights    config.Weights
	trend      TrendScorer
	momentum   MomentumScorer
	volatility VolatilityScorer
	relative   RelativeStrengthScorer
	log        zerolog.Logger
}

// NewEngine creates a scoring engine from the analysis configuration.
func NewEngine(cfg config.Analysis, log zerolog.Logger) *Engine {
	return &Engine{
		weights: cfg.Weights,
		trend:   TrendScorer{SMAPeriods: cfg.SMAPeriods},
		momentum: MomentumScorer{
			PercentileWindow:     cfg.PercentileWindow,
			PercentileMinPeriods: cfg.PercentileMinPeriods,
		},
		volatility: VolatilityScorer{
			PercentileWindow:     cfg.PercentileWindow,
			PercentileMinPeriods: cfg.PercentileMinPeriods,
		},
		relative: RelativeStrengthScorer{
			PercentileWindow:     cfg.PercentileWindow,
			PercentileMinPeriods: cfg.PercentileMinPeriods,
		},
		log: log.With().Str("component", "scoring").Logger(),
	}
}

// Score computes the four sub-scores and the composite for one
// enriched series. The benchmark may be nil.
func (e *Engine) Score(s *domain.Series, benchmark *domain.Series) domain.ScoreSet {
	trend, _ := e.trend.Calculate(s)
	momentum, _ := e.momentum.Calculate(s)
	volatility, _ := e.volatility.Calculate(s)
	relStrength, _ := e.relative.Calculate(s, benchmark)

	composite := e.weights.Trend*trend +
		e.weights.Momentum*momentum +
		e.weights.Volatility*(100-volatility) +
		e.weights.RelativeStrength*relStrength

	set := domain.ScoreSet{
		Composite:        formulas.Round2(formulas.Clamp(composite, 0, 100)),
		Trend:            formulas.Round2(trend),
		Momentum:         formulas.Round2(momentum),
		Volatility:       formulas.Round2(volatility),
		RelativeStrength: formulas.Round2(relStrength),
	}

	e.log.Debug().
		Str("ticker", s.Ticker).
		Float64("composite", set.Composite).
		Float64("trend", set.Trend).
		Float64("momentum", set.Momentum).
		Float64("volatility", set.Volatility).
		Float64("rel_strength", set.RelativeStrength).
		Msg("Scored symbol")

	return set
}
