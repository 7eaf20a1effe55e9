package recommendations

import (
	"context"

	"github.com/aristath/stock-scout/internal/domain"
	"github.com/aristath/stock-scout/pkg/formulas"
	"github.com/rs/zerolog"
)

// CloseFetcher pulls recent daily closes for a symbol. Implemented by
// quotes.Client.
type CloseFetcher interface {
	GetDailyCloses(ctx context.Context, symbol, rangeSpec string) ([]float64, error)
}

// TechnicalConfirmer annotates top-ranked recommendations with RSI/EMA
// confirmation values. Annotation only: scores and ordering are already
// final when it runs, and a fetch failure leaves the symbol unannotated.
type TechnicalConfirmer struct {
	fetcher CloseFetcher
	log     zerolog.Logger
}

// NewTechnicalConfirmer creates a confirmer over the given close source.
func NewTechnicalConfirmer(fetcher CloseFetcher, log zerolog.Logger) *TechnicalConfirmer {
	return &TechnicalConfirmer{
		fetcher: fetcher,
		log:     log.With().Str("component", "confirmer").Logger(),
	}
}

const overboughtRSI = 70.0

// Enrich annotates the first topN recommendations in place.
func (t *TechnicalConfirmer) Enrich(ctx context.Context, recs []domain.AggregatedRecommendation, topN int) {
	if topN <= 0 {
		return
	}
	if topN > len(recs) {
		topN = len(recs)
	}

	for i := 0; i < topN; i++ {
		closes, err := t.fetcher.GetDailyCloses(ctx, recs[i].Symbol, "3mo")
		if err != nil {
			t.log.Warn().Err(err).Str("symbol", recs[i].Symbol).Msg("Confirmation fetch failed")
			continue
		}

		rsi := formulas.CalculateRSI(closes, 14)
		ema := formulas.CalculateEMA(closes, 20)
		if rsi == nil && ema == nil {
			continue
		}

		conf := &domain.TechnicalConfirmation{RSI14: rsi, EMA20: ema}
		if rsi != nil {
			conf.Overbought = *rsi >= overboughtRSI
		}
		if ema != nil {
			conf.AboveEMA20 = recs[i].Price > *ema
		}
		recs[i].Confirmation = conf
	}
}
