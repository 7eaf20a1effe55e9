package algorithms

import (
	"fmt"

	"github.com/rs/zerolog"
)

// NewDescriptor binds a scoring function to a descriptor definition.
func NewDescriptor(d Descriptor, fn ScoreFunc) Descriptor {
	d.score = fn
	return d
}

// SeedRegistry builds the registry with the built-in versioned variant set.
// The descriptor data (params, activation, performance summaries) is the
// versioned configuration; replacing it means shipping a new seed.
func SeedRegistry(log zerolog.Logger) (*Registry, error) {
	r := NewRegistry(log)

	seeds := []Descriptor{
		NewDescriptor(Descriptor{
			ID: "breakout", Version: "v1.0", Name: "Breakout", Theme: ThemeAll, Type: TypeSeed,
			Params:      map[string]float64{"change_weight": 8, "volume_weight": 10},
			Active:      true,
			Performance: PerformanceSummary{AccuracyPct: 58.2, AvgReturnPct: 2.1, Samples: 412},
		}, scoreBreakoutV1),
		NewDescriptor(Descriptor{
			ID: "breakout", Version: "v1.1", Name: "Breakout (small-cap damped)", Theme: "swing", Type: TypeSeed,
			Params:      map[string]float64{"change_weight": 7, "volume_weight": 10, "small_cap_floor": 3e8},
			Active:      true,
			Performance: PerformanceSummary{AccuracyPct: 61.0, AvgReturnPct: 2.4, Samples: 187},
		}, scoreBreakoutV11),
		NewDescriptor(Descriptor{
			ID: "momentum", Version: "v1.0", Name: "Momentum", Theme: ThemeAll, Type: TypeSeed,
			Params:      map[string]float64{"sensitivity": 10},
			Active:      true,
			Performance: PerformanceSummary{AccuracyPct: 55.7, AvgReturnPct: 1.6, Samples: 640},
		}, scoreMomentum),
		NewDescriptor(Descriptor{
			ID: "momentum", Version: "v0.9", Name: "Momentum (legacy)", Theme: ThemeAll, Type: TypeSeed,
			Params:      map[string]float64{"sensitivity": 14},
			Active:      false, // superseded by v1.0; kept for A/B comparisons
			Performance: PerformanceSummary{AccuracyPct: 51.3, AvgReturnPct: 0.9, Samples: 890},
		}, scoreMomentum),
		NewDescriptor(Descriptor{
			ID: "pattern", Version: "v1.0", Name: "Pattern Break", Theme: ThemeAll, Type: TypeSeed,
			Params:      map[string]float64{"rel_volume_weight": 12},
			Active:      true,
			Performance: PerformanceSummary{AccuracyPct: 53.9, AvgReturnPct: 1.2, Samples: 305},
		}, scorePattern),
		NewDescriptor(Descriptor{
			ID: "reversal", Version: "v1.0", Name: "Oversold Reversal", Theme: ThemeAll, Type: TypeSeed,
			Params:      map[string]float64{"drop_weight": 6},
			Active:      true,
			Performance: PerformanceSummary{AccuracyPct: 56.4, AvgReturnPct: 1.8, Samples: 277},
		}, scoreReversal),
		NewDescriptor(Descriptor{
			ID: "volume_surge", Version: "v1.0", Name: "Volume Surge", Theme: "intraday", Type: TypeSeed,
			Params:      map[string]float64{"surge_weight": 35},
			Active:      true,
			Performance: PerformanceSummary{AccuracyPct: 52.8, AvgReturnPct: 1.1, Samples: 198},
		}, scoreVolumeSurge),
		{
			ID: "weighted_ensemble", Version: "v1.0", Name: "Weighted Ensemble", Theme: ThemeAll, Type: TypeEnsemble,
			Params:      map[string]float64{},
			Active:      true,
			Performance: PerformanceSummary{AccuracyPct: 63.5, AvgReturnPct: 2.9, Samples: 520},
		},
	}

	for _, d := range seeds {
		if err := r.Register(d); err != nil {
			return nil, fmt.Errorf("failed to seed registry: %w", err)
		}
	}

	return r, nil
}
