package algorithms

import (
	"math"

	"github.com/aristath/stock-scout/internal/domain"
)

// Seed scorer variants. Each is a pure function of the candidate snapshot
// and its declared parameter set; missing required fields surface as
// MissingDataError rather than silently defaulting.

func requirePrice(c domain.Candidate) error {
	if c.Snapshot.Price <= 0 {
		return &MissingDataError{Symbol: c.Symbol, Field: "price"}
	}
	return nil
}

func requireVolume(c domain.Candidate) error {
	if c.Snapshot.Volume <= 0 {
		return &MissingDataError{Symbol: c.Symbol, Field: "volume"}
	}
	return nil
}

func param(params map[string]float64, key string, fallback float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return fallback
}

// scoreBreakoutV1 rewards strong single-session advances confirmed by
// elevated relative volume.
func scoreBreakoutV1(c domain.Candidate, params map[string]float64) (float64, float64, error) {
	if err := requirePrice(c); err != nil {
		return 0, 0, err
	}
	if err := requireVolume(c); err != nil {
		return 0, 0, err
	}

	score := 50 + c.Snapshot.ChangePct*param(params, "change_weight", 8)

	if rv := c.Snapshot.RelVolume; rv != nil {
		boost := (*rv - 1) * param(params, "volume_weight", 10)
		score += math.Min(20, math.Max(0, boost))
	}

	confidence := 60.0
	if c.Snapshot.RelVolume != nil {
		confidence += 15
	}
	if c.Snapshot.AvgVolume != nil {
		confidence += 10
	}
	if c.Snapshot.MarketCap != nil {
		confidence += 5
	}

	return score, confidence, nil
}

// scoreBreakoutV11 is the v1.0 formula with a gentler change weight and a
// damping factor for very small caps, which broke out on noise too often.
func scoreBreakoutV11(c domain.Candidate, params map[string]float64) (float64, float64, error) {
	score, confidence, err := scoreBreakoutV1(c, params)
	if err != nil {
		return 0, 0, err
	}

	if mc := c.Snapshot.MarketCap; mc != nil && *mc < param(params, "small_cap_floor", 3e8) {
		score *= 0.9
	}

	return score, confidence, nil
}

// scoreMomentum scales the session's percent change around a neutral 50.
func scoreMomentum(c domain.Candidate, params map[string]float64) (float64, float64, error) {
	if err := requirePrice(c); err != nil {
		return 0, 0, err
	}

	score := 50 + c.Snapshot.ChangePct*param(params, "sensitivity", 10)

	confidence := 55.0
	if c.Snapshot.Volume > 0 {
		confidence += 15
	}
	if c.Snapshot.AvgVolume != nil {
		confidence += 15
	}

	return score, confidence, nil
}

// scorePattern detects consolidation breaks: unusual relative volume with a
// meaningful move in either direction. Relative volume is required.
func scorePattern(c domain.Candidate, params map[string]float64) (float64, float64, error) {
	if err := requirePrice(c); err != nil {
		return 0, 0, err
	}
	if c.Snapshot.RelVolume == nil {
		return 0, 0, &MissingDataError{Symbol: c.Symbol, Field: "rel_volume"}
	}

	rv := *c.Snapshot.RelVolume
	score := 40 + rv*param(params, "rel_volume_weight", 12) + math.Abs(c.Snapshot.ChangePct)*3

	confidence := 65.0
	if c.Snapshot.Sector != nil {
		confidence += 10
	}

	return score, confidence, nil
}

// scoreReversal looks for oversold bounces: the deeper the drop, the higher
// the reversal score; advancing symbols score poorly.
func scoreReversal(c domain.Candidate, params map[string]float64) (float64, float64, error) {
	if err := requirePrice(c); err != nil {
		return 0, 0, err
	}
	if err := requireVolume(c); err != nil {
		return 0, 0, err
	}

	var score float64
	if c.Snapshot.ChangePct < 0 {
		score = 50 - c.Snapshot.ChangePct*param(params, "drop_weight", 6)
		if rv := c.Snapshot.RelVolume; rv != nil && *rv > 1.5 {
			score += 5 // capitulation volume strengthens the setup
		}
	} else {
		score = 30 - c.Snapshot.ChangePct*2
	}

	confidence := 50.0
	if c.Snapshot.RelVolume != nil {
		confidence += 20
	}

	return score, confidence, nil
}

// scoreVolumeSurge scores pure volume anomalies. Both relative and average
// volume are required.
func scoreVolumeSurge(c domain.Candidate, params map[string]float64) (float64, float64, error) {
	if c.Snapshot.RelVolume == nil {
		return 0, 0, &MissingDataError{Symbol: c.Symbol, Field: "rel_volume"}
	}
	if c.Snapshot.AvgVolume == nil {
		return 0, 0, &MissingDataError{Symbol: c.Symbol, Field: "avg_volume"}
	}

	rv := *c.Snapshot.RelVolume
	score := (rv-1)*param(params, "surge_weight", 35) + c.Snapshot.ChangePct*2

	confidence := 70.0
	if *c.Snapshot.AvgVolume >= 500_000 {
		confidence += 15 // thin names produce too many false surges
	}

	return score, confidence, nil
}
