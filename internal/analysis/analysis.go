// Package analysis turns final metrics into a short narrative. The
// default implementation is rule-based; an LLM-backed Analyst can be
// plugged in behind the same interface.
package analysis

import (
	"fmt"
	"strings"

	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
)

// Report is the narrative block attached to a simulation response.
type Report struct {
	Summary         string `json:"ai_summary"`
	RiskAssessment  string `json:"risk_assessment"`
	Recommendations string `json:"recommendations"`
}

type Analyst interface {
	Analyze(m *entities.FinalMetrics) Report
}

// RuleBased grades the run with fixed thresholds on congestion length,
// affected edges and emissions.
type RuleBased struct{}

func (RuleBased) Analyze(m *entities.FinalMetrics) Report {
	risk := "low"
	switch {
	case m.CongestionLengthKm > 5 || m.AffectedEdges > 40:
		risk = "high"
	case m.CongestionLengthKm > 1.5 || m.AffectedEdges > 10:
		risk = "moderate"
	}

	summary := fmt.Sprintf(
		"Simulated traffic covered %s across %d roads with %s of recurring congestion and %s of CO2 emitted. %d road segments were affected by construction work.",
		m.DrivingDistance, m.RoadsCount, m.CongestionLength, m.CO2Emissions, m.AffectedEdges,
	)

	var recs []string
	if m.AffectedEdges > 0 {
		recs = append(recs, "stagger construction phases to keep parallel corridors open")
	}
	if m.CongestionLengthKm > 1.5 {
		recs = append(recs, "add signal-timing adjustments on the congested corridors")
	}
	if m.CO2EmissionsKg > 100 {
		recs = append(recs, "promote transit alternatives in the affected area during works")
	}
	if len(recs) == 0 {
		recs = append(recs, "no mitigation required at current impact levels")
	}

	return Report{
		Summary:         summary,
		RiskAssessment:  fmt.Sprintf("Overall impact risk: %s.", risk),
		Recommendations: strings.Join(recs, "; "),
	}
}
