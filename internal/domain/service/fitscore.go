package service

import (
	"math"

	"github.com/lendermatch/underwriting-service/internal/domain/model"
)

// ---------------------------------------------------------------------------
// Fit score model
// ---------------------------------------------------------------------------

// FitWeights apportions the 0-100 fit score across criterion families. The
// Other weight covers every pass/fail criterion outside the four numeric
// families and is split evenly among the ones applicable to the program.
type FitWeights struct {
	FICO           float64
	Paynet         float64
	LoanAmount     float64
	TimeInBusiness float64
	Other          float64
}

// DefaultFitWeights weights strength of credit above everything else, with
// loan-amount positioning a close second.
func DefaultFitWeights() FitWeights {
	return FitWeights{
		FICO:           0.30,
		Paynet:         0.20,
		LoanAmount:     0.25,
		TimeInBusiness: 0.15,
		Other:          0.10,
	}
}

// FitScorer computes how comfortably an application sits inside one program's
// criteria, as a fraction of 100. A met criterion earns its weight scaled by
// metBaseline plus a margin bonus, so barely clearing a threshold still earns
// most of the weight while headroom above it earns the rest. The margin of
// each numeric family saturates: beyond the saturation distance, more headroom
// stops helping.
type FitScorer struct {
	weights FitWeights

	ficoSaturation   float64 // FICO points above the threshold
	paynetSaturation float64 // PayNet points above the threshold
	tibSaturation    float64 // years above the required history

	metBaseline float64 // share of a weight earned just by meeting the criterion
}

// NewFitScorer returns a scorer with the default weights and saturations.
func NewFitScorer() *FitScorer {
	return &FitScorer{
		weights:          DefaultFitWeights(),
		ficoSaturation:   150,
		paynetSaturation: 40,
		tibSaturation:    5,
		metBaseline:      0.80,
	}
}

// Score returns the fit contribution for one program in [0, 100]. The results
// slice must be the output of CriteriaEvaluator.Evaluate for the same criteria
// and application; unmet criteria contribute zero but keep their weight in the
// denominator, which is how failures drag the score down.
func (s *FitScorer) Score(
	criteria model.LenderPolicyCriteria,
	app model.LoanApplication,
	results []model.CriterionResult,
) float64 {
	met := make(map[string]bool, len(results))
	for _, r := range results {
		met[r.Name] = r.Met
	}

	var total, weightSum float64

	if criteria.Fico != nil {
		weightSum += s.weights.FICO
		if met[CriterionFICO] {
			total += s.weights.FICO * s.earned(ficoMargin(criteria.Fico, app.Guarantor.FICOScore, s.ficoSaturation))
		}
	}
	if criteria.Paynet != nil {
		weightSum += s.weights.Paynet
		if met[CriterionPaynet] {
			total += s.weights.Paynet * s.earned(paynetMargin(criteria.Paynet, app.PaynetScore(), s.paynetSaturation))
		}
	}

	weightSum += s.weights.LoanAmount
	if met[CriterionLoanAmount] {
		total += s.weights.LoanAmount * s.earned(amountMargin(criteria.LoanAmount, app))
	}

	if criteria.TimeInBusiness != nil {
		weightSum += s.weights.TimeInBusiness
		if met[CriterionTimeInBusiness] {
			total += s.weights.TimeInBusiness * s.earned(tibMargin(criteria.TimeInBusiness, app.Business.YearsInBusiness, s.tibSaturation))
		}
	}

	// Everything else is pass/fail: an even split of the Other weight.
	var otherTotal, otherCount float64
	for _, r := range results {
		switch r.Name {
		case CriterionFICO, CriterionPaynet, CriterionLoanAmount, CriterionTimeInBusiness:
			continue
		}
		otherCount++
		if r.Met {
			otherTotal++
		}
	}
	if otherCount > 0 {
		weightSum += s.weights.Other
		total += s.weights.Other * (otherTotal / otherCount)
	}

	if weightSum == 0 {
		return 0
	}
	return clamp(total/weightSum*100, 0, 100)
}

// earned maps a [0,1] margin to the fraction of the weight a met criterion
// collects.
func (s *FitScorer) earned(margin float64) float64 {
	return s.metBaseline + (1-s.metBaseline)*margin
}

// ficoMargin measures headroom above the FICO threshold. For tiered rules the
// lowest tier's threshold anchors the margin so the score stays monotone in
// FICO across tier boundaries.
func ficoMargin(c *model.FicoCriteria, score int, saturation float64) float64 {
	threshold := c.MinScore
	if len(c.Tiered) > 0 {
		threshold = c.Tiered[0].MinScore
		for _, tier := range c.Tiered[1:] {
			if tier.MinScore < threshold {
				threshold = tier.MinScore
			}
		}
	}
	return clamp(float64(score-threshold)/saturation, 0, 1)
}

// paynetMargin measures headroom above the PayNet minimum. A criterion with no
// minimum gives full margin to any passing score.
func paynetMargin(c *model.PaynetCriteria, score *int, saturation float64) float64 {
	if score == nil || c.MinScore == nil {
		return 1
	}
	return clamp(float64(*score-*c.MinScore)/saturation, 0, 1)
}

// amountMargin peaks at the center of the lender's amount band and falls off
// linearly toward either edge: a request deep inside the band is a better fit
// than one scraping a bound. A degenerate band (min == max) gives full margin.
func amountMargin(la model.LoanAmountCriteria, app model.LoanApplication) float64 {
	min, _ := la.MinAmount.Float64()
	max, _ := la.MaxAmount.Float64()
	amount, _ := app.LoanRequest.Amount.Float64()

	halfWidth := (max - min) / 2
	if halfWidth <= 0 {
		return 1
	}
	center := (min + max) / 2
	return clamp(1-math.Abs(amount-center)/halfWidth, 0, 1)
}

// tibMargin measures operating history beyond the required minimum.
func tibMargin(c *model.TimeInBusinessCriteria, years, saturation float64) float64 {
	return clamp((years-c.MinYears)/saturation, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
