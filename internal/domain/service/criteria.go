package service

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lendermatch/underwriting-service/internal/domain/model"
)

// ---------------------------------------------------------------------------
// Criteria evaluators – one per criterion family, dispatched via a registry
// ---------------------------------------------------------------------------

// Canonical criterion names, shared with the fit score model.
const (
	CriterionFICO           = "FICO Score"
	CriterionPaynet         = "PayNet Score"
	CriterionLoanAmount     = "Loan Amount"
	CriterionTimeInBusiness = "Time in Business"
	CriterionGeographic     = "Geographic"
	CriterionIndustry       = "Industry"
	CriterionEquipment      = "Equipment"
	CriterionMinRevenue     = "Minimum Revenue"
)

// RulePredicate evaluates one custom rule against the application facts.
type RulePredicate func(app model.LoanApplication) (met bool, reason string)

// familyFunc evaluates one criterion family. A nil/empty return means the
// family is not configured on the program (not applicable, never a failure).
type familyFunc func(e *CriteriaEvaluator, c model.LenderPolicyCriteria, app model.LoanApplication) []model.CriterionResult

// criterionFamilies is the closed registry of evaluator families. Adding a
// family is an entry here, not a change to call sites. Order fixes the
// ordering of criteria results for determinism.
var criterionFamilies = []struct {
	family string
	eval   familyFunc
}{
	{"fico", (*CriteriaEvaluator).evalFico},
	{"paynet", (*CriteriaEvaluator).evalPaynet},
	{"loanAmount", (*CriteriaEvaluator).evalLoanAmount},
	{"timeInBusiness", (*CriteriaEvaluator).evalTimeInBusiness},
	{"geographic", (*CriteriaEvaluator).evalGeographic},
	{"industry", (*CriteriaEvaluator).evalIndustry},
	{"equipment", (*CriteriaEvaluator).evalEquipment},
	{"minRevenue", (*CriteriaEvaluator).evalMinRevenue},
	{"customRules", (*CriteriaEvaluator).evalCustomRules},
}

// CriteriaEvaluator evaluates a program's criteria set against one
// application. It is stateless apart from the custom-rule predicate registry
// and safe for concurrent use once predicates are registered.
type CriteriaEvaluator struct {
	predicates map[string]RulePredicate
}

// NewCriteriaEvaluator returns an evaluator with the built-in guarantor
// derogatory-flag predicates registered.
func NewCriteriaEvaluator() *CriteriaEvaluator {
	e := &CriteriaEvaluator{predicates: make(map[string]RulePredicate)}
	e.RegisterPredicate("no_bankruptcy", noBankruptcy)
	e.RegisterPredicate("no_tax_liens", noTaxLiens)
	e.RegisterPredicate("no_judgments", noJudgments)
	return e
}

// RegisterPredicate installs or replaces the predicate for a custom rule name.
// Register all predicates before sharing the evaluator across goroutines.
func (e *CriteriaEvaluator) RegisterPredicate(name string, p RulePredicate) {
	e.predicates[name] = p
}

// Evaluate runs every applicable criterion family and returns the non-empty
// results in registry order. The mandatory loan-amount result is always
// present.
func (e *CriteriaEvaluator) Evaluate(c model.LenderPolicyCriteria, app model.LoanApplication) []model.CriterionResult {
	var results []model.CriterionResult
	for _, f := range criterionFamilies {
		results = append(results, f.eval(e, c, app)...)
	}
	return results
}

// ---------------------------------------------------------------------------
// FICO
// ---------------------------------------------------------------------------

func (e *CriteriaEvaluator) evalFico(c model.LenderPolicyCriteria, app model.LoanApplication) []model.CriterionResult {
	fc := c.Fico
	if fc == nil {
		return nil
	}
	score := app.Guarantor.FICOScore

	if len(fc.Tiered) > 0 {
		return one(evalTieredFico(fc.Tiered, score))
	}

	res := model.CriterionResult{
		Name:   CriterionFICO,
		Actual: strconv.Itoa(score),
	}
	switch {
	case score < fc.MinScore:
		res.Met = false
		res.Expected = fmt.Sprintf("≥ %d", fc.MinScore)
		res.Reason = fmt.Sprintf("FICO %d below minimum %d", score, fc.MinScore)
	case fc.MaxScore != nil && score > *fc.MaxScore:
		res.Met = false
		res.Expected = fmt.Sprintf("%d – %d", fc.MinScore, *fc.MaxScore)
		res.Reason = fmt.Sprintf("FICO %d above maximum %d", score, *fc.MaxScore)
	default:
		res.Met = true
		res.Expected = fmt.Sprintf("≥ %d", fc.MinScore)
		res.Reason = fmt.Sprintf("Meets minimum %d", fc.MinScore)
	}
	return one(res)
}

// evalTieredFico selects the highest tier whose minimum the applicant meets.
// When no tier matches, the lowest tier threshold is reported as expected so
// the shortfall is explainable.
func evalTieredFico(tiers []model.FicoTier, score int) model.CriterionResult {
	matched := -1
	lowest := 0
	for i, tier := range tiers {
		if i == 0 || tier.MinScore < tiers[lowest].MinScore {
			lowest = i
		}
		if tier.MinScore <= score && (matched < 0 || tier.MinScore > tiers[matched].MinScore) {
			matched = i
		}
	}

	res := model.CriterionResult{
		Name:   CriterionFICO,
		Actual: strconv.Itoa(score),
	}
	if matched >= 0 {
		res.Met = true
		res.Expected = fmt.Sprintf("≥ %d", tiers[matched].MinScore)
		res.Reason = fmt.Sprintf("Qualifies for %s (minimum %d)", tiers[matched].ProgramName, tiers[matched].MinScore)
	} else {
		res.Met = false
		res.Expected = fmt.Sprintf("≥ %d", tiers[lowest].MinScore)
		res.Reason = fmt.Sprintf("FICO %d below lowest tier minimum %d", score, tiers[lowest].MinScore)
	}
	return res
}

// ---------------------------------------------------------------------------
// PayNet
// ---------------------------------------------------------------------------

func (e *CriteriaEvaluator) evalPaynet(c model.LenderPolicyCriteria, app model.LoanApplication) []model.CriterionResult {
	pc := c.Paynet
	if pc == nil {
		return nil
	}

	res := model.CriterionResult{Name: CriterionPaynet}
	score := app.PaynetScore()

	if score == nil {
		// Missing required data is a failed criterion, not "not applicable".
		if pc.MinScore != nil {
			res.Met = false
			res.Expected = fmt.Sprintf("≥ %d", *pc.MinScore)
			res.Reason = "PayNet score not provided"
			return one(res)
		}
		res.Met = true
		res.Reason = "PayNet score not provided; no minimum required"
		return one(res)
	}

	res.Actual = strconv.Itoa(*score)
	switch {
	case pc.MinScore != nil && *score < *pc.MinScore:
		res.Met = false
		res.Expected = fmt.Sprintf("≥ %d", *pc.MinScore)
		res.Reason = fmt.Sprintf("PayNet %d below minimum %d", *score, *pc.MinScore)
	case pc.MaxScore != nil && *score > *pc.MaxScore:
		res.Met = false
		res.Expected = fmt.Sprintf("≤ %d", *pc.MaxScore)
		res.Reason = fmt.Sprintf("PayNet %d above maximum %d", *score, *pc.MaxScore)
	case pc.MinScore != nil:
		res.Met = true
		res.Expected = fmt.Sprintf("≥ %d", *pc.MinScore)
		res.Reason = fmt.Sprintf("Meets minimum %d", *pc.MinScore)
	default:
		res.Met = true
		res.Reason = "Within PayNet bounds"
	}
	return one(res)
}

// ---------------------------------------------------------------------------
// Loan amount (mandatory, always applicable)
// ---------------------------------------------------------------------------

func (e *CriteriaEvaluator) evalLoanAmount(c model.LenderPolicyCriteria, app model.LoanApplication) []model.CriterionResult {
	la := c.LoanAmount
	amount := app.LoanRequest.Amount

	res := model.CriterionResult{
		Name:     CriterionLoanAmount,
		Expected: fmt.Sprintf("%s – %s", formatMoney(la.MinAmount), formatMoney(la.MaxAmount)),
		Actual:   formatMoney(amount),
	}
	switch {
	case la.MinAmount.GreaterThan(la.MaxAmount):
		// Malformed policy that slipped past save-time validation: the
		// program is permanently ineligible rather than raising.
		res.Met = false
		res.Reason = "Policy misconfigured: minimum loan amount exceeds maximum"
	case amount.LessThan(la.MinAmount):
		res.Met = false
		res.Reason = fmt.Sprintf("Minimum loan amount is %s but requested amount is %s",
			formatMoney(la.MinAmount), formatMoney(amount))
	case amount.GreaterThan(la.MaxAmount):
		res.Met = false
		res.Reason = fmt.Sprintf("Maximum loan amount is %s but requested amount is %s",
			formatMoney(la.MaxAmount), formatMoney(amount))
	default:
		res.Met = true
		res.Reason = fmt.Sprintf("Within %s – %s", formatMoney(la.MinAmount), formatMoney(la.MaxAmount))
	}
	return one(res)
}

// ---------------------------------------------------------------------------
// Time in business
// ---------------------------------------------------------------------------

func (e *CriteriaEvaluator) evalTimeInBusiness(c model.LenderPolicyCriteria, app model.LoanApplication) []model.CriterionResult {
	tc := c.TimeInBusiness
	if tc == nil {
		return nil
	}
	years := app.Business.YearsInBusiness

	res := model.CriterionResult{
		Name:     CriterionTimeInBusiness,
		Expected: fmt.Sprintf("≥ %s", formatYears(tc.MinYears)),
		Actual:   formatYears(years),
	}
	if years >= tc.MinYears {
		res.Met = true
		res.Reason = fmt.Sprintf("%s ≥ %s", formatYears(years), formatYears(tc.MinYears))
	} else {
		res.Met = false
		res.Reason = fmt.Sprintf("%s below minimum %s", formatYears(years), formatYears(tc.MinYears))
	}
	return one(res)
}

// ---------------------------------------------------------------------------
// Geographic
// ---------------------------------------------------------------------------

func (e *CriteriaEvaluator) evalGeographic(c model.LenderPolicyCriteria, app model.LoanApplication) []model.CriterionResult {
	gc := c.Geographic
	if gc == nil {
		return nil
	}
	state := app.Business.State

	res := model.CriterionResult{
		Name:   CriterionGeographic,
		Actual: state,
	}
	// Exclusion wins over inclusion.
	switch {
	case slices.Contains(gc.ExcludedStates, state):
		res.Met = false
		res.Expected = "Excludes " + strings.Join(gc.ExcludedStates, ", ")
		res.Reason = fmt.Sprintf("State %s is excluded", state)
	case len(gc.AllowedStates) > 0 && !slices.Contains(gc.AllowedStates, state):
		res.Met = false
		res.Expected = "One of " + strings.Join(gc.AllowedStates, ", ")
		res.Reason = fmt.Sprintf("State %s not in allowed states", state)
	case len(gc.AllowedStates) > 0:
		res.Met = true
		res.Expected = "One of " + strings.Join(gc.AllowedStates, ", ")
		res.Reason = fmt.Sprintf("State %s is allowed", state)
	default:
		res.Met = true
		if len(gc.ExcludedStates) > 0 {
			res.Expected = "Excludes " + strings.Join(gc.ExcludedStates, ", ")
		}
		res.Reason = fmt.Sprintf("State %s not excluded", state)
	}
	return one(res)
}

// ---------------------------------------------------------------------------
// Industry
// ---------------------------------------------------------------------------

func (e *CriteriaEvaluator) evalIndustry(c model.LenderPolicyCriteria, app model.LoanApplication) []model.CriterionResult {
	ic := c.Industry
	if ic == nil {
		return nil
	}
	industry := app.Business.Industry

	res := model.CriterionResult{
		Name:   CriterionIndustry,
		Actual: industry,
	}
	switch {
	case slices.Contains(ic.ExcludedIndustries, industry):
		res.Met = false
		res.Expected = "Excludes " + strings.Join(ic.ExcludedIndustries, ", ")
		res.Reason = fmt.Sprintf("%s is excluded", industry)
	case len(ic.AllowedIndustries) > 0 && !slices.Contains(ic.AllowedIndustries, industry):
		res.Met = false
		res.Expected = "One of " + strings.Join(ic.AllowedIndustries, ", ")
		res.Reason = fmt.Sprintf("%s not in allowed industries", industry)
	case len(ic.AllowedIndustries) > 0:
		res.Met = true
		res.Expected = "One of " + strings.Join(ic.AllowedIndustries, ", ")
		res.Reason = fmt.Sprintf("%s is allowed", industry)
	default:
		res.Met = true
		if len(ic.ExcludedIndustries) > 0 {
			res.Expected = "Excludes " + strings.Join(ic.ExcludedIndustries, ", ")
		}
		res.Reason = fmt.Sprintf("%s not excluded", industry)
	}
	return one(res)
}

// ---------------------------------------------------------------------------
// Equipment
// ---------------------------------------------------------------------------

func (e *CriteriaEvaluator) evalEquipment(c model.LenderPolicyCriteria, app model.LoanApplication) []model.CriterionResult {
	ec := c.Equipment
	if ec == nil {
		return nil
	}
	equip := app.LoanRequest.Equipment

	res := model.CriterionResult{
		Name:   CriterionEquipment,
		Actual: equip.Type,
	}
	switch {
	case slices.Contains(ec.ExcludedTypes, equip.Type):
		res.Met = false
		res.Expected = "Excludes " + strings.Join(ec.ExcludedTypes, ", ")
		res.Reason = fmt.Sprintf("Equipment type %s is excluded", equip.Type)
		return one(res)
	case len(ec.AllowedTypes) > 0 && !slices.Contains(ec.AllowedTypes, equip.Type):
		res.Met = false
		res.Expected = "One of " + strings.Join(ec.AllowedTypes, ", ")
		res.Reason = fmt.Sprintf("Equipment type %s not in allowed types", equip.Type)
		return one(res)
	}

	// Unknown equipment age passes the age sub-check: incomplete data on a
	// non-critical field does not penalize the applicant.
	if ec.MaxEquipmentAgeYears != nil && equip.AgeYears != nil {
		res.Expected = fmt.Sprintf("≤ %s", formatYears(*ec.MaxEquipmentAgeYears))
		res.Actual = formatYears(*equip.AgeYears)
		if *equip.AgeYears > *ec.MaxEquipmentAgeYears {
			res.Met = false
			res.Reason = fmt.Sprintf("Equipment age %s exceeds maximum %s",
				formatYears(*equip.AgeYears), formatYears(*ec.MaxEquipmentAgeYears))
			return one(res)
		}
		res.Met = true
		res.Reason = fmt.Sprintf("Within %s", formatYears(*ec.MaxEquipmentAgeYears))
		return one(res)
	}

	res.Met = true
	res.Reason = fmt.Sprintf("Equipment type %s accepted", equip.Type)
	return one(res)
}

// ---------------------------------------------------------------------------
// Minimum revenue
// ---------------------------------------------------------------------------

func (e *CriteriaEvaluator) evalMinRevenue(c model.LenderPolicyCriteria, app model.LoanApplication) []model.CriterionResult {
	if c.MinRevenue == nil {
		return nil
	}
	minRevenue := *c.MinRevenue
	revenue := app.Business.AnnualRevenue

	res := model.CriterionResult{
		Name:     CriterionMinRevenue,
		Expected: fmt.Sprintf("≥ %s", formatMoney(minRevenue)),
		Actual:   formatMoney(revenue),
	}
	if revenue.GreaterThanOrEqual(minRevenue) {
		res.Met = true
		res.Reason = fmt.Sprintf("Annual revenue %s meets minimum %s", formatMoney(revenue), formatMoney(minRevenue))
	} else {
		res.Met = false
		res.Reason = fmt.Sprintf("Annual revenue %s below minimum %s", formatMoney(revenue), formatMoney(minRevenue))
	}
	return one(res)
}

// ---------------------------------------------------------------------------
// Custom rules
// ---------------------------------------------------------------------------

func (e *CriteriaEvaluator) evalCustomRules(c model.LenderPolicyCriteria, app model.LoanApplication) []model.CriterionResult {
	if len(c.CustomRules) == 0 {
		return nil
	}
	results := make([]model.CriterionResult, 0, len(c.CustomRules))
	for _, rule := range c.CustomRules {
		pred, ok := e.predicates[rule.Name]
		if !ok {
			// Unrecognized rule names pass with a note. This silently weakens
			// the policy's intent; pending product confirmation.
			results = append(results, model.CriterionResult{
				Name:   rule.Name,
				Met:    true,
				Reason: "Rule not evaluated (no predicate registered); treated as met",
			})
			continue
		}
		met, reason := pred(app)
		results = append(results, model.CriterionResult{
			Name:   rule.Name,
			Met:    met,
			Reason: reason,
		})
	}
	return results
}

// Built-in predicates over the guarantor's derogatory flags. An unset flag
// counts as clean.

func noBankruptcy(app model.LoanApplication) (bool, string) {
	if app.Guarantor.HasBankruptcy != nil && *app.Guarantor.HasBankruptcy {
		return false, "Guarantor has a bankruptcy on record"
	}
	return true, "No bankruptcy on record"
}

func noTaxLiens(app model.LoanApplication) (bool, string) {
	if app.Guarantor.HasTaxLiens != nil && *app.Guarantor.HasTaxLiens {
		return false, "Guarantor has tax liens on record"
	}
	return true, "No tax liens on record"
}

func noJudgments(app model.LoanApplication) (bool, string) {
	if app.Guarantor.HasJudgments != nil && *app.Guarantor.HasJudgments {
		return false, "Guarantor has judgments on record"
	}
	return true, "No judgments on record"
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func one(r model.CriterionResult) []model.CriterionResult {
	return []model.CriterionResult{r}
}

// formatMoney renders a dollar amount with thousands separators, dropping
// cents when the amount is whole.
func formatMoney(d decimal.Decimal) string {
	whole := d.Truncate(0)
	intPart := whole.BigInt().String()

	neg := strings.HasPrefix(intPart, "-")
	digits := strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	for i, ch := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	grouped := b.String()

	cents := ""
	if !d.Equal(whole) {
		cents = "." + d.Sub(whole).Abs().StringFixed(2)[2:]
	}

	if neg {
		return "-$" + grouped + cents
	}
	return "$" + grouped + cents
}

// formatYears renders a year count, singular when exactly one.
func formatYears(years float64) string {
	s := strconv.FormatFloat(years, 'f', -1, 64)
	if years == 1 {
		return s + " year"
	}
	return s + " years"
}
