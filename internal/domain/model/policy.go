package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// LenderPolicy – a lender's credit box, one or more programs
// ---------------------------------------------------------------------------

// FicoCriteria is a FICO rule: a single band, or tiered score bands.
type FicoCriteria struct {
	MinScore int        `json:"minScore"`
	MaxScore *int       `json:"maxScore,omitempty"`
	Tiered   []FicoTier `json:"tiered,omitempty"`
}

// FicoTier is one named band of a tiered FICO rule.
type FicoTier struct {
	MinScore    int    `json:"minScore"`
	ProgramName string `json:"programName"`
}

// PaynetCriteria bounds the commercial PayNet score.
type PaynetCriteria struct {
	MinScore *int `json:"minScore,omitempty"`
	MaxScore *int `json:"maxScore,omitempty"`
}

// LoanAmountCriteria bounds the financed amount. Mandatory on every program.
type LoanAmountCriteria struct {
	MinAmount decimal.Decimal `json:"minAmount"`
	MaxAmount decimal.Decimal `json:"maxAmount"`
}

// TimeInBusinessCriteria requires a minimum operating history.
type TimeInBusinessCriteria struct {
	MinYears float64 `json:"minYears"`
}

// GeographicCriteria restricts the borrower's state.
type GeographicCriteria struct {
	AllowedStates  []string `json:"allowedStates,omitempty"`
	ExcludedStates []string `json:"excludedStates,omitempty"`
}

// IndustryCriteria restricts the borrower's industry.
type IndustryCriteria struct {
	AllowedIndustries  []string `json:"allowedIndustries,omitempty"`
	ExcludedIndustries []string `json:"excludedIndustries,omitempty"`
}

// EquipmentCriteria restricts the financed asset.
type EquipmentCriteria struct {
	AllowedTypes         []string `json:"allowedTypes,omitempty"`
	ExcludedTypes        []string `json:"excludedTypes,omitempty"`
	MaxEquipmentAgeYears *float64 `json:"maxEquipmentAgeYears,omitempty"`
}

// CustomRule is a named lender-specific rule evaluated by a registered predicate.
type CustomRule struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Expression  *string `json:"expression,omitempty"`
}

// LenderPolicyCriteria is one program's full criteria set. LoanAmount is
// mandatory; every other group is optional and, when absent, not applicable.
type LenderPolicyCriteria struct {
	Fico           *FicoCriteria           `json:"fico,omitempty"`
	Paynet         *PaynetCriteria         `json:"paynet,omitempty"`
	LoanAmount     LoanAmountCriteria      `json:"loanAmount"`
	TimeInBusiness *TimeInBusinessCriteria `json:"timeInBusiness,omitempty"`
	Geographic     *GeographicCriteria     `json:"geographic,omitempty"`
	Industry       *IndustryCriteria       `json:"industry,omitempty"`
	Equipment      *EquipmentCriteria      `json:"equipment,omitempty"`
	MinRevenue     *decimal.Decimal        `json:"minRevenue,omitempty"`
	CustomRules    []CustomRule            `json:"customRules,omitempty"`
}

// Program is a named sub-offer within a lender's policy, often a credit tier.
type Program struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Tier        *string              `json:"tier,omitempty"`
	Description *string              `json:"description,omitempty"`
	Criteria    LenderPolicyCriteria `json:"criteria"`
}

// LenderPolicy is a lender's full credit policy.
type LenderPolicy struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    *string   `json:"description,omitempty"`
	SourceDocument *string   `json:"sourceDocument,omitempty"`
	Programs       []Program `json:"programs"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Validate enforces policy-shape invariants. The storage layer calls this at
// save time; the engine never raises on a malformed policy and instead treats
// the offending program as permanently ineligible.
func (p LenderPolicy) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("policy name is required")
	}
	for _, prog := range p.Programs {
		if prog.Name == "" {
			return fmt.Errorf("program name is required")
		}
		if err := prog.Criteria.Validate(); err != nil {
			return fmt.Errorf("program %q: %w", prog.Name, err)
		}
	}
	return nil
}

// Validate checks a single criteria set.
func (c LenderPolicyCriteria) Validate() error {
	if c.LoanAmount.MinAmount.GreaterThan(c.LoanAmount.MaxAmount) {
		return fmt.Errorf("loan amount minimum %s exceeds maximum %s",
			c.LoanAmount.MinAmount, c.LoanAmount.MaxAmount)
	}
	if c.Fico != nil {
		for _, tier := range c.Fico.Tiered {
			if tier.ProgramName == "" {
				return fmt.Errorf("tiered fico band at score %d missing program name", tier.MinScore)
			}
		}
	}
	return nil
}
