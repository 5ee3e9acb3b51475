package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LoanType string

const (
	LoanTypeGold LoanType = "Gold"
	LoanTypeBond LoanType = "Bond"
)

type Loan struct {
	ID           uuid.UUID        `json:"id"`
	BorrowerName string           `json:"borrower_name"`
	Amount       decimal.Decimal  `json:"amount"`        // Original principal, fixed at creation
	InterestRate decimal.Decimal  `json:"interest_rate"` // Annual percentage, 0-100
	StartDate    time.Time        `json:"start_date"`    // Day-of-month determines the monthly interest due day
	LoanType     LoanType         `json:"loan_type"`
	GoldGrams    *decimal.Decimal `json:"gold_grams,omitempty"` // Set for Gold loans only
	Notes        string           `json:"notes,omitempty"`
	Payments     []*Payment       `json:"payments"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type PaymentType string

const (
	PaymentTypePrincipal PaymentType = "principal"
	PaymentTypeInterest  PaymentType = "interest"
)

// Payment is a single recorded transfer against a loan. A payment belongs to
// exactly one loan and is never updated in place; edits are delete+recreate.
type Payment struct {
	ID     uuid.UUID       `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	Type   PaymentType     `json:"type"`
	Notes  string          `json:"notes,omitempty"`
}

// MOIEntry is an independent ledger record with no relation to the loan book.
type MOIEntry struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
}
