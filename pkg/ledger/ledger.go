// Package ledger computes the derived monetary figures for a loan book.
// Every function is a pure reduction over the snapshot it is given: no
// storage access, no hidden state, safe to re-run on every query.
package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vinodscode/lendbook/pkg/models"
)

var (
	hundred       = decimal.NewFromInt(100)
	monthsPerYear = decimal.NewFromInt(12)
)

// LoanRemainingPrincipal returns the loan's original amount minus all
// principal-type payments, floored at zero. A borrower who overpays principal
// cannot drive the remaining principal negative.
func LoanRemainingPrincipal(loan *models.Loan) decimal.Decimal {
	remaining := loan.Amount.Sub(sumPayments(loan, models.PaymentTypePrincipal))
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// RemainingPrincipal returns the remaining principal for a single loan,
// or zero if the loan is not in the snapshot.
func RemainingPrincipal(loans []*models.Loan, loanID uuid.UUID) decimal.Decimal {
	loan := findLoan(loans, loanID)
	if loan == nil {
		return decimal.Zero
	}
	return LoanRemainingPrincipal(loan)
}

// TotalRemainingPrincipal sums remaining principal across all loans.
func TotalRemainingPrincipal(loans []*models.Loan) decimal.Decimal {
	total := decimal.Zero
	for _, loan := range loans {
		total = total.Add(LoanRemainingPrincipal(loan))
	}
	return total
}

// TotalLent reports the current portfolio exposure: the sum of remaining
// principal, not the sum of original loan amounts.
func TotalLent(loans []*models.Loan) decimal.Decimal {
	return TotalRemainingPrincipal(loans)
}

// InterestReceived sums the interest-type payments on a single loan,
// or zero if the loan is not in the snapshot.
func InterestReceived(loans []*models.Loan, loanID uuid.UUID) decimal.Decimal {
	loan := findLoan(loans, loanID)
	if loan == nil {
		return decimal.Zero
	}
	return sumPayments(loan, models.PaymentTypeInterest)
}

// TotalInterestReceived sums interest-type payments across all loans.
func TotalInterestReceived(loans []*models.Loan) decimal.Decimal {
	total := decimal.Zero
	for _, loan := range loans {
		total = total.Add(sumPayments(loan, models.PaymentTypeInterest))
	}
	return total
}

// PrincipalPaid sums the principal-type payments on a single loan,
// or zero if the loan is not in the snapshot.
func PrincipalPaid(loans []*models.Loan, loanID uuid.UUID) decimal.Decimal {
	loan := findLoan(loans, loanID)
	if loan == nil {
		return decimal.Zero
	}
	return sumPayments(loan, models.PaymentTypePrincipal)
}

// TotalPrincipalPaid sums principal-type payments across all loans.
func TotalPrincipalPaid(loans []*models.Loan) decimal.Decimal {
	total := decimal.Zero
	for _, loan := range loans {
		total = total.Add(sumPayments(loan, models.PaymentTypePrincipal))
	}
	return total
}

// MonthlyInterestOn converts an annual percentage rate into one month of
// interest on the given principal.
func MonthlyInterestOn(principal, annualRate decimal.Decimal) decimal.Decimal {
	return principal.Mul(annualRate).Div(hundred).Div(monthsPerYear)
}

// MonthlyInterest projects one month of interest across the portfolio based
// on each loan's remaining principal. A fully repaid loan contributes zero.
func MonthlyInterest(loans []*models.Loan) decimal.Decimal {
	total := decimal.Zero
	for _, loan := range loans {
		remaining := LoanRemainingPrincipal(loan)
		if !remaining.IsPositive() {
			continue
		}
		total = total.Add(MonthlyInterestOn(remaining, loan.InterestRate))
	}
	return total
}

// PartitionByStatus splits the snapshot into active loans (remaining
// principal > 0) and completed loans. Every loan lands in exactly one side.
func PartitionByStatus(loans []*models.Loan) (active, completed []*models.Loan) {
	active = []*models.Loan{}
	completed = []*models.Loan{}
	for _, loan := range loans {
		if LoanRemainingPrincipal(loan).IsPositive() {
			active = append(active, loan)
		} else {
			completed = append(completed, loan)
		}
	}
	return active, completed
}

// TotalMoi sums the amounts of the independent MOI ledger.
func TotalMoi(entries []*models.MOIEntry) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range entries {
		total = total.Add(entry.Amount)
	}
	return total
}

func findLoan(loans []*models.Loan, loanID uuid.UUID) *models.Loan {
	for _, loan := range loans {
		if loan.ID == loanID {
			return loan
		}
	}
	return nil
}

func sumPayments(loan *models.Loan, paymentType models.PaymentType) decimal.Decimal {
	total := decimal.Zero
	for _, p := range loan.Payments {
		if p.Type == paymentType {
			total = total.Add(p.Amount)
		}
	}
	return total
}
