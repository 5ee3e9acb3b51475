package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// maxPayoffMonths caps the simulation for payments that barely outpace the
// accruing interest.
const maxPayoffMonths = 1000

type PayoffEstimate struct {
	Months        int             `json:"months"`
	TotalInterest decimal.Decimal `json:"total_interest"`
	TotalPayment  decimal.Decimal `json:"total_payment"`
}

// EstimatePayoff simulates repaying a loan with a fixed monthly payment and
// reports how many months it takes and what the interest costs. It errors
// when the payment cannot cover the interest accruing each month.
func EstimatePayoff(amount, annualRate, monthlyPayment decimal.Decimal) (PayoffEstimate, error) {
	if !amount.IsPositive() {
		return PayoffEstimate{}, fmt.Errorf("loan amount must be positive")
	}
	if annualRate.IsNegative() {
		return PayoffEstimate{}, fmt.Errorf("interest rate cannot be negative")
	}
	if !monthlyPayment.IsPositive() {
		return PayoffEstimate{}, fmt.Errorf("monthly payment must be positive")
	}

	balance := amount
	totalInterest := decimal.Zero
	months := 0

	for balance.IsPositive() && months < maxPayoffMonths {
		interestForMonth := MonthlyInterestOn(balance, annualRate)
		totalInterest = totalInterest.Add(interestForMonth)

		principalPayment := monthlyPayment.Sub(interestForMonth)
		if !principalPayment.IsPositive() {
			return PayoffEstimate{}, fmt.Errorf("monthly payment %s does not cover accruing interest", monthlyPayment)
		}
		if principalPayment.GreaterThan(balance) {
			principalPayment = balance
		}

		balance = balance.Sub(principalPayment)
		months++
	}

	return PayoffEstimate{
		Months:        months,
		TotalInterest: totalInterest,
		TotalPayment:  amount.Add(totalInterest),
	}, nil
}
