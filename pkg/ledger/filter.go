package ledger

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vinodscode/lendbook/pkg/models"
)

type SortOption string

const (
	SortByName      SortOption = "name"
	SortByAmount    SortOption = "amount"
	SortByDate      SortOption = "date"
	SortByInterest  SortOption = "interest"
	SortByRemaining SortOption = "remaining"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Query describes how to narrow and order a loan snapshot. Zero values mean
// "no constraint": an empty search matches everything, an empty type list
// disables type filtering, and nil amount bounds leave the range open.
type Query struct {
	Search    string
	LoanTypes []models.LoanType
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	SortBy    SortOption
	SortOrder SortOrder
}

// FilterAndSort applies, in order: free-text search, loan-type filter,
// inclusive amount-range filter on the original loan amount, and a stable
// sort. Ties keep their input order. The input slice is not modified.
func FilterAndSort(loans []*models.Loan, q Query) []*models.Loan {
	result := make([]*models.Loan, 0, len(loans))
	search := strings.ToLower(strings.TrimSpace(q.Search))

	for _, loan := range loans {
		if search != "" && !matchesSearch(loan, search) {
			continue
		}
		if len(q.LoanTypes) > 0 && !containsType(q.LoanTypes, loan.LoanType) {
			continue
		}
		if q.MinAmount != nil && loan.Amount.LessThan(*q.MinAmount) {
			continue
		}
		if q.MaxAmount != nil && loan.Amount.GreaterThan(*q.MaxAmount) {
			continue
		}
		result = append(result, loan)
	}

	if q.SortBy != "" {
		desc := q.SortOrder == SortDesc
		sort.SliceStable(result, func(i, j int) bool {
			c := compareLoans(result[i], result[j], q.SortBy)
			if desc {
				return c > 0
			}
			return c < 0
		})
	}

	return result
}

// matchesSearch checks borrower name, loan type and amount-as-text; any one
// substring match is sufficient for inclusion.
func matchesSearch(loan *models.Loan, search string) bool {
	if strings.Contains(strings.ToLower(loan.BorrowerName), search) {
		return true
	}
	if strings.Contains(strings.ToLower(string(loan.LoanType)), search) {
		return true
	}
	return strings.Contains(loan.Amount.String(), search)
}

func containsType(types []models.LoanType, t models.LoanType) bool {
	for _, lt := range types {
		if lt == t {
			return true
		}
	}
	return false
}

func compareLoans(a, b *models.Loan, sortBy SortOption) int {
	switch sortBy {
	case SortByName:
		return strings.Compare(strings.ToLower(a.BorrowerName), strings.ToLower(b.BorrowerName))
	case SortByAmount:
		return a.Amount.Cmp(b.Amount)
	case SortByDate:
		if a.StartDate.Before(b.StartDate) {
			return -1
		}
		if a.StartDate.After(b.StartDate) {
			return 1
		}
		return 0
	case SortByInterest:
		return a.InterestRate.Cmp(b.InterestRate)
	case SortByRemaining:
		return LoanRemainingPrincipal(a).Cmp(LoanRemainingPrincipal(b))
	}
	return 0
}
