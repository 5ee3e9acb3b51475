// Package reminder identifies loans whose monthly interest falls due within
// a rolling look-ahead window. The scan is a pure function of the loan
// snapshot and an injected clock; only MarkPaid touches storage.
package reminder

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vinodscode/lendbook/pkg/ledger"
	"github.com/vinodscode/lendbook/pkg/models"
	"github.com/vinodscode/lendbook/pkg/store"
)

const DefaultWindowDays = 7

// Scanner computes interest-due reminders. Now is injectable so that
// window-boundary and month-rollover behavior can be tested deterministically.
type Scanner struct {
	Now        func() time.Time
	WindowDays int
}

func NewScanner(now func() time.Time, windowDays int) *Scanner {
	if now == nil {
		now = time.Now
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Scanner{Now: now, WindowDays: windowDays}
}

// Reminder is a computed notice that a loan's periodic interest is due and
// unpaid for the period. InterestAmount is the nominal monthly obligation on
// the original loan amount, not the current exposure.
type Reminder struct {
	LoanID         uuid.UUID       `json:"loan_id"`
	BorrowerName   string          `json:"borrower_name"`
	DueDate        time.Time       `json:"due_date"`
	InterestAmount decimal.Decimal `json:"interest_amount"`
}

// Scan returns the reminders due within the look-ahead window, ascending by
// due date. A loan is skipped for a period if it already has an interest
// payment dated in the same calendar month and year as the due date.
func (s *Scanner) Scan(loans []*models.Loan) []Reminder {
	now := s.Now()
	windowStart := startOfDay(now)
	windowEnd := endOfDay(now.AddDate(0, 0, s.WindowDays))

	reminders := []Reminder{}
	for _, loan := range loans {
		dueDay := loan.StartDate.Day()
		monthly := ledger.MonthlyInterestOn(loan.Amount, loan.InterestRate)

		// One candidate in the current month, one in the next, so a window
		// straddling a month boundary still sees the upcoming due date.
		thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		nextMonth := thisMonth.AddDate(0, 1, 0)

		candidates := []time.Time{
			dueDateIn(thisMonth.Year(), thisMonth.Month(), dueDay, now.Location()),
			dueDateIn(nextMonth.Year(), nextMonth.Month(), dueDay, now.Location()),
		}

		for _, dueDate := range candidates {
			if dueDate.Before(windowStart) || dueDate.After(windowEnd) {
				continue
			}
			if hasInterestPaymentIn(loan, dueDate.Year(), dueDate.Month()) {
				continue
			}
			reminders = append(reminders, Reminder{
				LoanID:         loan.ID,
				BorrowerName:   loan.BorrowerName,
				DueDate:        dueDate,
				InterestAmount: monthly,
			})
		}
	}

	sort.Slice(reminders, func(i, j int) bool {
		return reminders[i].DueDate.Before(reminders[j].DueDate)
	})
	return reminders
}

// MarkPaid records the reminder's interest as received: exactly one interest
// payment dated now, noted with the covered month. It fails explicitly when
// the loan no longer exists, since that represents a failed write attempt.
func (s *Scanner) MarkPaid(storage store.Storage, rem Reminder) (*models.Payment, error) {
	if _, err := storage.GetLoan(rem.LoanID); err != nil {
		return nil, fmt.Errorf("mark reminder paid: %w", err)
	}

	payment := &models.Payment{
		ID:     uuid.New(),
		Amount: rem.InterestAmount,
		Date:   s.Now(),
		Type:   models.PaymentTypeInterest,
		Notes:  fmt.Sprintf("Interest payment for %s", rem.DueDate.Format("January 2006")),
	}
	if err := storage.CreatePayment(rem.LoanID, payment); err != nil {
		return nil, fmt.Errorf("mark reminder paid: %w", err)
	}
	return payment, nil
}

// dueDateIn resolves the due day within a month. A due day beyond the
// month's length clamps to the month's last day (day 31 in April resolves to
// April 30), so every calendar month yields exactly one due date.
func dueDateIn(year int, month time.Month, day int, loc *time.Location) time.Time {
	if last := lastDayOf(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func lastDayOf(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func hasInterestPaymentIn(loan *models.Loan, year int, month time.Month) bool {
	for _, p := range loan.Payments {
		if p.Type == models.PaymentTypeInterest && p.Date.Year() == year && p.Date.Month() == month {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
