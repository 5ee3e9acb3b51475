package reminder

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinodscode/lendbook/pkg/models"
)

// mockStore is a simple in-memory implementation of the Storage interface
// for testing.
type mockStore struct {
	loans map[uuid.UUID]*models.Loan
}

func newMockStore() *mockStore {
	return &mockStore{loans: make(map[uuid.UUID]*models.Loan)}
}

func (m *mockStore) CreateLoan(loan *models.Loan) error {
	m.loans[loan.ID] = loan
	return nil
}

func (m *mockStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	loan, ok := m.loans[id]
	if !ok {
		return nil, fmt.Errorf("loan not found")
	}
	return loan, nil
}

func (m *mockStore) UpdateLoan(loan *models.Loan) error {
	m.loans[loan.ID] = loan
	return nil
}

func (m *mockStore) DeleteLoan(id uuid.UUID) error {
	delete(m.loans, id)
	return nil
}

func (m *mockStore) ListLoans() ([]*models.Loan, error) {
	loans := []*models.Loan{}
	for _, l := range m.loans {
		loans = append(loans, l)
	}
	return loans, nil
}

func (m *mockStore) CreatePayment(loanID uuid.UUID, payment *models.Payment) error {
	loan, ok := m.loans[loanID]
	if !ok {
		return fmt.Errorf("loan not found")
	}
	loan.Payments = append(loan.Payments, payment)
	return nil
}

func (m *mockStore) DeletePayment(loanID, paymentID uuid.UUID) error {
	loan, ok := m.loans[loanID]
	if !ok {
		return fmt.Errorf("loan not found")
	}
	for i, p := range loan.Payments {
		if p.ID == paymentID {
			loan.Payments = append(loan.Payments[:i], loan.Payments[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("payment not found")
}

func (m *mockStore) CreateMoiEntry(entry *models.MOIEntry) error { return nil }
func (m *mockStore) DeleteMoiEntry(id uuid.UUID) error           { return nil }
func (m *mockStore) ListMoiEntries() ([]*models.MOIEntry, error) { return nil, nil }
func (m *mockStore) Close() error                                { return nil }

func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func loanStarting(start time.Time, amount, rate int64) *models.Loan {
	return &models.Loan{
		ID:           uuid.New(),
		BorrowerName: "Ravi",
		Amount:       decimal.NewFromInt(amount),
		InterestRate: decimal.NewFromInt(rate),
		StartDate:    start,
		LoanType:     models.LoanTypeBond,
		Payments:     []*models.Payment{},
	}
}

func TestScan(t *testing.T) {
	t.Run("due_in_window", func(t *testing.T) {
		// Due day 15, now the 10th: exactly one reminder for the 15th.
		loan := loanStarting(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 120000, 12)
		s := NewScanner(clockAt(time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)), 7)

		reminders := s.Scan([]*models.Loan{loan})
		require.Len(t, reminders, 1)
		assert.Equal(t, loan.ID, reminders[0].LoanID)
		assert.Equal(t, "Ravi", reminders[0].BorrowerName)
		assert.Equal(t, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), reminders[0].DueDate)
		assert.True(t, reminders[0].InterestAmount.Equal(decimal.NewFromInt(1200)),
			"expected 1200, got %s", reminders[0].InterestAmount)
	})

	t.Run("suppressed_by_interest_payment_same_month", func(t *testing.T) {
		loan := loanStarting(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 120000, 12)
		loan.Payments = append(loan.Payments, &models.Payment{
			ID:     uuid.New(),
			Amount: decimal.NewFromInt(1200),
			Date:   time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), // any day in the due month
			Type:   models.PaymentTypeInterest,
		})
		s := NewScanner(clockAt(time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)), 7)

		assert.Empty(t, s.Scan([]*models.Loan{loan}))
	})

	t.Run("principal_payment_does_not_suppress", func(t *testing.T) {
		loan := loanStarting(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 120000, 12)
		loan.Payments = append(loan.Payments, &models.Payment{
			ID:     uuid.New(),
			Amount: decimal.NewFromInt(5000),
			Date:   time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
			Type:   models.PaymentTypePrincipal,
		})
		s := NewScanner(clockAt(time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)), 7)

		assert.Len(t, s.Scan([]*models.Loan{loan}), 1)
	})

	t.Run("window_straddles_month_boundary", func(t *testing.T) {
		// Now is the last day of May; due day 3 lands inside the 7-day
		// window, due day 10 does not.
		now := time.Date(2024, 5, 31, 9, 0, 0, 0, time.UTC)
		inWindow := loanStarting(time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), 60000, 10)
		outOfWindow := loanStarting(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), 60000, 10)
		s := NewScanner(clockAt(now), 7)

		reminders := s.Scan([]*models.Loan{inWindow, outOfWindow})
		require.Len(t, reminders, 1)
		assert.Equal(t, inWindow.ID, reminders[0].LoanID)
		assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), reminders[0].DueDate)
	})

	t.Run("short_month_clamps_due_day", func(t *testing.T) {
		// Due day 31 in April resolves to April 30, not May 1.
		loan := loanStarting(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 60000, 10)
		s := NewScanner(clockAt(time.Date(2024, 4, 25, 9, 0, 0, 0, time.UTC)), 7)

		reminders := s.Scan([]*models.Loan{loan})
		require.Len(t, reminders, 1)
		assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), reminders[0].DueDate)
	})

	t.Run("no_reminder_between_cycles", func(t *testing.T) {
		// Due day already passed this month and next month's is beyond the
		// window: nothing due.
		loan := loanStarting(time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), 60000, 10)
		s := NewScanner(clockAt(time.Date(2024, 5, 25, 9, 0, 0, 0, time.UTC)), 7)

		assert.Empty(t, s.Scan([]*models.Loan{loan}))
	})

	t.Run("sorted_by_due_date", func(t *testing.T) {
		later := loanStarting(time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), 60000, 10)
		sooner := loanStarting(time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), 60000, 10)
		s := NewScanner(clockAt(time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)), 7)

		reminders := s.Scan([]*models.Loan{later, sooner})
		require.Len(t, reminders, 2)
		assert.Equal(t, sooner.ID, reminders[0].LoanID)
		assert.Equal(t, later.ID, reminders[1].LoanID)
	})

	t.Run("interest_amount_uses_original_amount", func(t *testing.T) {
		// Reminders state the nominal monthly obligation even after
		// principal payments reduced the exposure.
		loan := loanStarting(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 120000, 12)
		loan.Payments = append(loan.Payments, &models.Payment{
			ID:     uuid.New(),
			Amount: decimal.NewFromInt(60000),
			Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Type:   models.PaymentTypePrincipal,
		})
		s := NewScanner(clockAt(time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)), 7)

		reminders := s.Scan([]*models.Loan{loan})
		require.Len(t, reminders, 1)
		assert.True(t, reminders[0].InterestAmount.Equal(decimal.NewFromInt(1200)),
			"expected 1200 on the original amount, got %s", reminders[0].InterestAmount)
	})
}

func TestMarkPaid(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	s := NewScanner(clockAt(now), 7)

	t.Run("creates_interest_payment", func(t *testing.T) {
		storage := newMockStore()
		loan := loanStarting(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 120000, 12)
		require.NoError(t, storage.CreateLoan(loan))

		rem := Reminder{
			LoanID:         loan.ID,
			BorrowerName:   loan.BorrowerName,
			DueDate:        time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
			InterestAmount: decimal.NewFromInt(1200),
		}
		payment, err := s.MarkPaid(storage, rem)
		require.NoError(t, err)

		assert.Equal(t, models.PaymentTypeInterest, payment.Type)
		assert.True(t, payment.Amount.Equal(decimal.NewFromInt(1200)))
		assert.Equal(t, now, payment.Date)
		assert.Equal(t, "Interest payment for May 2024", payment.Notes)
		require.Len(t, loan.Payments, 1)

		// The paid period no longer produces a reminder.
		assert.Empty(t, s.Scan([]*models.Loan{loan}))
	})

	t.Run("deleted_loan_is_an_explicit_error", func(t *testing.T) {
		storage := newMockStore()
		rem := Reminder{
			LoanID:         uuid.New(),
			DueDate:        time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
			InterestAmount: decimal.NewFromInt(1200),
		}
		_, err := s.MarkPaid(storage, rem)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loan not found")
	})
}

func TestNewScannerDefaults(t *testing.T) {
	s := NewScanner(nil, 0)
	assert.Equal(t, DefaultWindowDays, s.WindowDays)
	assert.NotNil(t, s.Now)
}
