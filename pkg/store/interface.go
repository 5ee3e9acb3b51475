package store

import (
	"github.com/google/uuid"

	"github.com/vinodscode/lendbook/pkg/models"
)

// Storage defines the record-store boundary for loans, their payments and the
// independent MOI ledger. Reads return full snapshots; loans always carry
// their nested payments.
type Storage interface {
	CreateLoan(loan *models.Loan) error
	GetLoan(id uuid.UUID) (*models.Loan, error)
	UpdateLoan(loan *models.Loan) error
	DeleteLoan(id uuid.UUID) error
	ListLoans() ([]*models.Loan, error)

	CreatePayment(loanID uuid.UUID, payment *models.Payment) error
	DeletePayment(loanID, paymentID uuid.UUID) error

	CreateMoiEntry(entry *models.MOIEntry) error
	DeleteMoiEntry(id uuid.UUID) error
	ListMoiEntries() ([]*models.MOIEntry, error)

	Close() error
}
