package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vinodscode/lendbook/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore and initializes the database.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	// Manually enable foreign keys and WAL mode
	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	_, err = db.Exec("PRAGMA journal_mode = WAL;")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	log.Println("Database connection established and schema initialized.")
	return s, nil
}

// initSchema creates the database tables if they don't already exist.
// We use TEXT for decimal fields in SQLite to ensure no precision is lost.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		borrower_name TEXT NOT NULL,
		amount TEXT NOT NULL,
		interest_rate TEXT NOT NULL,
		start_date DATETIME NOT NULL,
		loan_type TEXT NOT NULL,
		gold_grams TEXT,
		notes TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		payment_date DATETIME NOT NULL,
		payment_type TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		FOREIGN KEY(loan_id) REFERENCES loans(id)
	);
	CREATE TABLE IF NOT EXISTS moi_entries (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		entry_date DATETIME NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateLoan inserts a new loan into the database.
func (s *SQLiteStore) CreateLoan(loan *models.Loan) error {
	_, err := s.db.Exec(
		`INSERT INTO loans (id, borrower_name, amount, interest_rate, start_date, loan_type, gold_grams, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID.String(), loan.BorrowerName, loan.Amount, loan.InterestRate, loan.StartDate, string(loan.LoanType), goldGramsValue(loan.GoldGrams), loan.Notes, loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// GetLoan retrieves a loan by its ID, including its payments.
func (s *SQLiteStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	row := s.db.QueryRow(`SELECT id, borrower_name, amount, interest_rate, start_date, loan_type, gold_grams, notes, created_at, updated_at FROM loans WHERE id = ?`, id.String())

	loan, err := scanLoan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("loan not found")
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}

	payments, err := s.paymentsForLoan(id)
	if err != nil {
		return nil, err
	}
	loan.Payments = payments
	return loan, nil
}

// UpdateLoan updates the editable fields of an existing loan. The original
// amount is fixed at creation and never written by this path.
func (s *SQLiteStore) UpdateLoan(loan *models.Loan) error {
	result, err := s.db.Exec(
		`UPDATE loans SET borrower_name = ?, interest_rate = ?, start_date = ?, loan_type = ?, gold_grams = ?, notes = ?, updated_at = ? WHERE id = ?`,
		loan.BorrowerName, loan.InterestRate, loan.StartDate, string(loan.LoanType), goldGramsValue(loan.GoldGrams), loan.Notes, loan.UpdatedAt, loan.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("loan not found")
	}
	return nil
}

// DeleteLoan removes a loan and its payments from the database within a transaction.
func (s *SQLiteStore) DeleteLoan(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`DELETE FROM payments WHERE loan_id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete associated payments: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM loans WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("loan not found")
	}

	return tx.Commit()
}

// ListLoans retrieves all loans with their payments nested, newest loan first.
func (s *SQLiteStore) ListLoans() ([]*models.Loan, error) {
	rows, err := s.db.Query(`SELECT id, borrower_name, amount, interest_rate, start_date, loan_type, gold_grams, notes, created_at, updated_at FROM loans ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	loans := []*models.Loan{}
	byID := map[uuid.UUID]*models.Loan{}
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loan.Payments = []*models.Payment{}
		loans = append(loans, loan)
		byID[loan.ID] = loan
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}

	paymentRows, err := s.db.Query(`SELECT id, loan_id, amount, payment_date, payment_type, notes FROM payments ORDER BY payment_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer paymentRows.Close()

	for paymentRows.Next() {
		payment, loanID, err := scanPayment(paymentRows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		if loan, ok := byID[loanID]; ok {
			loan.Payments = append(loan.Payments, payment)
		}
	}
	if err := paymentRows.Err(); err != nil {
		return nil, fmt.Errorf("error during payment rows iteration: %w", err)
	}

	return loans, nil
}

// CreatePayment inserts a new payment for the given loan.
func (s *SQLiteStore) CreatePayment(loanID uuid.UUID, payment *models.Payment) error {
	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM loans WHERE id = ?`, loanID.String()).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("loan not found")
	}
	if err != nil {
		return fmt.Errorf("failed to check loan: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO payments (id, loan_id, amount, payment_date, payment_type, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		payment.ID.String(), loanID.String(), payment.Amount, payment.Date, string(payment.Type), payment.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// DeletePayment removes a single payment belonging to the given loan.
func (s *SQLiteStore) DeletePayment(loanID, paymentID uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM payments WHERE id = ? AND loan_id = ?`, paymentID.String(), loanID.String())
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("payment not found")
	}
	return nil
}

// CreateMoiEntry inserts a new MOI ledger entry.
func (s *SQLiteStore) CreateMoiEntry(entry *models.MOIEntry) error {
	_, err := s.db.Exec(
		`INSERT INTO moi_entries (id, name, amount, entry_date, description)
		VALUES (?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.Name, entry.Amount, entry.Date, entry.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to create moi entry: %w", err)
	}
	return nil
}

// DeleteMoiEntry removes a MOI ledger entry by its ID.
func (s *SQLiteStore) DeleteMoiEntry(id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM moi_entries WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete moi entry: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("moi entry not found")
	}
	return nil
}

// ListMoiEntries retrieves all MOI ledger entries, newest first.
func (s *SQLiteStore) ListMoiEntries() ([]*models.MOIEntry, error) {
	rows, err := s.db.Query(`SELECT id, name, amount, entry_date, description FROM moi_entries ORDER BY entry_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list moi entries: %w", err)
	}
	defer rows.Close()

	entries := []*models.MOIEntry{}
	for rows.Next() {
		var entry models.MOIEntry
		var idStr string
		var date time.Time
		if err := rows.Scan(&idStr, &entry.Name, &entry.Amount, &date, &entry.Description); err != nil {
			return nil, fmt.Errorf("failed to scan moi entry row: %w", err)
		}
		entry.ID = uuid.MustParse(idStr)
		entry.Date = date
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return entries, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLoan(row rowScanner) (*models.Loan, error) {
	var loan models.Loan
	var idStr, loanType string
	var goldGrams sql.NullString
	var startDate, created, updated time.Time

	err := row.Scan(&idStr, &loan.BorrowerName, &loan.Amount, &loan.InterestRate, &startDate, &loanType, &goldGrams, &loan.Notes, &created, &updated)
	if err != nil {
		return nil, err
	}

	loan.ID = uuid.MustParse(idStr)
	loan.StartDate = startDate
	loan.LoanType = models.LoanType(loanType)
	loan.CreatedAt = created
	loan.UpdatedAt = updated
	if goldGrams.Valid {
		g, err := decimal.NewFromString(goldGrams.String)
		if err != nil {
			return nil, fmt.Errorf("invalid gold grams value %q: %w", goldGrams.String, err)
		}
		loan.GoldGrams = &g
	}
	return &loan, nil
}

func scanPayment(row rowScanner) (*models.Payment, uuid.UUID, error) {
	var payment models.Payment
	var idStr, loanIDStr, paymentType string
	var date time.Time

	err := row.Scan(&idStr, &loanIDStr, &payment.Amount, &date, &paymentType, &payment.Notes)
	if err != nil {
		return nil, uuid.Nil, err
	}

	payment.ID = uuid.MustParse(idStr)
	payment.Date = date
	payment.Type = models.PaymentType(paymentType)
	return &payment, uuid.MustParse(loanIDStr), nil
}

func (s *SQLiteStore) paymentsForLoan(loanID uuid.UUID) ([]*models.Payment, error) {
	rows, err := s.db.Query(`SELECT id, loan_id, amount, payment_date, payment_type, notes FROM payments WHERE loan_id = ? ORDER BY payment_date ASC`, loanID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get payments for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	payments := []*models.Payment{}
	for rows.Next() {
		payment, _, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for loan payments: %w", err)
	}
	return payments, nil
}

func goldGramsValue(g *decimal.Decimal) interface{} {
	if g == nil {
		return nil
	}
	return g.String()
}
