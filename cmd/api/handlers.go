package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/vinodscode/lendbook/pkg/ledger"
	"github.com/vinodscode/lendbook/pkg/models"
	"github.com/vinodscode/lendbook/pkg/reminder"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// storeError maps the store's not-found errors to 404 and everything else
// to 500.
func storeError(w http.ResponseWriter, err error) {
	msg := err.Error()
	if msg == "loan not found" || msg == "payment not found" || msg == "moi entry not found" {
		http.Error(w, msg, http.StatusNotFound)
		return
	}
	slog.Error("store operation failed", "error", err)
	http.Error(w, msg, http.StatusInternalServerError)
}

func parseIDVar(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}

func (s *Server) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	loans, err := s.storage.ListLoans()
	if err != nil {
		storeError(w, err)
		return
	}

	params := r.URL.Query()
	query := ledger.Query{
		Search:    params.Get("q"),
		SortBy:    ledger.SortOption(params.Get("sort_by")),
		SortOrder: ledger.SortOrder(params.Get("sort_order")),
	}
	for _, t := range params["type"] {
		query.LoanTypes = append(query.LoanTypes, models.LoanType(t))
	}
	if v := params.Get("min_amount"); v != "" {
		min, err := decimal.NewFromString(v)
		if err != nil {
			http.Error(w, "invalid min_amount", http.StatusBadRequest)
			return
		}
		query.MinAmount = &min
	}
	if v := params.Get("max_amount"); v != "" {
		max, err := decimal.NewFromString(v)
		if err != nil {
			http.Error(w, "invalid max_amount", http.StatusBadRequest)
			return
		}
		query.MaxAmount = &max
	}

	respondJSON(w, http.StatusOK, ledger.FilterAndSort(loans, query))
}

type loanRequest struct {
	BorrowerName string           `json:"borrower_name"`
	Amount       decimal.Decimal  `json:"amount"`
	InterestRate decimal.Decimal  `json:"interest_rate"`
	StartDate    time.Time        `json:"start_date"`
	LoanType     models.LoanType  `json:"loan_type"`
	GoldGrams    *decimal.Decimal `json:"gold_grams"`
	Notes        string           `json:"notes"`
}

func (req *loanRequest) validate() string {
	if strings.TrimSpace(req.BorrowerName) == "" {
		return "borrower name is required"
	}
	if !req.Amount.IsPositive() {
		return "amount must be greater than 0"
	}
	if req.InterestRate.IsNegative() || req.InterestRate.GreaterThan(decimal.NewFromInt(100)) {
		return "interest rate must be between 0 and 100"
	}
	switch req.LoanType {
	case models.LoanTypeGold:
		if req.GoldGrams == nil || !req.GoldGrams.IsPositive() {
			return "gold grams must be greater than 0 for Gold loans"
		}
	case models.LoanTypeBond:
		// Bond loans carry no gold backing.
	default:
		return "loan type must be Gold or Bond"
	}
	return ""
}

func (s *Server) createLoanHandler(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if msg := req.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if req.StartDate.IsZero() {
		req.StartDate = s.scanner.Now()
	}
	if req.LoanType != models.LoanTypeGold {
		req.GoldGrams = nil
	}

	now := s.scanner.Now()
	loan := &models.Loan{
		ID:           uuid.New(),
		BorrowerName: strings.TrimSpace(req.BorrowerName),
		Amount:       req.Amount,
		InterestRate: req.InterestRate,
		StartDate:    req.StartDate,
		LoanType:     req.LoanType,
		GoldGrams:    req.GoldGrams,
		Notes:        req.Notes,
		Payments:     []*models.Payment{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.CreateLoan(loan); err != nil {
		storeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, loan)
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := parseIDVar(r, "id")
	if err != nil {
		http.Error(w, "invalid loan ID", http.StatusBadRequest)
		return
	}

	loan, err := s.storage.GetLoan(loanID)
	if err != nil {
		storeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, loan)
}

// updateLoanHandler applies a partial update. The request carries no amount
// field: the original principal is fixed at creation and cannot be edited.
func (s *Server) updateLoanHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := parseIDVar(r, "id")
	if err != nil {
		http.Error(w, "invalid loan ID", http.StatusBadRequest)
		return
	}

	var req struct {
		BorrowerName *string          `json:"borrower_name"`
		InterestRate *decimal.Decimal `json:"interest_rate"`
		StartDate    *time.Time       `json:"start_date"`
		LoanType     *models.LoanType `json:"loan_type"`
		GoldGrams    *decimal.Decimal `json:"gold_grams"`
		Notes        *string          `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	loan, err := s.storage.GetLoan(loanID)
	if err != nil {
		storeError(w, err)
		return
	}

	if req.BorrowerName != nil {
		loan.BorrowerName = strings.TrimSpace(*req.BorrowerName)
	}
	if req.InterestRate != nil {
		loan.InterestRate = *req.InterestRate
	}
	if req.StartDate != nil {
		loan.StartDate = *req.StartDate
	}
	if req.LoanType != nil {
		loan.LoanType = *req.LoanType
	}
	if req.GoldGrams != nil {
		loan.GoldGrams = req.GoldGrams
	}
	if req.Notes != nil {
		loan.Notes = *req.Notes
	}

	check := loanRequest{
		BorrowerName: loan.BorrowerName,
		Amount:       loan.Amount,
		InterestRate: loan.InterestRate,
		LoanType:     loan.LoanType,
		GoldGrams:    loan.GoldGrams,
	}
	if msg := check.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if loan.LoanType != models.LoanTypeGold {
		loan.GoldGrams = nil
	}
	loan.UpdatedAt = s.scanner.Now()

	if err := s.storage.UpdateLoan(loan); err != nil {
		storeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, loan)
}

func (s *Server) deleteLoanHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := parseIDVar(r, "id")
	if err != nil {
		http.Error(w, "invalid loan ID", http.StatusBadRequest)
		return
	}

	if err := s.storage.DeleteLoan(loanID); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createPaymentHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := parseIDVar(r, "id")
	if err != nil {
		http.Error(w, "invalid loan ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Amount decimal.Decimal    `json:"amount"`
		Date   time.Time          `json:"date"`
		Type   models.PaymentType `json:"type"`
		Notes  string             `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !req.Amount.IsPositive() {
		http.Error(w, "amount must be greater than 0", http.StatusBadRequest)
		return
	}
	if req.Type != models.PaymentTypePrincipal && req.Type != models.PaymentTypeInterest {
		http.Error(w, "payment type must be principal or interest", http.StatusBadRequest)
		return
	}
	if req.Date.IsZero() {
		req.Date = s.scanner.Now()
	}

	payment := &models.Payment{
		ID:     uuid.New(),
		Amount: req.Amount,
		Date:   req.Date,
		Type:   req.Type,
		Notes:  req.Notes,
	}
	if err := s.storage.CreatePayment(loanID, payment); err != nil {
		storeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, payment)
}

func (s *Server) deletePaymentHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := parseIDVar(r, "id")
	if err != nil {
		http.Error(w, "invalid loan ID", http.StatusBadRequest)
		return
	}
	paymentID, err := parseIDVar(r, "paymentId")
	if err != nil {
		http.Error(w, "invalid payment ID", http.StatusBadRequest)
		return
	}

	if err := s.storage.DeletePayment(loanID, paymentID); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type summaryResponse struct {
	TotalLent             decimal.Decimal `json:"total_lent"`
	MonthlyInterest       decimal.Decimal `json:"monthly_interest"`
	TotalInterestReceived decimal.Decimal `json:"total_interest_received"`
	TotalPrincipalPaid    decimal.Decimal `json:"total_principal_paid"`
	RemainingPrincipal    decimal.Decimal `json:"remaining_principal"`
	ActiveLoans           int             `json:"active_loans"`
	CompletedLoans        int             `json:"completed_loans"`
	TotalMoi              decimal.Decimal `json:"total_moi"`
}

func (s *Server) summaryHandler(w http.ResponseWriter, r *http.Request) {
	loans, err := s.storage.ListLoans()
	if err != nil {
		storeError(w, err)
		return
	}
	entries, err := s.storage.ListMoiEntries()
	if err != nil {
		storeError(w, err)
		return
	}

	active, completed := ledger.PartitionByStatus(loans)
	respondJSON(w, http.StatusOK, summaryResponse{
		TotalLent:             ledger.TotalLent(loans),
		MonthlyInterest:       ledger.MonthlyInterest(loans),
		TotalInterestReceived: ledger.TotalInterestReceived(loans),
		TotalPrincipalPaid:    ledger.TotalPrincipalPaid(loans),
		RemainingPrincipal:    ledger.TotalRemainingPrincipal(loans),
		ActiveLoans:           len(active),
		CompletedLoans:        len(completed),
		TotalMoi:              ledger.TotalMoi(entries),
	})
}

func (s *Server) listRemindersHandler(w http.ResponseWriter, r *http.Request) {
	loans, err := s.storage.ListLoans()
	if err != nil {
		storeError(w, err)
		return
	}

	scanner := s.scanner
	if v := r.URL.Query().Get("window"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid window", http.StatusBadRequest)
			return
		}
		scanner = reminder.NewScanner(s.scanner.Now, n)
	}

	respondJSON(w, http.StatusOK, scanner.Scan(loans))
}

func (s *Server) markReminderPaidHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LoanID  uuid.UUID `json:"loan_id"`
		DueDate time.Time `json:"due_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.DueDate.IsZero() {
		http.Error(w, "due_date is required", http.StatusBadRequest)
		return
	}

	loan, err := s.storage.GetLoan(req.LoanID)
	if err != nil {
		storeError(w, err)
		return
	}

	rem := reminder.Reminder{
		LoanID:         loan.ID,
		BorrowerName:   loan.BorrowerName,
		DueDate:        req.DueDate,
		InterestAmount: ledger.MonthlyInterestOn(loan.Amount, loan.InterestRate),
	}
	payment, err := s.scanner.MarkPaid(s.storage, rem)
	if err != nil {
		slog.Error("failed to mark reminder paid", "loan_id", req.LoanID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, payment)
}

func (s *Server) payoffHandler(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	amount, err := decimal.NewFromString(params.Get("amount"))
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}
	rate, err := decimal.NewFromString(params.Get("rate"))
	if err != nil {
		http.Error(w, "invalid rate", http.StatusBadRequest)
		return
	}
	payment, err := decimal.NewFromString(params.Get("payment"))
	if err != nil {
		http.Error(w, "invalid payment", http.StatusBadRequest)
		return
	}

	estimate, err := ledger.EstimatePayoff(amount, rate, payment)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, http.StatusOK, estimate)
}

func (s *Server) listMoiHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := s.storage.ListMoiEntries()
	if err != nil {
		storeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Entries []*models.MOIEntry `json:"entries"`
		Total   decimal.Decimal    `json:"total"`
	}{Entries: entries, Total: ledger.TotalMoi(entries)})
}

func (s *Server) createMoiHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string          `json:"name"`
		Amount      decimal.Decimal `json:"amount"`
		Date        time.Time       `json:"date"`
		Description string          `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if req.Date.IsZero() {
		req.Date = s.scanner.Now()
	}

	entry := &models.MOIEntry{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Amount:      req.Amount,
		Date:        req.Date,
		Description: req.Description,
	}
	if err := s.storage.CreateMoiEntry(entry); err != nil {
		storeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

func (s *Server) deleteMoiHandler(w http.ResponseWriter, r *http.Request) {
	entryID, err := parseIDVar(r, "id")
	if err != nil {
		http.Error(w, "invalid entry ID", http.StatusBadRequest)
		return
	}

	if err := s.storage.DeleteMoiEntry(entryID); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
