package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"

	"github.com/vinodscode/lendbook/pkg/config"
	"github.com/vinodscode/lendbook/pkg/reminder"
	"github.com/vinodscode/lendbook/pkg/store"
)

// Server holds the storage and the reminder scanner.
type Server struct {
	storage store.Storage
	scanner *reminder.Scanner
}

func NewServer(s store.Storage, scanner *reminder.Scanner) *Server {
	return &Server{
		storage: s,
		scanner: scanner,
	}
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/loans", s.listLoansHandler).Methods("GET")
	router.HandleFunc("/loans", s.createLoanHandler).Methods("POST")
	router.HandleFunc("/loans/{id}", s.getLoanHandler).Methods("GET")
	router.HandleFunc("/loans/{id}", s.updateLoanHandler).Methods("PUT")
	router.HandleFunc("/loans/{id}", s.deleteLoanHandler).Methods("DELETE")
	router.HandleFunc("/loans/{id}/payments", s.createPaymentHandler).Methods("POST")
	router.HandleFunc("/loans/{id}/payments/{paymentId}", s.deletePaymentHandler).Methods("DELETE")

	router.HandleFunc("/summary", s.summaryHandler).Methods("GET")
	router.HandleFunc("/reminders", s.listRemindersHandler).Methods("GET")
	router.HandleFunc("/reminders/mark-paid", s.markReminderPaidHandler).Methods("POST")
	router.HandleFunc("/payoff", s.payoffHandler).Methods("GET")

	router.HandleFunc("/moi", s.listMoiHandler).Methods("GET")
	router.HandleFunc("/moi", s.createMoiHandler).Methods("POST")
	router.HandleFunc("/moi/{id}", s.deleteMoiHandler).Methods("DELETE")

	return router
}

// reminderDigest logs the interest dues falling inside the look-ahead window.
// Runs on the configured cron schedule.
func (s *Server) reminderDigest() {
	loans, err := s.storage.ListLoans()
	if err != nil {
		slog.Error("reminder digest: failed to list loans", "error", err)
		return
	}

	reminders := s.scanner.Scan(loans)
	for _, rem := range reminders {
		slog.Info("interest due",
			"borrower", rem.BorrowerName,
			"loan_id", rem.LoanID,
			"due_date", rem.DueDate.Format("2006-01-02"),
			"amount", rem.InterestAmount.StringFixed(2),
		)
	}
	slog.Info("reminder digest complete", "due", len(reminders), "loans", len(loans))
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	sqliteStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}

	server := NewServer(sqliteStore, reminder.NewScanner(time.Now, cfg.ReminderWindowDays))

	c := cron.New()
	if _, err := c.AddFunc(cfg.ReminderSchedule, server.reminderDigest); err != nil {
		slog.Error("invalid reminder schedule", "schedule", cfg.ReminderSchedule, "error", err)
		os.Exit(1)
	}
	c.Start()

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.routes(),
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	slog.Info("shutting down")

	cronCtx := c.Stop()
	<-cronCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	if err := sqliteStore.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server exited")
}
