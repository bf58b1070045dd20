package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"fxstats/internal/models"
)

// ============================================================
// AccountRepository Tests
// ============================================================

func accountRow(accountID string, balance float64, updatedAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"account_id", "currency", "balance", "nav", "unrealized_pl", "pl",
		"resettable_pl", "margin_used", "margin_available", "margin_call_percent",
		"position_value", "open_trade_count", "open_order_count",
		"last_transaction_id", "updated_at",
	}).AddRow(
		accountID, "USD", balance, balance+120.5, 120.5, 2350.0,
		2350.0, 450.0, balance-450.0, 0.05,
		22500.0, 3, 2,
		"10042", updatedAt,
	)
}

func TestAccountRepositoryGetByAccountID(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		accountID   string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name:      "success",
			accountID: "001-001-1234567-001",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM account_summaries\s+WHERE account_id = \$1`).
					WithArgs("001-001-1234567-001").
					WillReturnRows(accountRow("001-001-1234567-001", 100000.0, now))
			},
			expectError: nil,
		},
		{
			name:      "not found",
			accountID: "missing",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM account_summaries\s+WHERE account_id = \$1`).
					WithArgs("missing").
					WillReturnRows(sqlmock.NewRows([]string{"account_id"}))
			},
			expectError: ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewAccountRepository(db)
			summary, err := repo.GetByAccountID(tt.accountID)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected %v, got %v", tt.expectError, err)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if summary.AccountID != tt.accountID {
					t.Errorf("AccountID = %q, want %q", summary.AccountID, tt.accountID)
				}
				if summary.Balance != 100000.0 {
					t.Errorf("Balance = %v, want 100000", summary.Balance)
				}
				if summary.OpenTradeCount != 3 {
					t.Errorf("OpenTradeCount = %d, want 3", summary.OpenTradeCount)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestAccountRepositoryGetLatest(t *testing.T) {
	now := time.Now()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM account_summaries\s+ORDER BY updated_at DESC`).
		WillReturnRows(accountRow("001-001-1234567-001", 98500.0, now))

	repo := NewAccountRepository(db)
	summary, err := repo.GetLatest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Balance != 98500.0 {
		t.Errorf("Balance = %v, want 98500", summary.Balance)
	}
}

func TestAccountRepositoryUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO account_summaries`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewAccountRepository(db)
	summary := &models.AccountSummary{
		AccountID: "001-001-1234567-001",
		Currency:  "USD",
		Balance:   100000.0,
		NAV:       100120.5,
	}

	if err := repo.Upsert(summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.UpdatedAt.IsZero() {
		t.Error("Upsert should stamp UpdatedAt")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
