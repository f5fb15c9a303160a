package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	CurrencyARS Currency = "ARS"
	CurrencyUSD Currency = "USD"

	PeriodMonth PeriodMode = "month"
	PeriodYear  PeriodMode = "year"
)

type (
	TransactionType string

	// Currency is the denomination of an amount. The empty value means
	// "unknown": legacy rows carry a USD marker inside the description
	// instead (see DetectCurrency).
	Currency string

	PeriodMode string

	Transaction struct {
		ID          string
		Description string
		Amount      float64
		Currency    Currency
		Date        time.Time
		Type        TransactionType
		Category    string
		ClientID    string
		CreatedAt   time.Time
	}

	Client struct {
		ID         string
		Name       string
		MonthlyFee float64
		Currency   Currency
		Active     bool
		// HasPaid is derived per period from the payments table and
		// never persisted on the client row itself.
		HasPaid   bool
		Notes     string
		CreatedAt time.Time
	}

	Goal struct {
		Label        string
		TargetAmount float64
	}

	// PeriodKey scopes client payment flags to a calendar month so they
	// reset naturally when the month or year rolls over.
	PeriodKey struct {
		Month int // 1-12
		Year  int
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrEmptyName          = errors.New("empty client name")
	ErrInvalidGoalTarget  = errors.New("goal target must be positive")
	ErrInvalidVaultAmount = errors.New("vault amount must be positive")
)

// CurrentPeriod returns the payment period for the given reference time.
func CurrentPeriod(now time.Time) PeriodKey {
	return PeriodKey{Month: int(now.Month()), Year: now.Year()}
}

func (p PeriodKey) Equal(other PeriodKey) bool {
	return p.Month == other.Month && p.Year == other.Year
}

func (c Currency) Valid() bool {
	switch c {
	case CurrencyARS, CurrencyUSD, "":
		return true
	}
	return false
}

func (m PeriodMode) Valid() bool {
	return m == PeriodMonth || m == PeriodYear
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.Amount < 0 || math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return ErrInvalidAmount
	}
	if t.Type != Income && t.Type != Expense {
		return ErrInvalidType
	}
	if !t.Currency.Valid() {
		return ErrInvalidCurrency
	}
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (c Client) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if len(c.Name) > 120 {
		return errors.New("client name too long (max 120 characters)")
	}
	if c.MonthlyFee < 0 || math.IsNaN(c.MonthlyFee) || math.IsInf(c.MonthlyFee, 0) {
		return ErrInvalidAmount
	}
	if !c.Currency.Valid() {
		return ErrInvalidCurrency
	}
	return nil
}

func (g Goal) Validate() error {
	if g.TargetAmount <= 0 {
		return ErrInvalidGoalTarget
	}
	return nil
}
