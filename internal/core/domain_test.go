package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseEnums(t *testing.T) {
	if k, err := ParseKind(" Income "); err != nil || k != Income {
		t.Fatalf("ParseKind income: got %q, %v", k, err)
	}
	if _, err := ParseKind("transfer"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
	for _, c := range Categories {
		if got, err := ParseCategory(string(c)); err != nil || got != c {
			t.Fatalf("ParseCategory(%q): got %q, %v", c, got, err)
		}
	}
	if _, err := ParseCategory("crypto"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if _, err := ParsePriority("urgent"); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
	if f, err := ParseFrequency("WEEKLY"); err != nil || f != Weekly {
		t.Fatalf("ParseFrequency: got %q, %v", f, err)
	}
}

func TestInvestmentCategoryIsDistinctFromPositions(t *testing.T) {
	c, err := ParseCategory("Investment")
	if err != nil || c != InvestmentIncome {
		t.Fatalf("ParseCategory(investment): got %q, %v", c, err)
	}
	if InvestmentIncome.Rank() != 1 {
		t.Fatalf("investment rank=%d want 1", InvestmentIncome.Rank())
	}
	pos := Investment{Type: "etf", Amount: decimal.NewFromInt(10), Date: NewDate(2025, 1, 1)}
	if err := pos.Validate(); err != nil {
		t.Fatalf("Investment.Validate: %v", err)
	}
}

func TestCategoryRankFollowsDeclarationOrder(t *testing.T) {
	for i, c := range Categories {
		if c.Rank() != i {
			t.Fatalf("%s rank=%d want %d", c, c.Rank(), i)
		}
	}
	if Category("nope").Rank() != len(Categories) {
		t.Fatalf("unknown categories must rank last")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Amount:      decimal.RequireFromString("12.50"),
		Kind:        Expense,
		Category:    Food,
		Description: "groceries",
		OccurredAt:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-1) }, ErrInvalidAmount},
		{"bad kind", func(tx *Transaction) { tx.Kind = "gift" }, ErrInvalidKind},
		{"bad category", func(tx *Transaction) { tx.Category = "pets" }, ErrInvalidCategory},
		{"zero date", func(tx *Transaction) { tx.OccurredAt = time.Time{} }, ErrInvalidDate},
		{"long description", func(tx *Transaction) { tx.Description = strings.Repeat("x", 201) }, ErrDescriptionTooLong},
		{"recurring without frequency", func(tx *Transaction) { tx.Recurring = true }, ErrInvalidFrequency},
		{"frequency without recurring", func(tx *Transaction) { tx.Frequency = Monthly }, ErrInvalidFrequency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := good
			tt.mutate(&tx)
			if err := tx.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}

	zeroAmount := good
	zeroAmount.Amount = decimal.Zero
	if err := zeroAmount.Validate(); err != nil {
		t.Fatalf("zero amount is allowed, got %v", err)
	}
}

func TestRecurringTransactionValidateAndActiveOn(t *testing.T) {
	rt := RecurringTransaction{
		StartDate:   NewDate(2025, 1, 15),
		EndDate:     NewDate(2025, 6, 15),
		Every:       Monthly,
		Kind:        Expense,
		Category:    Rent,
		Description: "rent",
		Amount:      decimal.NewFromInt(900),
	}
	if err := rt.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := rt
	bad.EndDate = NewDate(2024, 12, 1)
	if err := bad.Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	bad = rt
	bad.Description = " "
	if err := bad.Validate(); !errors.Is(err, ErrEmptyDescription) {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}

	cases := []struct {
		now  time.Time
		want bool
	}{
		{time.Date(2025, 1, 14, 23, 0, 0, 0, time.UTC), false},
		{time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC), true},
		{time.Date(2025, 6, 15, 20, 0, 0, 0, time.UTC), true},
		{time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		if got := rt.ActiveOn(tc.now); got != tc.want {
			t.Fatalf("ActiveOn(%s)=%v want %v", tc.now, got, tc.want)
		}
	}

	tx := rt.Instantiate(time.Date(2025, 2, 15, 6, 0, 0, 0, time.UTC))
	if !tx.Recurring || tx.Frequency != Monthly || !tx.Amount.Equal(rt.Amount) {
		t.Fatalf("unexpected instantiated transaction %+v", tx)
	}
	if err := tx.Validate(); err != nil {
		t.Fatalf("instantiated transaction invalid: %v", err)
	}
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2025-07-04"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.D.String() != "2025-07-04" {
		t.Fatalf("got %s", payload.D)
	}
	if err := json.Unmarshal([]byte(`{"d":"2025-07-04T15:04:05Z"}`), &payload); err != nil {
		t.Fatalf("unmarshal timestamp: %v", err)
	}
	if payload.D.String() != "2025-07-04" {
		t.Fatalf("timestamp not truncated to day: %s", payload.D)
	}
	if err := json.Unmarshal([]byte(`{"d":"07/04/2025"}`), &payload); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	out, _ := json.Marshal(struct {
		D Date `json:"d"`
	}{})
	if string(out) != `{"d":null}` {
		t.Fatalf("zero date should encode as null, got %s", out)
	}
}

func TestTransactionFilter(t *testing.T) {
	f := TransactionFilter{Skip: -3, Limit: 5000}.Normalize()
	if f.Skip != 0 || f.Limit != MaxPageLimit {
		t.Fatalf("unexpected normalize result %+v", f)
	}
	if f := (TransactionFilter{}).Normalize(); f.Limit != DefaultPageLimit {
		t.Fatalf("default limit=%d", f.Limit)
	}

	tx := Transaction{Kind: Expense, Category: Food, OccurredAt: time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)}
	if !(TransactionFilter{}).Match(tx) {
		t.Fatalf("empty filter must match")
	}
	if (TransactionFilter{Kind: Income}).Match(tx) {
		t.Fatalf("kind filter must reject")
	}
	if (TransactionFilter{Category: Rent}).Match(tx) {
		t.Fatalf("category filter must reject")
	}
	w := Window{End: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)}
	if (TransactionFilter{Window: w}).Match(tx) {
		t.Fatalf("window filter must reject")
	}
}
