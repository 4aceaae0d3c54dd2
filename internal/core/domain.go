package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// Categories are declared in the order used for breakdowns and tie-breaks.
const (
	Salary           Category = "salary"
	InvestmentIncome Category = "investment"
	Business         Category = "business"
	Food             Category = "food"
	Transport        Category = "transport"
	Entertainment    Category = "entertainment"
	Shopping         Category = "shopping"
	Health           Category = "health"
	Education        Category = "education"
	Utilities        Category = "utilities"
	Rent             Category = "rent"
	Other            Category = "other"
)

const (
	High   Priority = "high"
	Medium Priority = "medium"
	Low    Priority = "low"
)

const (
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
	Weekly  Frequency = "weekly"
	Daily   Frequency = "daily"
)

const dateLayout = "2006-01-02"

// MaxDescriptionLength bounds free-text descriptions on every record.
const MaxDescriptionLength = 200

type (
	Kind      string
	Category  string
	Priority  string
	Frequency string

	// Date is a calendar day in UTC, encoded as YYYY-MM-DD.
	Date struct {
		time.Time
	}

	// Transaction is a single income or expense entry.
	Transaction struct {
		ID          int64           `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Kind        Kind            `json:"kind"`
		Category    Category        `json:"category"`
		Description string          `json:"description"`
		OccurredAt  time.Time       `json:"occurred_at"`
		Recurring   bool            `json:"is_recurring"`
		Frequency   Frequency       `json:"recurring_frequency,omitempty"`
		CreatedAt   time.Time       `json:"created_at"`
		UpdatedAt   time.Time       `json:"updated_at"`
	}

	// RecurringTransaction is a template materialised into transactions
	// every time it becomes due.
	RecurringTransaction struct {
		ID            int64           `json:"id"`
		StartDate     Date            `json:"start_date"`
		EndDate       Date            `json:"end_date"`
		Every         Frequency       `json:"every"`
		Kind          Kind            `json:"kind"`
		Category      Category        `json:"category"`
		Description   string          `json:"description"`
		Amount        decimal.Decimal `json:"amount"`
		LastExecution time.Time       `json:"last_execution,omitempty"`
	}

	// TransactionFilter selects a page of transactions. Zero values mean
	// "no filter" for Kind, Category and Window.
	TransactionFilter struct {
		Kind     Kind
		Category Category
		Window   Window
		Skip     int
		Limit    int
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidKind        = errors.New("invalid transaction kind")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidWindow      = errors.New("window start is after window end")
	ErrInvalidMonths      = errors.New("invalid number of months")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidTargetDate  = errors.New("target date must be in a future month")
	ErrEmptyParticipants  = errors.New("participants list cannot be empty")
	ErrInvalidReportType  = errors.New("invalid report type")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidRecKind     = errors.New("invalid recommendation kind")
	ErrInvalidScore       = errors.New("invalid health score")
)

// Categories lists every category in declaration order.
var Categories = []Category{
	Salary, InvestmentIncome, Business, Food, Transport, Entertainment,
	Shopping, Health, Education, Utilities, Rent, Other,
}

var categoryRank = func() map[Category]int {
	m := make(map[Category]int, len(Categories))
	for i, c := range Categories {
		m[c] = i
	}
	return m
}()

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (c Category) Valid() bool {
	_, ok := categoryRank[c]
	return ok
}

// Rank returns the declaration index of the category, or len(Categories)
// for unknown values so they sort last.
func (c Category) Rank() int {
	if r, ok := categoryRank[c]; ok {
		return r
	}
	return len(Categories)
}

func (p Priority) Valid() bool {
	switch p {
	case High, Medium, Low:
		return true
	}
	return false
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return p, nil
}

func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	return f, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	// Accept full timestamps too and keep only the calendar day.
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		*d = NewDate(t.Year(), int(t.Month()), t.Day())
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func validateDescription(s string, required bool) error {
	if required && strings.TrimSpace(s) == "" {
		return ErrEmptyDescription
	}
	if len(s) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if !t.Category.Valid() {
		return ErrInvalidCategory
	}
	if t.OccurredAt.IsZero() {
		return ErrInvalidDate
	}
	if err := validateDescription(t.Description, false); err != nil {
		return err
	}
	if t.Recurring && !t.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if !t.Recurring && t.Frequency != "" {
		return ErrInvalidFrequency
	}
	return nil
}

func (rt RecurringTransaction) Validate() error {
	if rt.StartDate.IsZero() {
		return fmt.Errorf("start date: %w", ErrInvalidDate)
	}
	if !rt.EndDate.IsZero() && rt.EndDate.Before(rt.StartDate.Time) {
		return fmt.Errorf("end date must not be before start date: %w", ErrInvalidDate)
	}
	if !rt.Every.Valid() {
		return ErrInvalidFrequency
	}
	if !rt.Kind.Valid() {
		return ErrInvalidKind
	}
	if !rt.Category.Valid() {
		return ErrInvalidCategory
	}
	if err := validateDescription(rt.Description, true); err != nil {
		return err
	}
	if !rt.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// ActiveOn reports whether the template covers the given day.
func (rt RecurringTransaction) ActiveOn(now time.Time) bool {
	day := NewDate(now.Year(), int(now.Month()), now.Day())
	if day.Before(rt.StartDate.Time) {
		return false
	}
	return rt.EndDate.IsZero() || !day.After(rt.EndDate.Time)
}

// Instantiate builds the concrete transaction produced by the template at now.
func (rt RecurringTransaction) Instantiate(now time.Time) Transaction {
	return Transaction{
		Amount:      rt.Amount,
		Kind:        rt.Kind,
		Category:    rt.Category,
		Description: rt.Description,
		OccurredAt:  now.UTC(),
		Recurring:   true,
		Frequency:   rt.Every,
	}
}

// Normalize applies paging defaults and bounds.
func (f TransactionFilter) Normalize() TransactionFilter {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	return f
}

// Match reports whether t passes the kind, category and window filters.
func (f TransactionFilter) Match(t Transaction) bool {
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	return f.Window.Contains(t.OccurredAt)
}

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)
