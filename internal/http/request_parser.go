// Package http provides HTTP server and handler implementations.
//
// This file implements the request bodies accepted by the API and their
// conversion into core records.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"finadvisor/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads exactly one JSON object from the body. Unknown fields are
// rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return malformed("request body is empty")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return malformed("request body too large")
		}
		return malformed("invalid JSON body: " + err.Error())
	}
	if dec.More() {
		return malformed("request body must hold a single JSON object")
	}
	return nil
}

// TransactionRequest is the body of POST and PUT /api/transactions.
type TransactionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	OccurredAt  *time.Time      `json:"occurred_at"`
	Recurring   bool            `json:"is_recurring"`
	Frequency   string          `json:"recurring_frequency"`
}

// ToTransaction converts the request. A missing occurred_at means now.
func (req TransactionRequest) ToTransaction(now time.Time) (core.Transaction, error) {
	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		return core.Transaction{}, err
	}
	category, err := core.ParseCategory(req.Category)
	if err != nil {
		return core.Transaction{}, err
	}
	var frequency core.Frequency
	if req.Frequency != "" {
		if frequency, err = core.ParseFrequency(req.Frequency); err != nil {
			return core.Transaction{}, err
		}
	}

	occurredAt := now.UTC()
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}

	t := core.Transaction{
		Amount:      req.Amount.Round(2),
		Kind:        kind,
		Category:    category,
		Description: sanitizeInput(req.Description),
		OccurredAt:  occurredAt,
		Recurring:   req.Recurring,
		Frequency:   frequency,
	}
	return t, t.Validate()
}

// GenerateReportRequest is the body of POST /api/reports/generate. The
// dates are only read for custom reports.
type GenerateReportRequest struct {
	ReportType string    `json:"report_type"`
	StartDate  core.Date `json:"start_date"`
	EndDate    core.Date `json:"end_date"`
}

func (req GenerateReportRequest) Parse() (core.ReportType, core.Window, error) {
	rt, err := core.ParseReportType(req.ReportType)
	if err != nil {
		return "", core.Window{}, err
	}
	w := core.Window{Start: req.StartDate.Time}
	if !req.EndDate.IsZero() {
		w.End = endOfDay(req.EndDate)
	}
	return rt, w, nil
}

// RecommendationRequest is the body of POST and PUT /api/advisor/saved.
// On PUT only the fields present are changed.
type RecommendationRequest struct {
	Kind        *string `json:"kind"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Implemented *bool   `json:"is_implemented"`
}

// Apply writes the present fields onto rec.
func (req RecommendationRequest) Apply(rec core.SavedRecommendation) (core.SavedRecommendation, error) {
	if req.Kind != nil {
		rec.Kind = core.RecommendationKind(sanitizeInput(*req.Kind))
	}
	if req.Title != nil {
		rec.Title = sanitizeInput(*req.Title)
	}
	if req.Description != nil {
		rec.Description = sanitizeInput(*req.Description)
	}
	if req.Priority != nil {
		p, err := core.ParsePriority(*req.Priority)
		if err != nil {
			return core.SavedRecommendation{}, err
		}
		rec.Priority = p
	}
	if req.Implemented != nil {
		rec.Implemented = *req.Implemented
	}
	return rec, rec.Validate()
}

// GoalRequest is the body of POST and PUT /api/goals. On PUT only the
// fields present are changed.
type GoalRequest struct {
	Name          *string          `json:"name"`
	TargetAmount  *decimal.Decimal `json:"target_amount"`
	CurrentAmount *decimal.Decimal `json:"current_amount"`
	TargetDate    *core.Date       `json:"target_date"`
	Description   *string          `json:"description"`
	Status        *string          `json:"status"`
}

func (req GoalRequest) Apply(g core.SavingsGoal) (core.SavingsGoal, error) {
	if req.Name != nil {
		g.Name = sanitizeInput(*req.Name)
	}
	if req.TargetAmount != nil {
		g.TargetAmount = req.TargetAmount.Round(2)
	}
	if req.CurrentAmount != nil {
		g.CurrentAmount = req.CurrentAmount.Round(2)
	}
	if req.TargetDate != nil {
		g.TargetDate = *req.TargetDate
	}
	if req.Description != nil {
		g.Description = sanitizeInput(*req.Description)
	}
	if req.Status != nil {
		g.Status = core.GoalStatus(sanitizeInput(*req.Status))
	}
	if g.Status == "" {
		g.Status = core.GoalActive
	}
	return g, g.Validate()
}

// InvestmentRequest is the body of POST and PUT /api/investments.
type InvestmentRequest struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Date   core.Date       `json:"date"`
	Status string          `json:"status"`
}

// ToInvestment converts the request. A missing date means today and a
// missing status means active.
func (req InvestmentRequest) ToInvestment(now time.Time) (core.Investment, error) {
	i := core.Investment{
		Type:   sanitizeInput(req.Type),
		Amount: req.Amount.Round(2),
		Date:   req.Date,
		Status: sanitizeInput(req.Status),
	}
	if i.Date.IsZero() {
		now = now.UTC()
		i.Date = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}
	if i.Status == "" {
		i.Status = "active"
	}
	return i, i.Validate()
}

// Apply replaces type and amount of i. Date and status are kept when the
// request leaves them out.
func (req InvestmentRequest) Apply(i core.Investment) (core.Investment, error) {
	i.Type = sanitizeInput(req.Type)
	i.Amount = req.Amount.Round(2)
	if !req.Date.IsZero() {
		i.Date = req.Date
	}
	if status := sanitizeInput(req.Status); status != "" {
		i.Status = status
	}
	return i, i.Validate()
}

// SplitRequest is the body of POST /api/splits and PUT /api/splits/{id}.
type SplitRequest struct {
	GroupID      string          `json:"group_id"`
	PayerID      string          `json:"payer_id"`
	Amount       decimal.Decimal `json:"amount"`
	Participants []string        `json:"participants"`
	Description  string          `json:"description"`
}

// CleanParticipants sanitizes participant ids and drops blank ones.
func (req SplitRequest) CleanParticipants() []string {
	out := make([]string, 0, len(req.Participants))
	for _, p := range req.Participants {
		if p = sanitizeInput(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// EmergencyFundRequest is the body of POST and PUT /api/emergency-funds.
// Absent fields keep their current value on update.
type EmergencyFundRequest struct {
	TargetAmount  *decimal.Decimal `json:"target_amount"`
	CurrentAmount *decimal.Decimal `json:"current_amount"`
	Status        *string          `json:"status"`
}

func (req EmergencyFundRequest) Apply(f core.EmergencyFundRecord) (core.EmergencyFundRecord, error) {
	if req.TargetAmount != nil {
		f.TargetAmount = req.TargetAmount.Round(2)
	}
	if req.CurrentAmount != nil {
		f.CurrentAmount = req.CurrentAmount.Round(2)
	}
	if req.Status != nil {
		f.Status = core.FundStatus(sanitizeInput(*req.Status))
	}
	return f, f.Validate()
}

// HealthReportRequest is the body of POST and PUT /api/health-reports.
// Absent fields keep their current value on update.
type HealthReportRequest struct {
	ReportDate *core.Date `json:"report_date"`
	Score      *float64   `json:"score"`
	Summary    *string    `json:"summary"`
}

func (req HealthReportRequest) Apply(h core.HealthReport) (core.HealthReport, error) {
	if req.ReportDate != nil {
		h.ReportDate = *req.ReportDate
	}
	if req.Score != nil {
		h.Score = *req.Score
	}
	if req.Summary != nil {
		h.Summary = sanitizeInput(*req.Summary)
	}
	return h, h.Validate()
}

// RecurringRequest is the body of POST /api/recurring.
type RecurringRequest struct {
	StartDate   core.Date       `json:"start_date"`
	EndDate     core.Date       `json:"end_date"`
	Every       string          `json:"every"`
	Kind        string          `json:"kind"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

func (req RecurringRequest) ToRecurring() (core.RecurringTransaction, error) {
	every, err := core.ParseFrequency(req.Every)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	category, err := core.ParseCategory(req.Category)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	rt := core.RecurringTransaction{
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Every:       every,
		Kind:        kind,
		Category:    category,
		Description: sanitizeInput(req.Description),
		Amount:      req.Amount.Round(2),
	}
	return rt, rt.Validate()
}
