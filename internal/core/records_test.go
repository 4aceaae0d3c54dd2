package core

import (
	"errors"
	"testing"
	"time"
)

func TestReportPeriod(t *testing.T) {
	now := time.Date(2025, 8, 17, 15, 30, 0, 0, time.UTC)

	w, err := ReportPeriod(MonthlyReport, now, Window{})
	if err != nil || !w.Start.Equal(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)) || !w.End.Equal(now) {
		t.Fatalf("monthly: %+v, %v", w, err)
	}
	w, err = ReportPeriod(YearlyReport, now, Window{})
	if err != nil || !w.Start.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("yearly: %+v, %v", w, err)
	}

	custom := Window{Start: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	if w, err = ReportPeriod(CustomReport, now, custom); err != nil || w != custom {
		t.Fatalf("custom: %+v, %v", w, err)
	}
	if _, err = ReportPeriod(CustomReport, now, Window{Start: custom.Start}); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("custom without end: %v", err)
	}
	if _, err = ReportPeriod(CustomReport, now, Window{Start: custom.End, End: custom.Start}); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("inverted custom window: %v", err)
	}
	if _, err = ParseReportType("weekly"); !errors.Is(err, ErrInvalidReportType) {
		t.Fatalf("expected ErrInvalidReportType, got %v", err)
	}
}

func TestSavingsGoal(t *testing.T) {
	g := SavingsGoal{Name: "car", TargetAmount: dec("10000"), CurrentAmount: dec("2500")}
	if err := g.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !g.Progress().Equal(dec("25")) || !g.Remaining().Equal(dec("7500")) {
		t.Fatalf("progress=%s remaining=%s", g.Progress(), g.Remaining())
	}

	g.CurrentAmount = dec("12000")
	if !g.Progress().Equal(dec("100")) || !g.Remaining().IsZero() {
		t.Fatalf("overfunded goal: progress=%s remaining=%s", g.Progress(), g.Remaining())
	}

	bad := []SavingsGoal{
		{Name: " ", TargetAmount: dec("1")},
		{Name: "x", TargetAmount: dec("0")},
		{Name: "x", TargetAmount: dec("1"), CurrentAmount: dec("-1")},
		{Name: "x", TargetAmount: dec("1"), Status: "paused"},
	}
	for i, b := range bad {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestEmergencyFundRecord(t *testing.T) {
	f := EmergencyFundRecord{TargetAmount: dec("6000"), CurrentAmount: dec("1500"), Status: FundActive}
	if err := f.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !f.Progress().Equal(dec("25")) {
		t.Fatalf("progress=%s", f.Progress())
	}

	bad := []EmergencyFundRecord{
		{TargetAmount: dec("0")},
		{TargetAmount: dec("10"), CurrentAmount: dec("-1")},
		{TargetAmount: dec("10"), Status: "paused"},
	}
	for i, b := range bad {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestHealthReportValidate(t *testing.T) {
	day := NewDate(2025, 6, 30)
	tests := []struct {
		name    string
		report  HealthReport
		wantErr error
	}{
		{"ok", HealthReport{ReportDate: day, Score: 72.5, Summary: "steady"}, nil},
		{"bounds inclusive", HealthReport{ReportDate: day, Score: MaxHealthScore}, nil},
		{"missing date", HealthReport{Score: 50}, ErrInvalidDate},
		{"negative score", HealthReport{ReportDate: day, Score: -1}, ErrInvalidScore},
		{"score above max", HealthReport{ReportDate: day, Score: 100.5}, ErrInvalidScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.report.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPortfolioTotal(t *testing.T) {
	got := PortfolioTotal([]Investment{
		{Type: "stock", Amount: dec("100.005")},
		{Type: "bond", Amount: dec("50.10")},
	})
	if !got.Equal(dec("150.11")) {
		t.Fatalf("total=%s", got)
	}
	if !PortfolioTotal(nil).IsZero() {
		t.Fatalf("empty portfolio must be zero")
	}
}

func TestRecommendationValidate(t *testing.T) {
	r := Recommendation{Kind: BudgetAdvice, Title: "Cut dining", Description: "eat in", Priority: Medium}
	if err := r.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	r.Priority = "urgent"
	if err := r.Validate(); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
	r.Priority = Low
	r.Kind = "tax"
	if err := r.Validate(); err == nil {
		t.Fatalf("expected invalid kind error")
	}
}
