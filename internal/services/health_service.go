package services

import (
	"context"
	"fmt"
	"log/slog"

	"finadvisor/internal/core"
	"finadvisor/internal/ledger"
)

// EmergencyFundService manages the emergency fund balances being built up.
type EmergencyFundService struct {
	store ledger.EmergencyFundStore
}

func NewEmergencyFundService(store ledger.EmergencyFundStore) *EmergencyFundService {
	return &EmergencyFundService{store: store}
}

func (s *EmergencyFundService) Create(ctx context.Context, f core.EmergencyFundRecord) (core.EmergencyFundRecord, error) {
	created, err := s.store.CreateEmergencyFund(ctx, f)
	if err != nil {
		return core.EmergencyFundRecord{}, fmt.Errorf("create emergency fund: %w", err)
	}
	slog.InfoContext(ctx, "Emergency fund created",
		"id", created.ID,
		"target", created.TargetAmount.String())
	return created, nil
}

func (s *EmergencyFundService) Get(ctx context.Context, id int64) (core.EmergencyFundRecord, error) {
	f, err := s.store.GetEmergencyFund(ctx, id)
	if err != nil {
		return core.EmergencyFundRecord{}, fmt.Errorf("get emergency fund %d: %w", id, err)
	}
	return f, nil
}

// Update stores the new balance. A fund whose balance reaches its target
// is marked completed.
func (s *EmergencyFundService) Update(ctx context.Context, f core.EmergencyFundRecord) (core.EmergencyFundRecord, error) {
	if f.Status == "" && f.TargetAmount.IsPositive() && f.CurrentAmount.GreaterThanOrEqual(f.TargetAmount) {
		f.Status = core.FundCompleted
	}
	updated, err := s.store.UpdateEmergencyFund(ctx, f)
	if err != nil {
		return core.EmergencyFundRecord{}, fmt.Errorf("update emergency fund %d: %w", f.ID, err)
	}
	return updated, nil
}

func (s *EmergencyFundService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteEmergencyFund(ctx, id); err != nil {
		return fmt.Errorf("delete emergency fund %d: %w", id, err)
	}
	return nil
}

func (s *EmergencyFundService) List(ctx context.Context) ([]core.EmergencyFundRecord, error) {
	list, err := s.store.ListEmergencyFunds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list emergency funds: %w", err)
	}
	return list, nil
}

// HealthReportService keeps the history of financial health scores.
type HealthReportService struct {
	store ledger.HealthReportStore
}

func NewHealthReportService(store ledger.HealthReportStore) *HealthReportService {
	return &HealthReportService{store: store}
}

func (s *HealthReportService) Create(ctx context.Context, h core.HealthReport) (core.HealthReport, error) {
	created, err := s.store.CreateHealthReport(ctx, h)
	if err != nil {
		return core.HealthReport{}, fmt.Errorf("create health report: %w", err)
	}
	slog.InfoContext(ctx, "Health report recorded",
		"id", created.ID,
		"report_date", created.ReportDate.String(),
		"score", created.Score)
	return created, nil
}

func (s *HealthReportService) Get(ctx context.Context, id int64) (core.HealthReport, error) {
	h, err := s.store.GetHealthReport(ctx, id)
	if err != nil {
		return core.HealthReport{}, fmt.Errorf("get health report %d: %w", id, err)
	}
	return h, nil
}

func (s *HealthReportService) Update(ctx context.Context, h core.HealthReport) (core.HealthReport, error) {
	updated, err := s.store.UpdateHealthReport(ctx, h)
	if err != nil {
		return core.HealthReport{}, fmt.Errorf("update health report %d: %w", h.ID, err)
	}
	return updated, nil
}

func (s *HealthReportService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteHealthReport(ctx, id); err != nil {
		return fmt.Errorf("delete health report %d: %w", id, err)
	}
	return nil
}

// List returns reports newest first.
func (s *HealthReportService) List(ctx context.Context) ([]core.HealthReport, error) {
	list, err := s.store.ListHealthReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("list health reports: %w", err)
	}
	return list, nil
}
