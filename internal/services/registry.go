package services

import (
	"finadvisor/internal/cache"
	"finadvisor/internal/core"
	"finadvisor/internal/ledger"
)

// Registry bundles every service built over one store.
type Registry struct {
	Transactions *TransactionService
	Reports      *ReportService
	Advisor      *AdvisorService
	Goals        *GoalService
	Investments  *InvestmentService
	Splits       *SplitService
	Funds        *EmergencyFundService
	Health       *HealthReportService
	Recurring    *RecurringService
	Processor    *RecurringProcessor
	Dashboard    *DashboardService
}

// NewRegistry wires the services. publisher and summaries may be nil.
func NewRegistry(store ledger.Store, publisher Publisher, summaries cache.Cache[core.FinancialSummary]) *Registry {
	transactions := NewTransactionService(store, publisher, summaries)
	reports := NewReportService(store, store, publisher, summaries)
	return &Registry{
		Transactions: transactions,
		Reports:      reports,
		Advisor:      NewAdvisorService(reports, store),
		Goals:        NewGoalService(store),
		Investments:  NewInvestmentService(store),
		Splits:       NewSplitService(store),
		Funds:        NewEmergencyFundService(store),
		Health:       NewHealthReportService(store),
		Recurring:    NewRecurringService(store),
		Processor:    NewRecurringProcessor(store, transactions),
		Dashboard:    NewDashboardService(store),
	}
}
