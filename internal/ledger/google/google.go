package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"finadvisor/internal/core"
	"finadvisor/internal/ledger"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Exporter appends transactions and reports to a Google spreadsheet.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
	reportSheet   string
}

var _ ledger.Exporter = (*Exporter)(nil)

// Settings configure the exporter. Sheet names are base names; the current
// year is prefixed unless the name already starts with one.
type Settings struct {
	SpreadsheetID   string
	LedgerSheet     string
	ReportSheet     string
	CredentialsFile string
	CredentialsJSON string

	// OAuthTokenFile switches to user OAuth; the token comes from
	// cmd/sheets-auth.
	OAuthTokenFile  string
	OAuthClientJSON string
	OAuthClientFile string
}

func NewWithSettings(ctx context.Context, s Settings) (*Exporter, error) {
	spreadsheetID := strings.TrimSpace(s.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	var (
		svc *gsheet.Service
		err error
	)
	if strings.TrimSpace(s.OAuthTokenFile) != "" {
		svc, err = newOAuthSheetsService(ctx, s)
	} else {
		svc, err = newSheetsService(ctx, strings.TrimSpace(s.CredentialsJSON), strings.TrimSpace(s.CredentialsFile))
	}
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, spreadsheetID, s.LedgerSheet, s.ReportSheet, time.Now().Year()), nil
}

// New wraps an existing Sheets service.
func New(svc *gsheet.Service, spreadsheetID, ledgerSheet, reportSheet string, year int) *Exporter {
	if strings.TrimSpace(ledgerSheet) == "" {
		ledgerSheet = "Transactions"
	}
	if strings.TrimSpace(reportSheet) == "" {
		reportSheet = "Reports"
	}
	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		ledgerSheet:   yearPrefixedName(ledgerSheet, year),
		reportSheet:   yearPrefixedName(reportSheet, year),
	}
}

// newSheetsService authenticates with service account credentials.
func newSheetsService(ctx context.Context, credentialsJSON, credentialsFile string) (*gsheet.Service, error) {
	if credentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var raw []byte
	switch {
	case credentialsJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		raw = []byte(credentialsJSON)
	case credentialsFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", credentialsFile)
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		raw = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON, GOOGLE_CREDENTIALS_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(raw),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func newOAuthSheetsService(ctx context.Context, s Settings) (*gsheet.Service, error) {
	ts, err := oauthTokenSource(ctx, s)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Using OAuth user credentials", "token_file", s.OAuthTokenFile)
	service, err := gsheet.NewService(ctx, goption.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (e *Exporter) ExportTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	row := transactionRow(t)
	return e.appendRow(ctx, e.ledgerSheet, row)
}

func (e *Exporter) ExportReport(ctx context.Context, r core.Report) (string, error) {
	row := reportRow(r)
	return e.appendRow(ctx, e.reportSheet, row)
}

// appendRow writes values on the first empty row of the sheet and returns the
// A1 range that was written.
func (e *Exporter) appendRow(ctx context.Context, sheet string, row []any) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	resp, err := e.svc.Spreadsheets.Values.Get(e.spreadsheetID, sheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get sheet dimensions for %s: %w", sheet, err)
	}
	nextRow := len(resp.Values) + 1

	rng := rowRange(sheet, nextRow, len(row))
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err = e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", rng, err)
	}
	return rng, nil
}

// rowRange returns "Sheet!A<n>:<col><n>" for a row of width cells.
func rowRange(sheet string, row, width int) string {
	if width < 1 {
		width = 1
	}
	last := string(rune('A' + width - 1))
	return fmt.Sprintf("%s!A%d:%s%d", sheet, row, last, row)
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
