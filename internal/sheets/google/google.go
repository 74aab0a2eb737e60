package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"budgetdesk/internal/core"
	ports "budgetdesk/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Ledger columns A:H.
const (
	colDate = iota
	colDescription
	colAmount
	colCategory
	colSupplier
	colContract
	colStatus
	colID
)

var ledgerHeader = []any{"Date", "Description", "Amount", "Category", "Supplier", "Contract", "Status", "ID"}

// valuesAPI is the slice of the Sheets API the client needs.
type valuesAPI interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
	Append(ctx context.Context, spreadsheetID, rng string, row []any) (string, error)
	Update(ctx context.Context, spreadsheetID, rng string, row []any) error
	DeleteRow(ctx context.Context, spreadsheetID, sheet string, index int) error
}

type Client struct {
	api           valuesAPI
	spreadsheetID string
	ledgerBase    string
	budgetBase    string
}

var (
	_ ports.Ledger       = (*Client)(nil)
	_ ports.BudgetReader = (*Client)(nil)
)

type Options struct {
	SpreadsheetID   string
	LedgerSheet     string // base name; the year is prefixed
	BudgetSheet     string // base name; the year is prefixed
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx, opts.CredentialsJSON, opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return newClient(serviceAPI{svc: svc}, opts), nil
}

func newClient(api valuesAPI, opts Options) *Client {
	ledger := strings.TrimSpace(opts.LedgerSheet)
	if ledger == "" {
		ledger = "Ledger"
	}
	budget := strings.TrimSpace(opts.BudgetSheet)
	if budget == "" {
		budget = "Budget"
	}
	return &Client{
		api:           api,
		spreadsheetID: opts.SpreadsheetID,
		ledgerBase:    ledger,
		budgetBase:    budget,
	}
}

// newSheetsService prefers inline JSON, then a credentials file, then
// GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, credentialsJSON, credentialsFile string) (*gsheet.Service, error) {
	credentialsJSON = strings.TrimSpace(credentialsJSON)
	credentialsFile = strings.TrimSpace(credentialsFile)
	if credentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var raw []byte
	switch {
	case credentialsJSON != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		raw = []byte(credentialsJSON)
	case credentialsFile != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", credentialsFile)
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		raw = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(raw),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) ledgerSheet(year int) string {
	return yearPrefixedName(c.ledgerBase, year)
}

// Append writes row to the ledger of its year, replacing a previous row with
// the same ID so that edited expenses do not duplicate.
func (c *Client) Append(ctx context.Context, row ports.LedgerRow) (string, error) {
	if err := row.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.api == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := c.ledgerSheet(row.Date.Year())
	values, err := c.api.Get(ctx, c.spreadsheetID, fmt.Sprintf("%s!A:H", sheet))
	if err != nil {
		return "", fmt.Errorf("read ledger %s: %w", sheet, err)
	}

	cells := toCells(row)
	if idx := findRowByID(values, row.ID); idx >= 0 {
		rng := fmt.Sprintf("%s!A%d:H%d", sheet, idx+1, idx+1)
		if err := c.api.Update(ctx, c.spreadsheetID, rng, cells); err != nil {
			return "", fmt.Errorf("update %s: %w", rng, err)
		}
		return rng, nil
	}

	if len(values) == 0 {
		if _, err := c.api.Append(ctx, c.spreadsheetID, fmt.Sprintf("%s!A1:H1", sheet), ledgerHeader); err != nil {
			return "", fmt.Errorf("write ledger header: %w", err)
		}
	}
	ref, err := c.api.Append(ctx, c.spreadsheetID, fmt.Sprintf("%s!A:H", sheet), cells)
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", sheet, err)
	}
	return ref, nil
}

// Delete removes the ledger row carrying id.
func (c *Client) Delete(ctx context.Context, id int64, year int) error {
	if c.api == nil {
		return errors.New("sheets service not initialized")
	}
	sheet := c.ledgerSheet(year)
	values, err := c.api.Get(ctx, c.spreadsheetID, fmt.Sprintf("%s!A:H", sheet))
	if err != nil {
		return fmt.Errorf("read ledger %s: %w", sheet, err)
	}
	idx := findRowByID(values, id)
	if idx < 0 {
		slog.WarnContext(ctx, "Ledger row not found, nothing to delete", "id", id, "sheet", sheet)
		return nil
	}
	if err := c.api.DeleteRow(ctx, c.spreadsheetID, sheet, idx); err != nil {
		return fmt.Errorf("delete row %d in %s: %w", idx+1, sheet, err)
	}
	return nil
}

// ReadBudgets reads the "<year> Budget" sheet. The header row must contain
// Category, Name and the month columns Jan..Dec.
func (c *Client) ReadBudgets(ctx context.Context, year int) ([]core.Budget, error) {
	if c.api == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:P200", yearPrefixedName(c.budgetBase, year))
	values, err := c.api.Get(ctx, c.spreadsheetID, rng)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseBudgetSheet(values, year)
}

func toCells(row ports.LedgerRow) []any {
	cells := make([]any, len(ledgerHeader))
	cells[colDate] = row.Date.String()
	cells[colDescription] = row.Description
	cells[colAmount] = row.Amount.Decimal().InexactFloat64()
	cells[colCategory] = row.Category
	cells[colSupplier] = row.Supplier
	cells[colContract] = row.Contract
	cells[colStatus] = string(row.Status)
	cells[colID] = strconv.FormatInt(row.ID, 10)
	return cells
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

// serviceAPI adapts *gsheet.Service to valuesAPI.
type serviceAPI struct {
	svc *gsheet.Service
}

func (s serviceAPI) Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s serviceAPI) Append(ctx context.Context, spreadsheetID, rng string, row []any) (string, error) {
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	resp, err := s.svc.Spreadsheets.Values.Append(spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if resp.Updates != nil {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

func (s serviceAPI) Update(ctx context.Context, spreadsheetID, rng string, row []any) error {
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err := s.svc.Spreadsheets.Values.Update(spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

func (s serviceAPI) DeleteRow(ctx context.Context, spreadsheetID, sheet string, index int) error {
	meta, err := s.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	var sheetID int64 = -1
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == sheet {
			sheetID = sh.Properties.SheetId
			break
		}
	}
	if sheetID < 0 {
		return fmt.Errorf("sheet %q not found", sheet)
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(index),
					EndIndex:   int64(index + 1),
				},
			},
		}},
	}
	_, err = s.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	return err
}
