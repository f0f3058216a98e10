// Package google stores ledger blobs in a Google Sheets tab, one row per key.
// Column A holds the key; the value is split across the following columns
// because a single cell is capped at 50k characters.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cashbook/internal/kv"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	// chunkSize stays below the per-cell limit.
	chunkSize = 45000
	// maxColumns is A..Z: one key column plus the value chunks.
	maxColumns = 26
)

// Config selects the spreadsheet and the credentials.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

var (
	_ kv.Store       = (*Client)(nil)
	_ kv.Batcher     = (*Client)(nil)
	_ kv.Snapshotter = (*Client)(nil)
)

func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Ledger"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when neither inline JSON nor a file is set.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credsJSON := strings.TrimSpace(cfg.CredentialsJSON)
	credsFile := strings.TrimSpace(cfg.CredentialsFile)
	if credsJSON == "" && credsFile == "" {
		credsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentials []byte
	switch {
	case credsJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentials = []byte(credsJSON)
	case credsFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", credsFile)
		b, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentials = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Get implements kv.Store
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	rows, _, err := c.readRows(ctx)
	if err != nil {
		return "", false, err
	}
	r, ok := rows[key]
	if !ok {
		return "", false, nil
	}
	return r.value, true, nil
}

// All implements kv.Snapshotter with a single read of the tab.
func (c *Client) All(ctx context.Context) (map[string]string, error) {
	rows, _, err := c.readRows(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for k, r := range rows {
		out[k] = r.value
	}
	return out, nil
}

// Set implements kv.Store
func (c *Client) Set(ctx context.Context, key, value string) error {
	return c.SetMany(ctx, map[string]*string{key: &value})
}

// Delete implements kv.Store
func (c *Client) Delete(ctx context.Context, key string) error {
	return c.SetMany(ctx, map[string]*string{key: nil})
}

// SetMany implements kv.Batcher with a single values.batchUpdate call.
// Existing rows are overwritten in place, deleted keys are blanked and new
// keys go below the last used row.
func (c *Client) SetMany(ctx context.Context, values map[string]*string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rows, used, err := c.readRows(ctx)
	if err != nil {
		return err
	}

	next := used + 1
	var data []*gsheet.ValueRange
	for key, value := range values {
		existing, found := rows[key]
		if value == nil && !found {
			continue
		}
		var cells []any
		if value != nil {
			chunks := splitChunks(*value, chunkSize)
			if len(chunks)+1 > maxColumns {
				return &kv.WriteError{Key: key, Err: kv.ErrQuotaExceeded}
			}
			cells = encodeRow(key, chunks)
		}
		row := existing.row
		if !found {
			row = next
			next++
		}
		data = append(data, &gsheet.ValueRange{
			Range:  rowRange(c.sheet, row),
			Values: [][]any{padRow(cells, maxColumns)},
		})
	}
	if len(data) == 0 {
		return nil
	}

	req := &gsheet.BatchUpdateValuesRequest{ValueInputOption: "RAW", Data: data}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("batch update %s: %w", c.sheet, err)
	}
	slog.DebugContext(ctx, "Blobs written to sheet", "sheet", c.sheet, "rows", len(data))
	return nil
}

func (c *Client) readRows(ctx context.Context) (map[string]sheetRow, int, error) {
	if c.svc == nil {
		return nil, 0, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:Z", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", rng, err)
	}
	rows := parseRows(resp.Values)
	return rows, len(resp.Values), nil
}

type sheetRow struct {
	// row is 1-based, as in A1 notation.
	row   int
	value string
}

// parseRows indexes a values matrix by key. Blank rows are skipped and the
// first occurrence of a duplicated key wins.
func parseRows(values [][]any) map[string]sheetRow {
	out := make(map[string]sheetRow, len(values))
	for i, raw := range values {
		if len(raw) == 0 {
			continue
		}
		key := strings.TrimSpace(fmt.Sprint(raw[0]))
		if key == "" {
			continue
		}
		if _, dup := out[key]; dup {
			continue
		}
		var b strings.Builder
		for _, cell := range raw[1:] {
			b.WriteString(fmt.Sprint(cell))
		}
		out[key] = sheetRow{row: i + 1, value: b.String()}
	}
	return out
}

func encodeRow(key string, chunks []string) []any {
	cells := make([]any, 0, len(chunks)+1)
	cells = append(cells, key)
	for _, ch := range chunks {
		cells = append(cells, ch)
	}
	return cells
}

// padRow fills the row with empty strings so stale chunks get overwritten.
func padRow(cells []any, width int) []any {
	for len(cells) < width {
		cells = append(cells, "")
	}
	return cells
}

// splitChunks cuts s into pieces of at most size bytes without splitting
// a UTF-8 sequence.
func splitChunks(s string, size int) []string {
	if s == "" {
		return []string{""}
	}
	var out []string
	for len(s) > size {
		cut := size
		for cut > 0 && !isRuneStart(s[cut]) {
			cut--
		}
		out = append(out, s[:cut])
		s = s[cut:]
	}
	return append(out, s)
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:Z%d", sheet, row, row)
}
