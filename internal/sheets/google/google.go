package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"conti/internal/core"
	ports "conti/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	defaultSheetName   = "Transactions"
	defaultIndexTTL    = 5 * time.Minute
	lastColumn         = "I"
	valueInputOption   = "USER_ENTERED"
	headerRowCount     = 1
	firstDataRowNumber = headerRowCount + 1
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// index maps transaction IDs to 1-based sheet rows. It is rebuilt from
	// column A when stale and updated in place on every write.
	mu                 sync.Mutex
	index              map[int64]int
	nextRow            int
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

var (
	_ ports.TransactionMirror = (*Client)(nil)
	_ ports.MirrorLister      = (*Client)(nil)
)

// NewFromEnv creates a Sheets client using environment variables and a
// service account.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Transactions"), prefixed with the
// current year unless it already starts with one.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	base := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if base == "" {
		base = defaultSheetName
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, spreadsheetID, yearPrefixedName(base, time.Now().Year())), nil
}

// New wraps an existing Sheets service.
func New(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	return &Client{
		svc:                svc,
		spreadsheetID:      spreadsheetID,
		sheetName:          sheetName,
		cacheValidDuration: defaultIndexTTL,
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credentialsJSON, err := serviceAccountCredentials(ctx)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func serviceAccountCredentials(ctx context.Context) ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline JSON credentials")
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Upsert writes the transaction on its existing row, or on the first free
// row when it has not been mirrored yet.
func (c *Client) Upsert(ctx context.Context, t core.TransactionView) (string, error) {
	if t.ID <= 0 {
		return "", errors.New("transaction without id")
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.refreshIndexLocked(ctx); err != nil {
		return "", err
	}
	row, ok := c.index[t.ID]
	if !ok {
		row = c.nextRow
	}

	rng := rowRange(c.sheetName, row)
	vr := &gsheet.ValueRange{Values: [][]any{ports.NewRow(t).Values()}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		c.invalidateIndexLocked()
		return "", fmt.Errorf("update %s: %w", rng, err)
	}

	if !ok {
		c.index[t.ID] = row
		c.nextRow++
	}
	return rng, nil
}

// Remove clears the transaction's row. Rows are cleared rather than deleted
// so the positions of other rows stay valid.
func (c *Client) Remove(ctx context.Context, id int64) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.refreshIndexLocked(ctx); err != nil {
		return err
	}
	row, ok := c.index[id]
	if !ok {
		return nil
	}

	rng := rowRange(c.sheetName, row)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		c.invalidateIndexLocked()
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	delete(c.index, id)
	return nil
}

// List reads every mirrored row.
func (c *Client) List(ctx context.Context) ([]ports.Row, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A%d:%s", c.sheetName, firstDataRowNumber, lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseRows(resp.Values), nil
}

// EnsureHeader writes the header row.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	header := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		header[i] = h
	}
	rng := rowRange(c.sheetName, 1)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{header}}).
		ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header %s: %w", rng, err)
	}
	return nil
}

func (c *Client) refreshIndexLocked(ctx context.Context) error {
	if c.index != nil && time.Now().Before(c.cacheExpiresAt) {
		return nil
	}
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	c.index, c.nextRow = buildIndex(resp.Values)
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	return nil
}

func (c *Client) invalidateIndexLocked() {
	c.index = nil
	c.cacheExpiresAt = time.Time{}
}

// buildIndex maps the IDs found in column A to their 1-based row numbers and
// returns the first row after the last non-empty one. The header row is
// never reused.
func buildIndex(values [][]any) (map[int64]int, int) {
	index := make(map[int64]int, len(values))
	next := firstDataRowNumber
	for i, row := range values {
		rowNumber := i + 1
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(fmt.Sprint(row[0]))
		if cell == "" {
			continue
		}
		if rowNumber >= next {
			next = rowNumber + 1
		}
		if rowNumber <= headerRowCount {
			continue
		}
		if id, err := strconv.ParseInt(cell, 10, 64); err == nil {
			index[id] = rowNumber
		}
	}
	return index, next
}

func parseRows(values [][]any) []ports.Row {
	var out []ports.Row
	for _, raw := range values {
		cols := toStrings(raw)
		id, err := strconv.ParseInt(safeGet(cols, 0), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, ports.Row{
			ID:          id,
			Date:        safeGet(cols, 1),
			Type:        safeGet(cols, 2),
			Account:     safeGet(cols, 3),
			Destination: safeGet(cols, 4),
			Category:    safeGet(cols, 5),
			Description: safeGet(cols, 6),
			Amount:      normalizeAmount(safeGet(cols, 7)),
			Owner:       safeGet(cols, 8),
		})
	}
	return out
}

// normalizeAmount re-renders amounts the sheet may have reformatted, such as
// "12,5" or "12.5", as "12.50". Unparseable cells are returned unchanged.
func normalizeAmount(s string) string {
	m, err := core.ParseMoney(s)
	if err != nil {
		return s
	}
	return m.String()
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", sheet, row, lastColumn, row)
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
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
