// Package google exports transactions to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

var _ ports.TransactionExporter = (*Client)(nil)

// New creates a client writing to sheet in spreadsheetID. Credentials come
// from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheet string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		sheet = "Transactions"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func (c *Client) readRows(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:H", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// Export upserts the transaction's row, writing the header first on an empty sheet.
func (c *Client) Export(ctx context.Context, t core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	values, err := c.readRows(ctx)
	if err != nil {
		return "", err
	}

	data := [][]any{ports.Row(t)}
	row := targetRow(values, t.ID)
	if len(values) == 0 {
		header := make([]any, len(ports.Header))
		for i, h := range ports.Header {
			header[i] = h
		}
		data = [][]any{header, ports.Row(t)}
		row = 2
	}

	rng := rowRange(c.sheet, row)
	start := rng
	if len(data) == 2 {
		start = fmt.Sprintf("%s!A1:H2", c.sheet)
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, start, &gsheet.ValueRange{Values: data}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write %s: %w", rng, err)
	}
	return rng, nil
}

func (c *Client) Remove(ctx context.Context, transactionID int64) error {
	values, err := c.readRows(ctx)
	if err != nil {
		return err
	}
	_, err = c.clear(ctx, rowsMatching(values, colID, transactionID))
	return err
}

func (c *Client) RemoveCategory(ctx context.Context, categoryID int64) (int, error) {
	values, err := c.readRows(ctx)
	if err != nil {
		return 0, err
	}
	return c.clear(ctx, rowsMatching(values, colCategoryID, categoryID))
}

func (c *Client) clear(ctx context.Context, rows []int) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	ranges := make([]string, 0, len(rows))
	for _, r := range rows {
		ranges = append(ranges, rowRange(c.sheet, r))
	}
	_, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, &gsheet.BatchClearValuesRequest{Ranges: ranges}).
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("clear %d rows: %w", len(rows), err)
	}
	return len(rows), nil
}
