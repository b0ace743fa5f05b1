// Package google exports the ledger to a Google Sheets worksheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"pennywise/internal/core"
	"pennywise/internal/export"
	ports "pennywise/internal/sheets"
)

// Credentials selects how the client authenticates. A service account wins
// over an OAuth client and token when both are set.
type Credentials struct {
	ServiceAccountFile string
	ServiceAccountJSON string
	OAuthClientFile    string
	OAuthClientJSON    string
	OAuthTokenFile     string
	OAuthTokenJSON     string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.Exporter = (*Client)(nil)

// New builds a Sheets client for spreadsheetID/sheetName from creds.
func New(ctx context.Context, spreadsheetID, sheetName string, creds Credentials) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	opts, err := clientOptions(ctx, creds)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, sheetName), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	if sheetName == "" {
		sheetName = export.SheetName
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

func clientOptions(ctx context.Context, creds Credentials) ([]goption.ClientOption, error) {
	saJSON, err := inlineOrFile(creds.ServiceAccountJSON, creds.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("read service account credentials: %w", err)
	}
	if len(saJSON) > 0 {
		slog.InfoContext(ctx, "Using service account credentials for Google Sheets")
		return []goption.ClientOption{
			goption.WithCredentialsJSON(saJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}, nil
	}

	clientJSON, err := inlineOrFile(creds.OAuthClientJSON, creds.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("read OAuth client: %w", err)
	}
	tokenJSON, err := inlineOrFile(creds.OAuthTokenJSON, creds.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("read OAuth token: %w", err)
	}
	if len(clientJSON) == 0 || len(tokenJSON) == 0 {
		return nil, errors.New("missing Google credentials (service account, or OAuth client and token)")
	}

	cfg, err := goauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("decode OAuth token: %w", err)
	}
	slog.InfoContext(ctx, "Using OAuth token for Google Sheets", "expiry", tok.Expiry)
	return []goption.ClientOption{goption.WithHTTPClient(cfg.Client(ctx, &tok))}, nil
}

func inlineOrFile(inline, path string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

// Export clears the worksheet columns and writes the header followed by one
// row per record, newest first.
func (c *Client) Export(ctx context.Context, txs []core.Transaction) (string, error) {
	if len(txs) == 0 {
		return "", export.ErrNothingToExport
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:D", c.sheetName)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("clear %s: %w", clearRange, err)
	}

	values := Values(txs)
	writeRange := fmt.Sprintf("%s!A1:D%d", c.sheetName, len(values))
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", writeRange, err)
	}

	ref := writeRange
	if resp != nil && resp.UpdatedRange != "" {
		ref = resp.UpdatedRange
	}
	slog.InfoContext(ctx, "Exported ledger to Google Sheets", "range", ref, "rows", len(txs))
	return ref, nil
}

// Values is the header plus one row per record. Amounts are numbers so the
// sheet can sum them.
func Values(txs []core.Transaction) [][]any {
	out := make([][]any, 0, len(txs)+1)
	header := make([]any, len(export.Columns))
	for i, col := range export.Columns {
		header[i] = col
	}
	out = append(out, header)
	for _, tx := range txs {
		out = append(out, []any{
			tx.Description,
			tx.Amount.Decimal().InexactFloat64(),
			tx.Category.DisplayName(),
			tx.Date.String(),
		})
	}
	return out
}
