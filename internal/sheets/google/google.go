// Package google writes exported rows to a Google Sheets worksheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"finboard/internal/config"
	"finboard/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ sheets.Writer = (*Client)(nil)

// NewFromConfig authenticates with the service account named in cfg, or
// with a saved OAuth user token when no service account is configured.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	if err := cfg.ValidateExport(); err != nil {
		return nil, err
	}

	if cfg.GoogleServiceAccountJSON == "" && cfg.GoogleServiceAccountFile == "" {
		oc, err := OAuthConfig(cfg)
		if err != nil {
			return nil, err
		}
		tok, err := LoadToken(cfg.GoogleOAuthTokenFile)
		if err != nil {
			return nil, err
		}
		slog.DebugContext(ctx, "Using OAuth user credentials", "token_file", cfg.GoogleOAuthTokenFile)
		return New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName,
			goption.WithTokenSource(oc.TokenSource(ctx, tok)),
		)
	}

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.GoogleServiceAccountJSON) != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(cfg.GoogleServiceAccountJSON)
	default:
		b, err := os.ReadFile(cfg.GoogleServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read service account file", "path", cfg.GoogleServiceAccountFile, "size", len(b))
		credentialsJSON = b
	}

	return New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	)
}

// New builds a client from explicit client options.
func New(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Client, error) {
	if spreadsheetID == "" || sheetName == "" {
		return nil, errors.New("spreadsheet id and sheet name are required")
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// WriteRows creates the worksheet when missing, clears it and writes rows from A1.
func (c *Client) WriteRows(ctx context.Context, rows [][]any) (sheets.WriteResult, error) {
	if c.svc == nil {
		return sheets.WriteResult{}, errors.New("sheets service not initialized")
	}
	if err := c.ensureSheet(ctx); err != nil {
		return sheets.WriteResult{}, err
	}

	clearRange := quoteSheet(c.sheetName) + "!A:Z"
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return sheets.WriteResult{}, fmt.Errorf("clear %s: %w", clearRange, err)
	}

	start := quoteSheet(c.sheetName) + "!A1"
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, start, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return sheets.WriteResult{}, fmt.Errorf("update %s: %w", start, err)
	}

	slog.InfoContext(ctx, "Exported rows to Google Sheets",
		"spreadsheet_id", c.spreadsheetID,
		"range", resp.UpdatedRange,
		"rows", resp.UpdatedRows)
	return sheets.WriteResult{Range: resp.UpdatedRange, Rows: int(resp.UpdatedRows)}, nil
}

func (c *Client) ensureSheet(ctx context.Context) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: c.sheetName}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", c.sheetName, err)
	}
	slog.InfoContext(ctx, "Created worksheet", "sheet", c.sheetName)
	return nil
}

// quoteSheet quotes names that A1 notation cannot take bare.
func quoteSheet(name string) string {
	if strings.ContainsAny(name, " '!") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}
