package sheets

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/ramezanov/storkeep/internal/domain/period"
	"github.com/ramezanov/storkeep/internal/domain/report"
	"github.com/ramezanov/storkeep/pkg/logger"
	"github.com/ramezanov/storkeep/pkg/metrics"
)

// Settings worksheet cells, fixed by the spreadsheet layout.
const (
	dateFromCell      = "B3"
	dateToCell        = "C3"
	lastProcessedCell = "B4"
)

const newWorksheetRows = 1000

// Publisher is the spreadsheet surface the report pipeline needs.
type Publisher interface {
	// APIKeys reads seller tokens from the given settings cells.
	APIKeys(ctx context.Context, cells []string) (map[string]string, error)

	// DateRange reads the pinned report period, if one is set.
	DateRange(ctx context.Context) (from, to time.Time, ok bool, err error)

	// LastProcessed reads the date of the last published report.
	LastProcessed(ctx context.Context) (time.Time, bool, error)

	// SetLastProcessed writes the last published date, preserving the
	// date layout already used in the settings sheet.
	SetLastProcessed(ctx context.Context, t time.Time) error

	// EnsureWorksheet creates the named report worksheet if missing.
	EnsureWorksheet(ctx context.Context, title string) error

	// Replace clears old report rows and writes the new ones, keeping
	// the header row intact.
	Replace(ctx context.Context, title string, rows [][]interface{}) error
}

// Client implements Publisher on top of the Google Sheets API.
type Client struct {
	svc             *sheetsapi.Service
	spreadsheetID   string
	settingsSheet   string
	credentialsFile string
	location        *time.Location
	clientOptions   []option.ClientOption
	logger          logger.Logger
}

// NewClient creates a Sheets client with configuration options.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	c := &Client{
		settingsSheet: "Настройки",
		location:      time.UTC,
		logger:        logger.Get().Named("sheets"),
	}

	for _, opt := range opts {
		opt(c)
	}

	clientOpts := c.clientOptions
	if clientOpts == nil {
		clientOpts = []option.ClientOption{option.WithCredentialsFile(c.credentialsFile)}
	}

	svc, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInit, err)
	}
	c.svc = svc

	return c, nil
}

// columnLetter converts a 1-based column index to its A1 letter.
func columnLetter(n int) string {
	return string(rune('A' + n - 1))
}

// lastColumn is the A1 letter of the final report column.
func lastColumn() string {
	return columnLetter(report.Columns())
}

// cellValue reads a single settings cell as a string.
func (c *Client) cellValue(ctx context.Context, cell string) (string, error) {
	rng := fmt.Sprintf("%s!%s", c.settingsSheet, cell)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		metrics.RecordSheetsError()
		return "", fmt.Errorf("%w: %s: %w", ErrRead, cell, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return "", nil
	}
	if s, ok := resp.Values[0][0].(string); ok {
		return s, nil
	}
	return fmt.Sprintf("%v", resp.Values[0][0]), nil
}

// APIKeys reads seller tokens from the settings worksheet.
func (c *Client) APIKeys(ctx context.Context, cells []string) (map[string]string, error) {
	keys := make(map[string]string, len(cells))
	for _, cell := range cells {
		value, err := c.cellValue(ctx, cell)
		if err != nil {
			return nil, err
		}
		if value == "" {
			c.logger.Warn(ctx, "api key cell is empty", logger.String("cell", cell))
			continue
		}
		keys[cell] = value
		c.logger.Info(ctx, "api key loaded", logger.String("cell", cell))
	}
	if len(keys) == 0 {
		return nil, ErrNoAPIKeys
	}
	return keys, nil
}

// DateRange reads the pinned report period from the settings worksheet.
// ok is false when either bound is absent or unparsable.
func (c *Client) DateRange(ctx context.Context) (time.Time, time.Time, bool, error) {
	fromRaw, err := c.cellValue(ctx, dateFromCell)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	toRaw, err := c.cellValue(ctx, dateToCell)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if fromRaw == "" || toRaw == "" {
		return time.Time{}, time.Time{}, false, nil
	}

	from, err := period.Parse(fromRaw, c.location)
	if err != nil {
		c.logger.Warn(ctx, "unparsable date range start", logger.String("value", fromRaw))
		return time.Time{}, time.Time{}, false, nil
	}
	to, err := period.Parse(toRaw, c.location)
	if err != nil {
		c.logger.Warn(ctx, "unparsable date range end", logger.String("value", toRaw))
		return time.Time{}, time.Time{}, false, nil
	}

	return from, to, true, nil
}

// LastProcessed reads the last published report date.
func (c *Client) LastProcessed(ctx context.Context) (time.Time, bool, error) {
	raw, err := c.cellValue(ctx, lastProcessedCell)
	if err != nil {
		return time.Time{}, false, err
	}
	if raw == "" {
		return time.Time{}, false, nil
	}
	t, err := period.Parse(raw, c.location)
	if err != nil {
		return time.Time{}, false, nil
	}
	return t, true, nil
}

// SetLastProcessed writes the last published date in the same layout
// the settings sheet already uses for its date range.
func (c *Client) SetLastProcessed(ctx context.Context, t time.Time) error {
	layout := period.APILayout
	if fromRaw, err := c.cellValue(ctx, dateFromCell); err == nil && fromRaw != "" {
		layout = period.DetectLayout(fromRaw)
	}

	rng := fmt.Sprintf("%s!%s", c.settingsSheet, lastProcessedCell)
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{{t.Format(layout)}}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		metrics.RecordSheetsError()
		return fmt.Errorf("%w: %s: %w", ErrWrite, lastProcessedCell, err)
	}
	metrics.RecordSheetsWrite()
	return nil
}

// EnsureWorksheet creates the report worksheet with a header row when
// it does not exist yet.
func (c *Client) EnsureWorksheet(ctx context.Context, title string) error {
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		metrics.RecordSheetsError()
		return fmt.Errorf("%w: %w", ErrRead, err)
	}

	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return c.ensureHeaders(ctx, title)
		}
	}

	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{
					Title: title,
					GridProperties: &sheetsapi.GridProperties{
						RowCount:    newWorksheetRows,
						ColumnCount: int64(report.Columns()),
					},
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		metrics.RecordSheetsError()
		return fmt.Errorf("%w: add worksheet %s: %w", ErrWrite, title, err)
	}
	c.logger.Info(ctx, "worksheet created", logger.String("title", title))

	return c.writeHeaders(ctx, title)
}

// ensureHeaders restores the header row when it is missing or broken.
func (c *Client) ensureHeaders(ctx context.Context, title string) error {
	rng := fmt.Sprintf("%s!A1:%s1", title, lastColumn())
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		metrics.RecordSheetsError()
		return fmt.Errorf("%w: headers of %s: %w", ErrRead, title, err)
	}

	headers := report.Headers()
	if len(resp.Values) > 0 && len(resp.Values[0]) >= len(headers) {
		if first, ok := resp.Values[0][0].(string); ok && first == headers[0] {
			return nil
		}
	}

	c.logger.Warn(ctx, "restoring worksheet headers", logger.String("title", title))
	return c.writeHeaders(ctx, title)
}

// writeHeaders overwrites the first row with the report column titles.
func (c *Client) writeHeaders(ctx context.Context, title string) error {
	row := make([]interface{}, 0, report.Columns())
	for _, h := range report.Headers() {
		row = append(row, h)
	}

	rng := fmt.Sprintf("%s!A1:%s1", title, lastColumn())
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{row}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		metrics.RecordSheetsError()
		return fmt.Errorf("%w: headers of %s: %w", ErrWrite, title, err)
	}
	metrics.RecordSheetsWrite()
	return nil
}

// Replace clears old report rows below the header and appends the new
// ones in a single pass.
func (c *Client) Replace(ctx context.Context, title string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}

	if err := c.ensureHeaders(ctx, title); err != nil {
		return err
	}

	clearRange := fmt.Sprintf("%s!A2:%s", title, lastColumn())
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &sheetsapi.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		metrics.RecordSheetsError()
		return fmt.Errorf("%w: clear %s: %w", ErrWrite, title, err)
	}

	appendRange := fmt.Sprintf("%s!A2", title)
	vr := &sheetsapi.ValueRange{Values: rows}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, appendRange, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		metrics.RecordSheetsError()
		return fmt.Errorf("%w: append to %s: %w", ErrWrite, title, err)
	}
	metrics.RecordSheetsWrite()

	c.logger.Info(ctx, "report rows replaced",
		logger.String("title", title),
		logger.Int("rows", len(rows)),
	)
	return nil
}
