package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"ytsheet/internal/retry"
	"ytsheet/reconcile"
)

// valueInputOption stores values as given: numbers stay numbers and the
// date text is not reinterpreted by the sheet's locale.
const valueInputOption = "RAW"

// GoogleSheet implements Table on one worksheet of a Google spreadsheet.
type GoogleSheet struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	log           logrus.FieldLogger
	RetryConfig   *retry.Config
}

// NewGoogleSheet authenticates with a service account key file and opens the
// named worksheet. If base is non-nil it carries both token and API requests.
func NewGoogleSheet(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, base *http.Client, log logrus.FieldLogger, opts ...option.ClientOption) (*GoogleSheet, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, &TableError{Op: "open", Target: credentialsFile, Err: err}
	}

	conf, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, &TableError{Op: "open", Target: credentialsFile, Err: fmt.Errorf("parse service account key: %w", err)}
	}

	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}

	return NewGoogleSheetWithClient(ctx, conf.Client(ctx), spreadsheetID, sheetName, log, opts...)
}

// NewGoogleSheetWithClient opens the worksheet using an already authorized client.
func NewGoogleSheetWithClient(ctx context.Context, client *http.Client, spreadsheetID, sheetName string, log logrus.FieldLogger, opts ...option.ClientOption) (*GoogleSheet, error) {
	if spreadsheetID == "" || sheetName == "" {
		return nil, fmt.Errorf("spreadsheet id and sheet name required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	opts = append(opts, option.WithHTTPClient(client))
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	cfg := retry.DefaultConfig()
	return &GoogleSheet{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		log:           log.WithField("component", "sheets"),
		RetryConfig:   &cfg,
	}, nil
}

// ColumnValues reads a whole column, e.g. 'Stats'!K:K.
func (g *GoogleSheet) ColumnValues(ctx context.Context, column int) ([]string, error) {
	if err := checkColumn(column); err != nil {
		return nil, &TableError{Op: "read", Target: g.sheetName, Err: err}
	}

	letter := reconcile.ColumnLetter(column)
	rng := g.qualified(letter + ":" + letter)

	var values []string
	err := g.do(ctx, func(ctx context.Context) error {
		resp, err := g.service.Spreadsheets.Values.Get(g.spreadsheetID, rng).
			MajorDimension("COLUMNS").
			Context(ctx).
			Do()
		if err != nil {
			return err
		}

		values = nil
		if len(resp.Values) == 0 {
			return nil
		}
		for _, cell := range resp.Values[0] {
			values = append(values, cellString(cell))
		}
		return nil
	})
	if err != nil {
		return nil, &TableError{Op: "read", Target: rng, Err: err}
	}
	return values, nil
}

// AppendRows appends rows below the sheet's existing data.
func (g *GoogleSheet) AppendRows(ctx context.Context, rows []reconcile.TableRow) error {
	if len(rows) == 0 {
		return nil
	}

	vr := &sheets.ValueRange{Values: make([][]interface{}, 0, len(rows))}
	for _, r := range rows {
		vr.Values = append(vr.Values, r.Cells())
	}

	rng := quoteSheetName(g.sheetName)
	err := g.do(ctx, func(ctx context.Context) error {
		_, err := g.service.Spreadsheets.Values.Append(g.spreadsheetID, rng, vr).
			ValueInputOption(valueInputOption).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return &TableError{Op: "append", Target: rng, Err: err}
	}

	g.log.WithField("rows", len(rows)).Debug("appended rows")
	return nil
}

// BatchUpdateCells writes every update in one values.batchUpdate call.
func (g *GoogleSheet) BatchUpdateCells(ctx context.Context, updates []reconcile.CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: valueInputOption,
		Data:             make([]*sheets.ValueRange, 0, len(updates)),
	}
	for _, u := range updates {
		req.Data = append(req.Data, &sheets.ValueRange{
			Range:  g.qualified(u.A1()),
			Values: [][]interface{}{{u.Value}},
		})
	}

	err := g.do(ctx, func(ctx context.Context) error {
		_, err := g.service.Spreadsheets.Values.BatchUpdate(g.spreadsheetID, req).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return &TableError{Op: "update", Target: quoteSheetName(g.sheetName), Err: err}
	}

	g.log.WithField("cells", len(updates)).Debug("updated cells")
	return nil
}

func (g *GoogleSheet) do(ctx context.Context, fn func(context.Context) error) error {
	cfg := retry.DefaultConfig()
	if g.RetryConfig != nil {
		cfg = *g.RetryConfig
	}
	return retry.Do(ctx, cfg, nil, func(ctx context.Context) error {
		return classifyAPIError(fn(ctx))
	})
}

// qualified prefixes an A1 range with the quoted sheet name.
func (g *GoogleSheet) qualified(a1 string) string {
	return quoteSheetName(g.sheetName) + "!" + a1
}

// quoteSheetName quotes a worksheet title for use in A1 notation.
func quoteSheetName(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func cellString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// classifyAPIError maps googleapi errors to package sentinels. Only rate
// limiting and server errors stay retryable.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	switch {
	case gerr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case gerr.Code == http.StatusNotFound:
		return retry.Permanent(fmt.Errorf("%w: %w", ErrSheetNotFound, err))
	case gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden:
		return retry.Permanent(fmt.Errorf("%w: %w", ErrPermissionDenied, err))
	case gerr.Code >= 400 && gerr.Code < 500:
		return retry.Permanent(fmt.Errorf("%w: %w", ErrInvalidRequest, err))
	}
	return err
}
