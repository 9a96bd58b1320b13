package rowstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/2beens/gymtracker/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var _ Store = (*SheetsStore)(nil)

// SheetsStore keeps every table as a tab of one Google spreadsheet.
type SheetsStore struct {
	service       *sheets.Service
	spreadsheetID string
}

func NewSheetsStore(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*SheetsStore, error) {
	// https://github.com/googleapis/google-api-go-client/blob/main/sheets/v4/sheets-gen.go
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: new sheets service: %w", ErrConnection, err)
	}
	return &SheetsStore{
		service:       service,
		spreadsheetID: spreadsheetID,
	}, nil
}

// tabRange addresses a whole tab in A1 notation.
func tabRange(table string) string {
	return "'" + strings.ReplaceAll(table, "'", "''") + "'"
}

func (s *SheetsStore) ReadAll(ctx context.Context, table string) (_ []Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "rowstore.sheets.readall")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("table", table))

	resp, err := s.service.Spreadsheets.Values.
		Get(s.spreadsheetID, tabRange(table)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifySheetsErr(table, err)
	}

	if len(resp.Values) == 0 {
		return []Record{}, nil
	}

	header := cellsToStrings(resp.Values[0])
	rows := make([][]string, 0, len(resp.Values)-1)
	for _, v := range resp.Values[1:] {
		rows = append(rows, cellsToStrings(v))
	}
	span.SetAttributes(attribute.Int("rows", len(rows)))

	return toRecords(header, rows), nil
}

func (s *SheetsStore) AppendRow(ctx context.Context, table string, row Row) error {
	return s.AppendRows(ctx, table, []Row{row})
}

func (s *SheetsStore) AppendRows(ctx context.Context, table string, rows []Row) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "rowstore.sheets.appendrows")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("table", table), attribute.Int("rows", len(rows)))

	if len(rows) == 0 {
		return nil
	}

	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		cells := make([]interface{}, 0, len(row))
		for _, c := range row {
			cells = append(cells, c)
		}
		values = append(values, cells)
	}

	_, err = s.service.Spreadsheets.Values.
		Append(s.spreadsheetID, tabRange(table), &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return classifySheetsErr(table, err)
	}
	return nil
}

func (s *SheetsStore) DistinctValues(ctx context.Context, table, column string) ([]string, error) {
	return distinctValues(ctx, s, table, column)
}

func (s *SheetsStore) EnsureTable(ctx context.Context, table string, header []string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "rowstore.sheets.ensuretable")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("table", table))

	spreadsheet, err := s.service.Spreadsheets.
		Get(s.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return classifySheetsErr(table, err)
	}

	for _, sh := range spreadsheet.Sheets {
		if sh.Properties != nil && sh.Properties.Title == table {
			return s.ensureHeader(ctx, table, header)
		}
	}

	log.Warnf("sheets: tab [%s] not found, creating it", table)
	_, err = s.service.Spreadsheets.
		BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{
					AddSheet: &sheets.AddSheetRequest{
						Properties: &sheets.SheetProperties{Title: table},
					},
				},
			},
		}).
		Context(ctx).
		Do()
	if err != nil {
		return classifySheetsErr(table, err)
	}

	return s.AppendRow(ctx, table, header)
}

// ensureHeader writes the header into an existing tab that has no first row,
// like the default tab of a new spreadsheet.
func (s *SheetsStore) ensureHeader(ctx context.Context, table string, header []string) error {
	resp, err := s.service.Spreadsheets.Values.
		Get(s.spreadsheetID, tabRange(table)+"!1:1").
		Context(ctx).
		Do()
	if err != nil {
		return classifySheetsErr(table, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	log.Warnf("sheets: tab [%s] has no header row, writing it", table)
	return s.AppendRow(ctx, table, header)
}

func cellsToStrings(cells []interface{}) []string {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		if c == nil {
			out = append(out, "")
			continue
		}
		out = append(out, fmt.Sprint(c))
	}
	return out
}

// classifySheetsErr maps API failures onto the row store error taxonomy.
func classifySheetsErr(table string, err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	switch {
	case apiErr.Code == http.StatusBadRequest && strings.Contains(apiErr.Message, "Unable to parse range"):
		return fmt.Errorf("%w: %s", ErrMissingTable, table)
	case apiErr.Code == http.StatusUnauthorized,
		apiErr.Code == http.StatusForbidden,
		apiErr.Code == http.StatusNotFound,
		apiErr.Code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w", ErrConnection, err)
	default:
		return fmt.Errorf("sheets table %s: %w", table, err)
	}
}
