package sheets

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/goldquote/internal/config"
	"github.com/mamadbah2/goldquote/internal/domain/models"
)

// tsvContentType marks rendered sheet ranges as delimited text for the rate parser.
const tsvContentType = "text/tab-separated-values"

// Reader reads rectangular ranges from a spreadsheet.
type Reader interface {
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetReader implements Reader using the official Google Sheets API.
type GoogleSheetReader struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetReader builds a read-only Google Sheets client.
func NewGoogleSheetReader(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetReader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetReader{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// ReadRange fetches a rectangular data range from the spreadsheet.
func (r *GoogleSheetReader) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	r.logger.Debug("sheet range read", zap.String("range", sheetRange), zap.Int("rows", len(resp.Values)))
	return resp.Values, nil
}

// RateSource exposes a sheet range as a rate feed. Rows become lines and cells become
// tab-separated fields, the same layout the broadcast endpoint serves.
type RateSource struct {
	reader     Reader
	sheetRange string
}

// NewRateSource wires a feed over the given range.
func NewRateSource(reader Reader, sheetRange string) *RateSource {
	return &RateSource{reader: reader, sheetRange: sheetRange}
}

// Fetch reads the range and renders it as delimited text.
func (s *RateSource) Fetch(ctx context.Context) (*models.FeedResponse, error) {
	rows, err := s.reader.ReadRange(ctx, s.sheetRange)
	if err != nil {
		return nil, err
	}

	return &models.FeedResponse{
		StatusCode:  http.StatusOK,
		ContentType: tsvContentType,
		Body:        []byte(Render(rows)),
	}, nil
}

// Render joins cells with tabs and rows with newlines.
func Render(rows [][]interface{}) string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = fmt.Sprint(cell)
		}
		lines[i] = strings.Join(cells, "\t")
	}
	return strings.Join(lines, "\n")
}
