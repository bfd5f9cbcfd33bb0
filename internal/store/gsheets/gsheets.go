// Package gsheets implements tabular.Store on the Google Sheets API. The
// spreadsheet is addressed by ID, or resolved by name through Drive.
package gsheets

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/auth"
	"cloud.google.com/go/auth/credentials"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/jwp-tools/jwpedit/pkg/errors"
	"github.com/jwp-tools/jwpedit/pkg/logging"
	"github.com/jwp-tools/jwpedit/pkg/tabular"
)

// DefaultSpreadsheet is the spreadsheet name used when none is configured.
const DefaultSpreadsheet = "JWP_Master"

// Scopes requested for the service account.
var Scopes = []string{
	sheets.SpreadsheetsScope,
	drive.DriveScope,
}

const (
	spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"
	detectTimeout       = 5 * time.Second

	// Cell updates are interpreted like typed input, appends are stored as-is.
	updateInputOption = "USER_ENTERED"
	appendInputOption = "RAW"
	renderOption      = "FORMATTED_VALUE"
)

// Config selects the spreadsheet and the credentials used to reach it.
type Config struct {
	// SpreadsheetID wins over SpreadsheetName when both are set.
	SpreadsheetID   string
	SpreadsheetName string

	// CredentialsJSON is a service-account key. When empty, CredentialsFile
	// and then Application Default Credentials are tried.
	CredentialsJSON []byte
	CredentialsFile string

	// HTTPClient, when set, is used as-is and credential detection is skipped.
	HTTPClient *http.Client

	// Endpoint overrides for emulators and tests.
	SheetsEndpoint string
	DriveEndpoint  string
}

// Store is a tabular.Store backed by one Google spreadsheet.
type Store struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
}

var _ tabular.Store = (*Store)(nil)

// Open authenticates, resolves the spreadsheet and returns a ready store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	var opts []option.ClientOption
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	} else {
		creds, err := detectCredentials(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithAuthCredentials(creds))
	}

	sheetsOpts := opts
	if cfg.SheetsEndpoint != "" {
		sheetsOpts = append(sheetsOpts[:len(sheetsOpts):len(sheetsOpts)], option.WithEndpoint(cfg.SheetsEndpoint))
	}
	svc, err := sheets.NewService(ctx, sheetsOpts...)
	if err != nil {
		return nil, errors.NewStoreError("open", "", err)
	}

	id := cfg.SpreadsheetID
	if id == "" {
		name := cfg.SpreadsheetName
		if name == "" {
			name = DefaultSpreadsheet
		}
		driveOpts := opts
		if cfg.DriveEndpoint != "" {
			driveOpts = append(driveOpts[:len(driveOpts):len(driveOpts)], option.WithEndpoint(cfg.DriveEndpoint))
		}
		id, err = resolveSpreadsheet(ctx, name, driveOpts)
		if err != nil {
			return nil, err
		}
	}

	logging.FromContext(ctx).Debug().
		Str("spreadsheet_id", id).
		Msg("Opened spreadsheet")

	return &Store{values: svc.Spreadsheets.Values, spreadsheetID: id}, nil
}

// SpreadsheetID returns the resolved spreadsheet ID.
func (s *Store) SpreadsheetID() string { return s.spreadsheetID }

// Values implements tabular.Store.
func (s *Store) Values(ctx context.Context, sheet string) ([][]string, error) {
	resp, err := s.values.Get(s.spreadsheetID, tabular.QuoteSheet(sheet)).
		ValueRenderOption(renderOption).
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapError("read", sheet, err)
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			out[i][j] = cellText(cell)
		}
	}
	return out, nil
}

// UpdateCell implements tabular.Store.
func (s *Store) UpdateCell(ctx context.Context, sheet string, row, col int, value string) error {
	ref := tabular.A1(sheet, row, col)
	_, err := s.values.Update(s.spreadsheetID, ref, &sheets.ValueRange{
		Values: [][]any{{value}},
	}).ValueInputOption(updateInputOption).Context(ctx).Do()
	if err != nil {
		return mapError("update", sheet, err)
	}
	return nil
}

// AppendRow implements tabular.Store.
func (s *Store) AppendRow(ctx context.Context, sheet string, values []string) error {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	_, err := s.values.Append(s.spreadsheetID, tabular.QuoteSheet(sheet), &sheets.ValueRange{
		Values: [][]any{row},
	}).ValueInputOption(appendInputOption).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return mapError("append", sheet, err)
	}
	return nil
}

// detectCredentials runs credential detection with a deadline.
// DetectDefault takes no context, so it runs in its own goroutine.
func detectCredentials(ctx context.Context, cfg Config) (*auth.Credentials, error) {
	type result struct {
		creds *auth.Credentials
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		creds, err := credentials.DetectDefault(&credentials.DetectOptions{
			Scopes:          Scopes,
			CredentialsJSON: cfg.CredentialsJSON,
			CredentialsFile: cfg.CredentialsFile,
		})
		ch <- result{creds: creds, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, errors.NewConfigError("google",
				"no valid credentials found - set GOOGLE_CREDENTIALS or configure Application Default Credentials", res.err)
		}
		return res.creds, nil
	case <-time.After(detectTimeout):
		return nil, errors.NewConfigError("google", "credential detection timed out", nil)
	case <-ctx.Done():
		return nil, errors.NewConfigError("google", "credential detection cancelled", ctx.Err())
	}
}

func resolveSpreadsheet(ctx context.Context, name string, opts []option.ClientOption) (string, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return "", errors.NewStoreError("open", "", err)
	}
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		strings.ReplaceAll(name, "'", `\'`), spreadsheetMimeType)
	list, err := svc.Files.List().
		Q(q).
		Fields(googleapi.Field("files(id,name)")).
		PageSize(10).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", errors.NewStoreError("open", name, err)
	}
	for _, f := range list.Files {
		if f.Name == name {
			return f.Id, nil
		}
	}
	return "", &errors.NotFoundError{Resource: "spreadsheet", ID: name}
}

// mapError translates API failures into store errors. A range that cannot
// be parsed is how the API reports a missing sheet.
func mapError(operation, sheet string, err error) error {
	var gerr *googleapi.Error
	if stderrors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusNotFound,
			gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range"):
			return errors.NewSheetNotFoundError(sheet)
		}
	}
	return errors.NewStoreError(operation, sheet, err)
}

func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
