// Package dataset converts census entries to and from tabular files.
package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"decide/internal/census/models"
	id "decide/pkg/domain"
	dErrors "decide/pkg/domain-errors"
)

// SheetName is the worksheet written to and read from workbook files.
const SheetName = "census"

var header = []string{"voting_id", "voter_id"}

// Encode serializes entries in the given format. Rows keep the input order.
func Encode(entries []models.Entry, format models.Format) ([]byte, error) {
	switch format {
	case models.FormatCSV:
		return encodeCSV(entries)
	case models.FormatXLS:
		return encodeXLS(entries)
	case models.FormatJSON:
		if entries == nil {
			entries = []models.Entry{}
		}
		return json.Marshal(entries)
	default:
		return nil, dErrors.New(dErrors.CodeUnsupportedFormat, fmt.Sprintf("unsupported format: %s", format))
	}
}

// Decode parses a file produced by Encode or written by hand. Any malformed
// row rejects the whole file.
func Decode(format models.Format, r io.Reader) ([]models.Entry, error) {
	switch format {
	case models.FormatCSV:
		return decodeCSV(r)
	case models.FormatXLS:
		return decodeXLS(r)
	case models.FormatJSON:
		return decodeJSON(r)
	default:
		return nil, dErrors.New(dErrors.CodeUnsupportedFormat, fmt.Sprintf("unsupported format: %s", format))
	}
}

// ContentType is the MIME type served for an export.
func ContentType(format models.Format) string {
	switch format {
	case models.FormatXLS:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case models.FormatJSON:
		return "application/json"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename is the attachment name served for an export.
func Filename(format models.Format) string {
	if format == models.FormatXLS {
		return "census.xlsx"
	}
	return "census." + string(format)
}

func encodeCSV(entries []models.Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		if err := w.Write([]string{e.VotingID.String(), e.VoterID.String()}); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeCSV(r io.Reader) ([]models.Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "malformed csv file")
	}
	return fromRecords(records)
}

func encodeXLS(entries []models.Entry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("name worksheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &[]any{header[0], header[1]}); err != nil {
		return nil, fmt.Errorf("write workbook header: %w", err)
	}
	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("workbook cell: %w", err)
		}
		// Ids are text cells: numeric cells are doubles and lose int64 precision.
		row := []any{strconv.FormatInt(e.VotingID.Int64(), 10), strconv.FormatInt(e.VoterID.Int64(), 10)}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write workbook row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeXLS(r io.Reader) ([]models.Entry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "malformed workbook")
	}
	defer f.Close()

	sheet := SheetName
	if idx, err := f.GetSheetIndex(SheetName); err != nil || idx < 0 {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "malformed workbook")
	}
	return fromRecords(rows)
}

func fromRecords(records [][]string) ([]models.Entry, error) {
	records = dropBlank(records)
	if len(records) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "missing header row")
	}
	if err := checkHeader(records[0]); err != nil {
		return nil, err
	}

	entries := make([]models.Entry, 0, len(records)-1)
	for i, rec := range records[1:] {
		row := i + 1
		if len(rec) != len(header) {
			return nil, dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("row %d: expected %d columns, got %d", row, len(header), len(rec)))
		}
		votingID, err := parseCell(rec[0])
		if err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("row %d: voting_id: %s", row, err))
		}
		voterID, err := parseCell(rec[1])
		if err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("row %d: voter_id: %s", row, err))
		}
		entries = append(entries, models.Entry{VotingID: id.VotingID(votingID), VoterID: id.VoterID(voterID)})
	}
	return entries, nil
}

func checkHeader(rec []string) error {
	if len(rec) != len(header) {
		return dErrors.New(dErrors.CodeValidation, "header must be voting_id, voter_id")
	}
	for i, cell := range rec {
		cell = strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff"))
		if cell != header[i] {
			return dErrors.New(dErrors.CodeValidation, "header must be voting_id, voter_id")
		}
	}
	return nil
}

func dropBlank(records [][]string) [][]string {
	out := records[:0:0]
	for _, rec := range records {
		blank := true
		for _, cell := range rec {
			if strings.TrimSpace(cell) != "" {
				blank = false
				break
			}
		}
		if !blank {
			out = append(out, rec)
		}
	}
	return out
}

func parseCell(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty value")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return n, nil
}

// jsonInt accepts both 12 and "12".
type jsonInt struct {
	set bool
	n   int64
}

func (j *jsonInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return errors.New("must be an integer")
		}
		num = json.Number(strings.TrimSpace(s))
	}
	n, err := num.Int64()
	if err != nil {
		return errors.New("must be an integer")
	}
	j.set, j.n = true, n
	return nil
}

type jsonRow struct {
	VotingID jsonInt `json:"voting_id"`
	VoterID  jsonInt `json:"voter_id"`
}

func decodeJSON(r io.Reader) ([]models.Entry, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "json file must be an array of entries")
	}

	entries := make([]models.Entry, 0, len(raw))
	for i, msg := range raw {
		row := i + 1
		var jr jsonRow
		if err := json.Unmarshal(msg, &jr); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("row %d: %s", row, err))
		}
		if !jr.VotingID.set || !jr.VoterID.set {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("row %d: voting_id and voter_id are required", row))
		}
		entries = append(entries, models.Entry{VotingID: id.VotingID(jr.VotingID.n), VoterID: id.VoterID(jr.VoterID.n)})
	}
	return entries, nil
}
