package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iwvelando/finance-insights/pkg/datetime"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// fileRecord is the on-disk shape of a record. Amounts and dates stay strings
// until validated so error messages can name the offending entry.
type fileRecord struct {
	ID          string `yaml:"id"`
	Amount      string `yaml:"amount"`
	Date        string `yaml:"date"`
	ServiceID   string `yaml:"serviceId"`
	Category    string `yaml:"category"`
	Kind        string `yaml:"kind"`
	Description string `yaml:"description"`
}

type recordFile struct {
	Records []fileRecord `yaml:"records"`
}

// csvHeader lists the accepted CSV columns; id, service_id, category and
// description are optional.
var csvHeader = []string{"id", "date", "amount", "kind", "service_id", "category", "description"}

// LoadFile reads records from a YAML (.yaml/.yml) or CSV (.csv) file.
func LoadFile(path string) ([]MonetaryRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open records file %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(f)
	case ".yaml", ".yml":
		return LoadYAML(f)
	default:
		return nil, fmt.Errorf("unsupported records file extension %q", filepath.Ext(path))
	}
}

// LoadYAML decodes a `records:` list.
func LoadYAML(r io.Reader) ([]MonetaryRecord, error) {
	var file recordFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return []MonetaryRecord{}, nil
		}
		return nil, fmt.Errorf("failed to parse records: %w", err)
	}

	out := make([]MonetaryRecord, 0, len(file.Records))
	for i, fr := range file.Records {
		rec, err := fr.toRecord()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// LoadCSV decodes a CSV file whose first row names the columns.
func LoadCSV(r io.Reader) ([]MonetaryRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []MonetaryRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "amount", "kind"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("CSV header missing column %q (expected %s)", required, strings.Join(csvHeader, ","))
		}
	}

	field := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var out []MonetaryRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}
		fr := fileRecord{
			ID:          field(row, "id"),
			Amount:      field(row, "amount"),
			Date:        field(row, "date"),
			ServiceID:   field(row, "service_id"),
			Category:    field(row, "category"),
			Kind:        field(row, "kind"),
			Description: field(row, "description"),
		}
		rec, err := fr.toRecord()
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if out == nil {
		out = []MonetaryRecord{}
	}
	return out, nil
}

func (fr fileRecord) toRecord() (MonetaryRecord, error) {
	if strings.TrimSpace(fr.Amount) == "" {
		return MonetaryRecord{}, fmt.Errorf("missing amount")
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(fr.Amount))
	if err != nil {
		return MonetaryRecord{}, fmt.Errorf("invalid amount %q: %w", fr.Amount, err)
	}
	date, err := ParseDate(fr.Date)
	if err != nil {
		return MonetaryRecord{}, err
	}
	kind, err := ParseKind(fr.Kind)
	if err != nil {
		return MonetaryRecord{}, err
	}
	return MonetaryRecord{
		ID:          fr.ID,
		Amount:      amount,
		Date:        date,
		ServiceID:   fr.ServiceID,
		Category:    fr.Category,
		Kind:        kind,
		Description: fr.Description,
	}, nil
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp
// and returns midnight UTC of that day.
func ParseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	if t, err := time.Parse(datetime.DayLayout, trimmed); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected %s", value, datetime.DayLayout)
	}
	return datetime.TruncateDay(t), nil
}
