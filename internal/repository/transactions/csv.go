// Package transactions loads per-user transaction histories.
package transactions

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zhouzirui/money-wrapped/backend/internal/model/finance"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
)

var (
	// ErrUnknownUser is returned when a user id has no transaction source.
	ErrUnknownUser = errors.New("unknown user")
	// ErrMalformed wraps every header and row problem of a CSV source.
	ErrMalformed = errors.New("malformed transactions file")
)

// Repository exposes transaction histories keyed by user id.
type Repository interface {
	List(ctx context.Context, userID string) ([]finance.Transaction, error)
}

// Column headers of a transactions file.
const (
	ColumnDate        = "Timestamp"
	ColumnMerchant    = "Merchant"
	ColumnAmount      = "Amount"
	ColumnDescription = "Description"
	ColumnCategory    = "Category"
	ColumnAccount     = "Account"
)

var requiredColumns = []string{ColumnDate, ColumnMerchant, ColumnAmount, ColumnDescription, ColumnCategory, ColumnAccount}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CSVRepository reads one CSV file per user from dir. The numeric user id
// selects the persona whose character name is the file stem.
type CSVRepository struct {
	dir      string
	personas persona.Store
}

// NewCSVRepository creates a repository rooted at dir.
func NewCSVRepository(dir string, personas persona.Store) *CSVRepository {
	return &CSVRepository{dir: dir, personas: personas}
}

// Path returns the file backing userID.
func (r *CSVRepository) Path(userID string) (string, error) {
	id, err := strconv.Atoi(strings.TrimSpace(userID))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownUser, userID)
	}
	t, ok := persona.TypeByID(id)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownUser, userID)
	}
	p, ok := r.personas.FindByType(t)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownUser, userID)
	}
	return filepath.Join(r.dir, p.FileStem()+".csv"), nil
}

// List reads and parses the transactions of userID.
func (r *CSVRepository) List(ctx context.Context, userID string) ([]finance.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := r.Path(userID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no transactions for %q", ErrUnknownUser, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("open transactions for user %s: %w", userID, err)
	}
	defer f.Close()

	txns, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return txns, nil
}

// Parse reads a transactions CSV. Every column is required and every field
// must be non-empty; row errors carry the 1-based data row number.
func Parse(r io.Reader) ([]finance.Transaction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrMalformed, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformed, col)
		}
	}

	var txns []finance.Transaction
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformed, row, err)
		}

		field := func(col string) string {
			i := index[col]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		values := make(map[string]string, len(requiredColumns))
		for _, col := range requiredColumns {
			v := field(col)
			if v == "" {
				return nil, fmt.Errorf("%w: row %d: empty %s", ErrMalformed, row, col)
			}
			values[col] = v
		}

		date, err := parseDate(values[ColumnDate])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformed, row, err)
		}
		amount, err := decimal.NewFromString(values[ColumnAmount])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: invalid amount %q", ErrMalformed, row, values[ColumnAmount])
		}

		txns = append(txns, finance.Transaction{
			Date:        date,
			Merchant:    values[ColumnMerchant],
			Amount:      amount,
			Description: values[ColumnDescription],
			Category:    strings.ToLower(values[ColumnCategory]),
			AccountName: values[ColumnAccount],
		})
	}
	return txns, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}
