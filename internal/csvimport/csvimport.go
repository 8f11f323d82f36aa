// Package csvimport parses bank statement exports into staged expenses.
// Statements are position-based CSV: the third column holds the date, the
// fourth the description, the fifth the signed amount. Negative amounts are
// charges and become positive expenses; everything else is skipped.
package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"contabile/internal/core"
)

const (
	colDate        = 2
	colDescription = 3
	colAmount      = 4
)

// StagedExpense is a parsed statement row awaiting user confirmation.
type StagedExpense struct {
	ID          string
	Date        time.Time
	Description string
	Amount      core.Money
}

// ParseStatement reads a statement and stages its charges. The first row is
// a header and is always skipped; rows that don't parse are dropped, not
// reported, because real statements carry balance lines and other noise.
func ParseStatement(r io.Reader) ([]StagedExpense, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var staged []StagedExpense
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read statement: %w", err)
		}
		line++
		if line == 1 {
			continue
		}

		row, ok := parseRow(record)
		if !ok {
			continue
		}
		staged = append(staged, row)
	}
	return staged, nil
}

func parseRow(record []string) (StagedExpense, bool) {
	if len(record) <= colAmount {
		return StagedExpense{}, false
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(record[colAmount]))
	if err != nil {
		return StagedExpense{}, false
	}
	// Only charges become expenses; deposits and zero rows are skipped.
	if !amount.IsNegative() {
		return StagedExpense{}, false
	}

	date, err := core.ParseDateLenient(strings.TrimSpace(record[colDate]))
	if err != nil {
		return StagedExpense{}, false
	}

	description := strings.TrimSpace(record[colDescription])
	if description == "" {
		return StagedExpense{}, false
	}

	cents := amount.Neg().Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return StagedExpense{
		ID:          uuid.NewString(),
		Date:        date,
		Description: description,
		Amount:      core.Money{Cents: cents},
	}, true
}
