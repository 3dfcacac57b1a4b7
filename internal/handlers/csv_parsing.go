package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/epeers/ownership/internal/models"
)

// ParseFundsCSV parses a funds seed CSV into funds.
// Required columns: cik, and name or fund_name.
// CIKs are normalized; rows with an empty CIK are skipped and a CIK repeated
// later in the file is ignored.
func ParseFundsCSV(r io.Reader) ([]models.Fund, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIdx := make(map[string]int)
	for i, col := range header {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = i
	}

	cikCol, ok := colIdx["cik"]
	if !ok {
		return nil, fmt.Errorf("missing required column: cik")
	}
	nameCol, ok := colIdx["name"]
	if !ok {
		if nameCol, ok = colIdx["fund_name"]; !ok {
			return nil, fmt.Errorf("missing required column: name")
		}
	}

	var funds []models.Fund
	seen := make(map[string]bool)
	rowNum := 1 // header is row 1, data starts at row 2
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: failed to read CSV record: %w", rowNum+1, err)
		}
		rowNum++

		raw := strings.TrimSpace(record[cikCol])
		if raw == "" {
			continue
		}
		cik := models.NormalizeCIK(raw)
		for _, c := range cik {
			if c < '0' || c > '9' {
				return nil, fmt.Errorf("row %d: invalid cik %q", rowNum, raw)
			}
		}

		name := strings.TrimSpace(record[nameCol])
		if name == "" {
			return nil, fmt.Errorf("row %d: name is empty", rowNum)
		}
		if seen[cik] {
			continue
		}
		seen[cik] = true

		funds = append(funds, models.Fund{CIK: cik, Name: name})
	}

	return funds, nil
}
