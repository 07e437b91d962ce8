// Package common provides the gocsv helpers shared by the ledger loader, the
// report exporter and the CLI.
package common

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"fjacquet/bank-recon/internal/fileutils"
	"fjacquet/bank-recon/internal/logging"

	"github.com/gocarina/gocsv"
)

// DefaultDelimiter is used when callers pass 0.
const DefaultDelimiter = ','

// ReadCSV reads CSV data into a slice of structs using gocsv. TCSVRow maps
// header names to fields through `csv` tags.
func ReadCSV[TCSVRow any](r io.Reader, delimiter rune) ([]TCSVRow, error) {
	reader := csv.NewReader(r)
	reader.Comma = orDefault(delimiter)
	reader.TrimLeadingSpace = true

	var rows []TCSVRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV: %w", err)
	}
	return rows, nil
}

// ReadCSVFile reads a CSV file into a slice of structs.
func ReadCSVFile[TCSVRow any](filePath string, logger logging.Logger) ([]TCSVRow, error) {
	logger = logging.OrDefault(logger)
	logger.Info("Reading CSV file", logging.F(logging.FieldFile, filePath))

	file, err := os.Open(filePath)
	if err != nil {
		logger.WithError(err).Error("Failed to open CSV file")
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	rows, err := ReadCSV[TCSVRow](file, DefaultDelimiter)
	if err != nil {
		logger.WithError(err).Error("Failed to parse CSV file")
		return nil, err
	}

	logger.Info("Successfully read CSV data", logging.F(logging.FieldCount, len(rows)))
	return rows, nil
}

// WriteCSV writes rows with a header line derived from their `csv` tags.
func WriteCSV[TCSVRow any](w io.Writer, rows []TCSVRow, delimiter rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = orDefault(delimiter)
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(writer)); err != nil {
		return fmt.Errorf("error writing CSV: %w", err)
	}
	return nil
}

// MarshalCSV renders rows to bytes.
func MarshalCSV[TCSVRow any](rows []TCSVRow, delimiter rune) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows, delimiter); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSVFile writes rows to filePath, creating parent directories.
func WriteCSVFile[TCSVRow any](filePath string, rows []TCSVRow, logger logging.Logger) error {
	logger = logging.OrDefault(logger)
	data, err := MarshalCSV(rows, DefaultDelimiter)
	if err != nil {
		return err
	}
	if err := fileutils.WriteFile(filePath, data, 0600); err != nil {
		logger.WithError(err).Error("Failed to write CSV file")
		return err
	}
	logger.Info("Wrote CSV file",
		logging.F(logging.FieldFile, filePath),
		logging.F(logging.FieldCount, len(rows)))
	return nil
}

func orDefault(delimiter rune) rune {
	if delimiter == 0 {
		return DefaultDelimiter
	}
	return delimiter
}
