// Package common contains shared functionality for command handlers
package common

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"fjacquet/bank-recon/internal/dateutils"
	"fjacquet/bank-recon/internal/fileutils"
	"fjacquet/bank-recon/internal/logging"

	"github.com/shopspring/decimal"
)

// Stdout is where results go when no output file is given.
var Stdout io.Writer = os.Stdout

// WriteOutput writes data to outputFile, or to Stdout when outputFile is "".
func WriteOutput(outputFile string, data []byte, log logging.Logger) error {
	if outputFile == "" {
		_, err := Stdout.Write(data)
		return err
	}
	if err := fileutils.WriteFile(outputFile, data, 0600); err != nil {
		return err
	}
	log.Info("Wrote output file", logging.F(logging.FieldFile, outputFile))
	return nil
}

// PrintJSON writes v as indented JSON.
func PrintJSON(outputFile string, v interface{}, log logging.Logger) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return WriteOutput(outputFile, append(data, '\n'), log)
}

// ParseDate parses a YYYY-MM-DD flag value. An empty value is the zero time.
func ParseDate(flag, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	t, err := dateutils.ParseWithPattern(value, "yyyy-MM-dd")
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", flag, err)
	}
	return t, nil
}

// ParseAmount parses an optional decimal flag value.
func ParseAmount(flag, value string) (*decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("--%s: invalid amount %q", flag, value)
	}
	return &d, nil
}

// ReadInput reads the statement file named by a command argument.
func ReadInput(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("an input file is required")
	}
	return fileutils.ReadFile(path)
}
