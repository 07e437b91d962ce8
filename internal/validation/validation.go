// Package validation wraps go-playground/validator and adds the cross-field
// rules for parser configs. Failures are returned as *reconerr.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"fjacquet/bank-recon/internal/dateutils"
	"fjacquet/bank-recon/internal/fileutils"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/reconerr"

	"github.com/go-playground/validator/v10"
)

var (
	instance *validator.Validate
	initOnce sync.Once
)

func get() *validator.Validate {
	initOnce.Do(func() {
		instance = validator.New()
		instance.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return instance
}

// Struct validates v against its `validate` tags.
func Struct(v interface{}) error {
	err := get().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		return &reconerr.ValidationError{
			Field:  field,
			Reason: describe(fe),
		}
	}
	return &reconerr.ValidationError{Reason: err.Error()}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_unless":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "len":
		return fmt.Sprintf("must have length %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}

// ParserConfig validates struct tags and the rules that depend on the
// config's format and sign convention.
func ParserConfig(cfg models.ParserConfig) error {
	if err := Struct(cfg); err != nil {
		return err
	}
	cfg = cfg.WithDefaults()

	if cfg.DecimalSeparator == cfg.ThousandSeparator {
		return reconerr.Invalid("thousand_separator", "must differ from decimal_separator")
	}

	if cfg.Format == models.FormatCAMT053 {
		return nil
	}

	if _, err := dateutils.PatternToLayout(cfg.DateFormat); err != nil {
		return reconerr.Invalid("date_format", err.Error())
	}

	for _, field := range cfg.RequiredColumnNames() {
		if cfg.ColumnFor(field) == nil {
			return reconerr.Invalid("columns."+field, fmt.Sprintf("required for sign convention %s", cfg.SignConvention))
		}
	}

	switch cfg.Format {
	case models.FormatDelimited:
		if cfg.Delimiter != `\t` && utf8.RuneCountInString(cfg.Delimiter) != 1 {
			return reconerr.Invalid("delimiter", fmt.Sprintf("must be a single character, got %q", cfg.Delimiter))
		}
		if err := validateEncoding(cfg.Encoding); err != nil {
			return err
		}
	case models.FormatFixedWidth:
		for _, field := range allFields {
			col := cfg.ColumnFor(field)
			if col != nil && col.Width <= 0 {
				return reconerr.Invalid("columns."+field, "fixed width columns need a positive width")
			}
		}
		if err := validateEncoding(cfg.Encoding); err != nil {
			return err
		}
	}

	if usesNames(cfg) && cfg.SkipHeaderRows < 1 {
		return reconerr.Invalid("skip_header_rows", "columns addressed by name need a header row")
	}
	return nil
}

var allFields = []string{"date", "description", "reference", "amount", "debit", "credit", "balance", "indicator"}

func usesNames(cfg models.ParserConfig) bool {
	for _, field := range allFields {
		if col := cfg.ColumnFor(field); col != nil && col.Name != "" {
			return true
		}
	}
	return false
}

func validateEncoding(name string) error {
	if _, err := fileutils.LookupEncoding(name); err != nil {
		return reconerr.Invalid("encoding", err.Error())
	}
	return nil
}

// IsValidOutputFormat checks if the given report format is supported.
func IsValidOutputFormat(format string) error {
	switch format {
	case "json", "csv", "xlsx":
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s. Supported formats are 'json', 'csv', 'xlsx'", format)
	}
}
