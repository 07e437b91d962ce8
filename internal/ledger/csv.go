package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"fjacquet/bank-recon/internal/common"
	"fjacquet/bank-recon/internal/dateutils"
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"

	"github.com/shopspring/decimal"
)

// RowTypeOpening marks a CSV row that sets an account's opening balance
// instead of recording a transaction.
const RowTypeOpening = "opening"

// bookRow is one line of a book transactions CSV export.
type bookRow struct {
	Type          string `csv:"type,omitempty"`
	ID            string `csv:"id"`
	BankAccountID string `csv:"bank_account_id"`
	Date          string `csv:"date"`
	Amount        string `csv:"amount"`
	Description   string `csv:"description,omitempty"`
	Reference     string `csv:"reference,omitempty"`
	Reconciled    string `csv:"reconciled,omitempty"`
}

// LoadCSV builds a Memory ledger from a CSV file with the columns id,
// bank_account_id, date (YYYY-MM-DD), amount and optionally type,
// description, reference and reconciled.
func LoadCSV(filePath string, logger logging.Logger) (*Memory, error) {
	rows, err := common.ReadCSVFile[bookRow](filePath, logger)
	if err != nil {
		return nil, err
	}

	m := NewMemory()
	for i, row := range rows {
		line := i + 2
		if strings.TrimSpace(row.ID) == "" && strings.TrimSpace(row.BankAccountID) == "" {
			continue
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(row.Amount))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: invalid amount %q: %w", filePath, line, row.Amount, err)
		}
		if strings.EqualFold(strings.TrimSpace(row.Type), RowTypeOpening) {
			m.SetOpeningBalance(row.BankAccountID, amount)
			continue
		}
		date, err := dateutils.ParseWithPattern(row.Date, "yyyy-MM-dd")
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", filePath, line, err)
		}
		reconciled := false
		if v := strings.TrimSpace(row.Reconciled); v != "" {
			reconciled, err = strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: invalid reconciled flag %q", filePath, line, v)
			}
		}
		m.Add(models.BookTransaction{
			ID:            strings.TrimSpace(row.ID),
			BankAccountID: strings.TrimSpace(row.BankAccountID),
			Date:          date,
			Amount:        amount,
			Description:   row.Description,
			Reference:     row.Reference,
			Reconciled:    reconciled,
		})
	}
	return m, nil
}
