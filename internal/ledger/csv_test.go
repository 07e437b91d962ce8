package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/bank-recon/internal/dateutils"
	"fjacquet/bank-recon/internal/logging"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLedger(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeLedger(t, `type,id,bank_account_id,date,amount,description,reference,reconciled
opening,,acc-1,,1000.00,,,
,t-1,acc-1,2024-03-04,-500000,Supplier payment,INV-1,
,t-2,acc-1,2024-03-05,250.75,Customer receipt,,true
`)

	m, err := LoadCSV(path, logging.NewMockLogger())
	require.NoError(t, err)

	txs := m.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, "t-1", txs[0].ID)
	assert.Equal(t, "INV-1", txs[0].Reference)
	assert.Equal(t, dateutils.Date(2024, 3, 4), txs[0].Date)
	assert.True(t, txs[1].Reconciled)

	balance, err := m.BookBalance(context.Background(), "acc-1", dateutils.Date(2024, 3, 31))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("-498749.25")), "got %s", balance)
}

func TestLoadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bad amount",
			content: "id,bank_account_id,date,amount\nt-1,acc-1,2024-03-04,abc\n",
			want:    "line 2: invalid amount",
		},
		{
			name:    "bad date",
			content: "id,bank_account_id,date,amount\nt-1,acc-1,04/03/2024,1\n",
			want:    "line 2",
		},
		{
			name:    "bad flag",
			content: "id,bank_account_id,date,amount,reconciled\nt-1,acc-1,2024-03-04,1,maybe\n",
			want:    "invalid reconciled flag",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(writeLedger(t, tt.content), logging.NewMockLogger())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), logging.NewMockLogger())
	assert.Error(t, err)
}
