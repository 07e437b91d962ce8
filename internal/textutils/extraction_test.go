package textutils_test

import (
	"testing"

	"fjacquet/bank-recon/internal/textutils"

	"github.com/stretchr/testify/assert"
)

func TestExtractReference(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "ref label", input: "TRSF E-BANKING Ref: 88123/A", expected: "88123/A"},
		{name: "reference label", input: "Payment reference 2024-0042 supplier", expected: "2024-0042"},
		{name: "invoice number", input: "Pelunasan inv-1043 PT Maju", expected: "INV-1043"},
		{name: "purchase order", input: "PO#7781 deposit", expected: "PO#7781"},
		{name: "booking number", input: "Booking no: 12-34", expected: "12-34"},
		{name: "no digits", input: "Reference: pending", expected: ""},
		{name: "nothing", input: "Bank fee", expected: ""},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textutils.ExtractReference(tt.input))
		})
	}
}

func TestContainsReference(t *testing.T) {
	tests := []struct {
		text     string
		ref      string
		expected bool
	}{
		{text: "Transfer INV-1 from customer", ref: "inv-1", expected: true},
		{text: "INV-1", ref: "INV-1", expected: true},
		{text: "Transfer INV-10 from customer", ref: "INV-1", expected: false},
		{text: "XINV-1", ref: "INV-1", expected: false},
		{text: "Transfer", ref: "", expected: false},
		{text: "", ref: "INV-1", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.expected, textutils.ContainsReference(tt.text, tt.ref))
		})
	}
}
