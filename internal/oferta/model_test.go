package oferta

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeMapa(t *testing.T) {
	o := DeMapa(map[string]any{
		"provider_name":    " Acme Energia ",
		"product_name":     "Verde 12",
		"saving":           "12,5%",
		"sales_commission": json.Number("3.2"),
		"id":               99,
		"invoice_id":       5,
		"Client_id":        4,
		"tariff":           "fixed",
	})

	assert.Equal(t, "Acme Energia", o.ProviderName)
	assert.Equal(t, "Verde 12", o.ProductName)
	assert.InDelta(t, 12.5, o.Saving, 1e-9)
	assert.InDelta(t, 3.2, o.SalesCommission, 1e-9)
	assert.Zero(t, o.ID)
	assert.Zero(t, o.InvoiceID)
	assert.Equal(t, map[string]any{"tariff": "fixed"}, o.Details)
}

func TestDeMapa_SemExtras(t *testing.T) {
	o := DeMapa(map[string]any{"provider_name": "Acme", "saving": 10.0})
	assert.Nil(t, o.Details)
	assert.Equal(t, 10.0, o.Saving)
}

func TestNumero(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{12.5, 12.5},
		{"7", 7},
		{"7,25 %", 7.25},
		{"abc", 0},
		{nil, 0},
		{3, 3},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, numero(tt.in), 1e-9, "%v", tt.in)
	}
}
