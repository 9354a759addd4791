package oferta

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Oferta é um produto de fornecedor candidato para uma fatura.
type Oferta struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	InvoiceID       uint           `gorm:"not null;index" json:"invoice_id"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	GroupID         uint           `gorm:"index" json:"-"`
	ProviderName    string         `gorm:"size:150" json:"provider_name"`
	ProductName     string         `gorm:"size:150" json:"product_name"`
	Saving          float64        `gorm:"not null;default:0" json:"saving"`           // %
	SalesCommission float64        `gorm:"not null;default:0" json:"sales_commission"` // %
	IsSelected      bool           `gorm:"not null;default:false" json:"is_selected"`
	Details         map[string]any `gorm:"type:jsonb;serializer:json" json:"details,omitempty"`
}

func (Oferta) TableName() string { return "ofertas" }

// chaves controladas pela API; o que vier do matching com esses nomes é ignorado
var reservadas = map[string]bool{
	"id": true, "invoice_id": true, "user_id": true, "group_id": true,
	"created_at": true, "updated_at": true, "is_selected": true, "Client_id": true,
}

// DeMapa converte um objeto devolvido pelo serviço de matching. Os campos
// conhecidos viram colunas e o restante vai para Details.
func DeMapa(m map[string]any) Oferta {
	o := Oferta{Details: map[string]any{}}
	for k, v := range m {
		switch k {
		case "provider_name":
			o.ProviderName = texto(v)
		case "product_name":
			o.ProductName = texto(v)
		case "saving":
			o.Saving = numero(v)
		case "sales_commission":
			o.SalesCommission = numero(v)
		default:
			if !reservadas[k] {
				o.Details[k] = v
			}
		}
	}
	if len(o.Details) == 0 {
		o.Details = nil
	}
	return o
}

func texto(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

// numero aceita 12.5, "12.5", "12,5" e "12,5%".
func numero(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case json.Number:
		f, _ := t.Float64()
		return f
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "%"))
		s = strings.ReplaceAll(s, ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
