package fatura

import (
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/oferta"
	"gorm.io/gorm"
)

// Anexo aponta o arquivo original da fatura no armazenamento.
type Anexo struct {
	Path        string    `json:"path"`
	Nome        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Tamanho     int64     `json:"size"`
	EnviadoEm   time.Time `json:"uploaded_at"`
}

// Fatura é a conta de energia verificada pelo usuário. Os campos extraídos
// pelo OCR não têm esquema fixo e ficam em Fields.
type Fatura struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID   uint  `gorm:"not null;index" json:"user_id"`
	GroupID  uint  `gorm:"index" json:"group_id"`
	ClientID *uint `gorm:"index" json:"Client_id,omitempty"`

	BillType      string `gorm:"size:80" json:"bill_type"`
	Address       string `json:"address"`
	BillingPeriod string `gorm:"size:80" json:"billing_period"`
	AppMode       string `gorm:"size:30" json:"app_mode,omitempty"`

	IsOfferSelected bool `gorm:"not null;default:false" json:"is_offer_selected"`

	Fields  map[string]any  `gorm:"type:jsonb;serializer:json" json:"fields"`
	Anexos  []Anexo         `gorm:"type:jsonb;serializer:json" json:"attachments"`
	Ofertas []oferta.Oferta `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"offers,omitempty"`
}

func (Fatura) TableName() string { return "faturas" }
