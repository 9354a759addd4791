package contrato

import (
	"time"

	"gorm.io/gorm"
)

const (
	StatusPending = "pending"
	StatusActive  = "active"
)

// Documentos que podem ser exigidos do cliente antes da ativação.
const (
	DocIDCardFront            = "id_card_front"
	DocIDCardBack             = "id_card_back"
	DocBankReceipt            = "bank_receipt"
	DocLastServiceInvoice     = "last_service_invoice"
	DocLeaseAgreement         = "lease_agreement"
	DocBankAccountCertificate = "bank_account_certificate"
)

var Documentos = []string{
	DocIDCardFront,
	DocIDCardBack,
	DocBankReceipt,
	DocLastServiceInvoice,
	DocLeaseAgreement,
	DocBankAccountCertificate,
}

// LayoutData é o formato das datas trocadas com o portal.
const LayoutData = "2006-01-02"

// Contrato liga um cliente a uma oferta escolhida (e, por ela, à fatura).
type Contrato struct {
	gorm.Model

	ClientID  uint `gorm:"not null;index" json:"client_id"`
	OfferID   uint `gorm:"not null;index" json:"offer_id"`
	InvoiceID uint `gorm:"not null;index" json:"invoice_id"`
	UserID    uint `gorm:"not null;index" json:"user_id"`
	GroupID   uint `gorm:"not null;index" json:"group_id"`

	Status      string    `gorm:"size:20;not null" json:"status"`
	StartDate   time.Time `json:"start_date"`
	ClosureDate time.Time `json:"closure_date"`

	RequiresDocument  string   `gorm:"size:3;not null" json:"requires_document"` // yes ou no
	RequiredDocuments []string `gorm:"type:jsonb;serializer:json" json:"required_documents"`
	Note              string   `json:"note"`
}

func (Contrato) TableName() string { return "contratos" }

// DerivarStatus: com documentos exigidos o contrato aguarda o envio do cliente.
func DerivarStatus(requiresDocument string) string {
	if requiresDocument == "yes" {
		return StatusPending
	}
	return StatusActive
}

func DocumentoValido(tag string) bool {
	for _, d := range Documentos {
		if d == tag {
			return true
		}
	}
	return false
}
