package historico

import "gorm.io/gorm"

// Entrada registra um acontecimento na linha do tempo de uma fatura.
type Entrada struct {
	gorm.Model
	InvoiceID uint   `gorm:"not null;index" json:"invoice_id"`
	UserID    *uint  `json:"user_id,omitempty"` // nil para entradas do sistema
	Texto     string `gorm:"not null" json:"texto"`
	System    bool   `gorm:"default:false" json:"system"`
}

func (Entrada) TableName() string { return "historico_faturas" }
