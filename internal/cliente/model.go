package cliente

import "gorm.io/gorm"

// Cliente é o titular da conta de energia que assina o contrato.
type Cliente struct {
	gorm.Model
	Nome      string `gorm:"size:150;not null" json:"name"`
	Email     string `gorm:"size:100" json:"email"`
	Telefone  string `gorm:"size:30" json:"phone"`
	Documento string `gorm:"size:30" json:"document"`
	Endereco  string `json:"address"`
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	GroupID   uint   `gorm:"not null;index" json:"group_id"`
}

func (Cliente) TableName() string { return "clientes" }
