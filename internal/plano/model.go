package plano

import (
	"time"

	"gorm.io/gorm"
)

// Plano é a assinatura que libera o envio de faturas para o grupo.
type Plano struct {
	gorm.Model
	GroupID   uint      `gorm:"not null;index" json:"group_id"`
	Nome      string    `gorm:"size:80;not null" json:"name"`
	Ativo     bool      `gorm:"default:true" json:"active"`
	ValidoAte time.Time `json:"valid_until"`
}

// Vigente indica se o plano libera envios no instante informado.
func (p Plano) Vigente(agora time.Time) bool {
	return p.Ativo && agora.Before(p.ValidoAte)
}
