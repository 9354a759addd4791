package usuario

import "gorm.io/gorm"

// Usuario é qualquer pessoa que acessa o portal; Role define as rotas liberadas.
type Usuario struct {
	gorm.Model
	Nome      string `gorm:"size:100;not null" json:"nome"`
	Sobrenome string `gorm:"size:100" json:"sobrenome"`
	Email     string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Senha     string `gorm:"size:255;not null" json:"-"`
	Telefone  string `gorm:"size:20" json:"telefone"`
	Role      string `gorm:"size:20;not null;index" json:"role"`
	GroupID   uint   `gorm:"index" json:"group_id"`

	PrecisaRedefinirSenha bool `json:"-"`

	// WhatsApp vinculado pelo fluxo de sessão do portal
	WhatsappSessao    string `gorm:"size:120" json:"whatsapp_session"`
	WhatsappNumero    string `gorm:"size:30" json:"whatsapp_number"`
	WhatsappVinculado bool   `gorm:"default:false" json:"whatsapp_linked"`
}
