package historico

import "time"

type AuthorDTO struct {
	Type string `json:"type"` // "user" | "system"
	ID   *uint  `json:"id,omitempty"`
	Nome string `json:"nome,omitempty"`
}

type EntradaDTO struct {
	ID        uint      `json:"id"`
	InvoiceID uint      `json:"invoice_id"`
	Texto     string    `json:"texto"`
	System    bool      `json:"system"`
	CreatedAt time.Time `json:"created_at"`
	Author    AuthorDTO `json:"author"`
}

func toDTO(e Entrada) EntradaDTO {
	out := EntradaDTO{
		ID:        e.ID,
		InvoiceID: e.InvoiceID,
		Texto:     e.Texto,
		System:    e.System,
		CreatedAt: e.CreatedAt,
	}
	if e.System || e.UserID == nil {
		out.Author = AuthorDTO{Type: "system", Nome: "Sistema"}
		return out
	}
	out.Author = AuthorDTO{Type: "user", ID: e.UserID, Nome: "Usuário"}
	return out
}

func toDTOs(list []Entrada) []EntradaDTO {
	out := make([]EntradaDTO, 0, len(list))
	for _, e := range list {
		out = append(out, toDTO(e))
	}
	return out
}
