package whatsapp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
)

// LimiteAnexo é o tamanho máximo aceito pelo gateway.
const LimiteAnexo = 5 << 20

var ErrAnexoGrande = errors.New("PDF exceeds the 5MB WhatsApp limit")

// Remetente envia documentos pela sessão do usuário.
type Remetente struct {
	gateway *Gateway
}

func NovoRemetente(g *Gateway) *Remetente {
	return &Remetente{gateway: g}
}

// EnviarPDF checa o tamanho antes de qualquer chamada ao gateway.
func (r *Remetente) EnviarPDF(ctx context.Context, sessao, numero, legenda, nome string, pdf []byte) error {
	if len(pdf) > LimiteAnexo {
		return fmt.Errorf("%w (%d bytes)", ErrAnexoGrande, len(pdf))
	}
	if ChatID(numero) == "@c.us" {
		return errors.New("Phone number is required")
	}
	return r.gateway.enviarArquivo(ctx, envio{
		ChatID:  ChatID(numero),
		Caption: legenda,
		Session: sessao,
		File: arquivoEnvio{
			Data:     base64.StdEncoding.EncodeToString(pdf),
			Filename: nome,
			Mimetype: "application/pdf",
		},
	})
}
