package notificacao

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	EventoFaturaCriada     = "invoice.created"
	EventoOfertasCriadas   = "offers.created"
	EventoOfertaEscolhida  = "offer.selected"
	EventoContratoCriado   = "contract.created"
	EventoWhatsappVinculo  = "whatsapp.linked"
	EventoWhatsappDesfeito = "whatsapp.unlinked"
)

// Evento é o aviso publicado quando um registro do fluxo de ofertas muda.
type Evento struct {
	Tipo       string         `json:"tipo"`
	InvoiceID  uint           `json:"invoice_id,omitempty"`
	UserID     uint           `json:"user_id"`
	GroupID    uint           `json:"group_id"`
	Dados      map[string]any `json:"dados,omitempty"`
	OcorridoEm time.Time      `json:"ocorrido_em"`
}

type Publisher interface {
	Publicar(ctx context.Context, e Evento) error
}

// Multi publica em todos os destinos e junta os erros.
type Multi []Publisher

func (m Multi) Publicar(ctx context.Context, e Evento) error {
	var errs []error
	for _, p := range m {
		if err := p.Publicar(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) Publicar(context.Context, Evento) error { return nil }

// Disparar publica sem bloquear o handler; falhas só vão para o log.
func Disparar(p Publisher, log *zap.Logger, e Evento) {
	if p == nil {
		return
	}
	if e.OcorridoEm.IsZero() {
		e.OcorridoEm = time.Now()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.Publicar(ctx, e); err != nil {
			log.Warn("falha ao publicar evento", zap.String("tipo", e.Tipo), zap.Error(err))
		}
	}()
}
