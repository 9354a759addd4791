package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type criarFaturaResposta struct {
	Invoice uint   `json:"invoice"`
	Message string `json:"message"`
}

type criarOfertasPedido struct {
	Offers    []map[string]any `json:"offers"`
	InvoiceID uint             `json:"invoice_id"`
	GroupID   uint             `json:"group_id"`
}

type ofertasResposta struct {
	Offers []map[string]any `json:"offers"`
}

// Cliente é a linha da lista de clientes usada no formulário de contrato.
type Cliente struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PlanoAtivo falha quando o grupo não tem plano vigente, seja por status
// não-2xx ou por um corpo com "error".
func (c *Client) PlanoAtivo(ctx context.Context) error {
	var body map[string]any
	if err := c.Do(ctx, http.MethodGet, "/api/plan/info", nil, &body); err != nil {
		return err
	}
	if msg, ok := body["error"]; ok && msg != nil {
		texto := strings.TrimSpace(fmt.Sprint(msg))
		if texto == "" {
			texto = "No active plan"
		}
		return &HTTPError{Status: http.StatusPaymentRequired, Message: texto}
	}
	return nil
}

func (c *Client) CriarFatura(ctx context.Context, segmento string, campos map[string]any) (uint, error) {
	var resp criarFaturaResposta
	if err := c.Do(ctx, http.MethodPost, "/api/"+segmento+"/invoices", campos, &resp); err != nil {
		return 0, err
	}
	if resp.Invoice == 0 {
		return 0, fmt.Errorf("resposta sem id da fatura")
	}
	return resp.Invoice, nil
}

func (c *Client) CriarOfertas(ctx context.Context, invoiceID, groupID uint, ofertas []map[string]any) ([]map[string]any, error) {
	var resp ofertasResposta
	err := c.Do(ctx, http.MethodPost, "/api/member/offers",
		criarOfertasPedido{Offers: ofertas, InvoiceID: invoiceID, GroupID: groupID}, &resp)
	return resp.Offers, err
}

func (c *Client) ListarOfertas(ctx context.Context, segmento string, invoiceID uint) ([]map[string]any, error) {
	var resp ofertasResposta
	err := c.Do(ctx, http.MethodPost, "/api/"+segmento+"/invoice/offers",
		map[string]uint{"invoice_id": invoiceID}, &resp)
	return resp.Offers, err
}

func (c *Client) SelecionarOferta(ctx context.Context, segmento string, offerID uint) error {
	return c.Do(ctx, http.MethodPut, fmt.Sprintf("/api/%s/offers/%d/select", segmento, offerID), nil, nil)
}

func (c *Client) Faturas(ctx context.Context, segmento string) ([]map[string]any, error) {
	var resp struct {
		Invoices []map[string]any `json:"invoices"`
	}
	err := c.Do(ctx, http.MethodGet, "/api/"+segmento+"/invoices", nil, &resp)
	return resp.Invoices, err
}

func (c *Client) Fatura(ctx context.Context, segmento string, id uint) (map[string]any, error) {
	var resp struct {
		Invoice map[string]any `json:"invoice"`
	}
	err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/api/%s/invoices/%d", segmento, id), nil, &resp)
	return resp.Invoice, err
}

func (c *Client) Clientes(ctx context.Context, segmento string) ([]Cliente, error) {
	var resp struct {
		Clients []Cliente `json:"clients"`
	}
	err := c.Do(ctx, http.MethodGet, "/api/"+segmento+"/clients", nil, &resp)
	return resp.Clients, err
}

// CriarContrato posta no endpoint de contratos do grupo; o corpo de erro volta como está.
func (c *Client) CriarContrato(ctx context.Context, payload any) (map[string]any, error) {
	var resp map[string]any
	err := c.Do(ctx, http.MethodPost, "/api/group/contracts", payload, &resp)
	return resp, err
}

func (c *Client) VincularWhatsapp(ctx context.Context, segmento, numero, sessaoWA string) error {
	return c.Do(ctx, http.MethodPost, "/api/"+segmento+"/whatsapp/link",
		map[string]string{"number": numero, "session": sessaoWA}, nil)
}

func (c *Client) DesvincularWhatsapp(ctx context.Context, segmento string) error {
	return c.Do(ctx, http.MethodPost, "/api/"+segmento+"/whatsapp/unlink", nil, nil)
}
