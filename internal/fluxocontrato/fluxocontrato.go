// Package fluxocontrato transforma uma oferta escolhida em contrato.
package fluxocontrato

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/api"
	"github.com/KromaEnergia/portal-ofertas/internal/contrato"
	"github.com/KromaEnergia/portal-ofertas/internal/utils"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	ErrOfertaJaEscolhida = errors.New("An offer was already selected for this invoice")
	ErrClienteInvalido   = errors.New("Select a client from the list")
	ErrDocumento         = errors.New("Unknown required document")
)

// Navegacao carrega a oferta de origem até o formulário de contrato.
type Navegacao struct {
	OfferID   uint `json:"offer_id" validate:"required"`
	InvoiceID uint `json:"invoice_id" validate:"required"`
}

// Formulario é o que o usuário preenche.
type Formulario struct {
	Navegacao
	ClientID          uint     `json:"client_id" validate:"required"`
	StartDate         string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	ClosureDate       string   `json:"closure_date" validate:"required,datetime=2006-01-02"`
	RequiresDocument  string   `json:"requires_document" validate:"required,oneof=yes no"`
	RequiredDocuments []string `json:"required_documents"`
	Note              string   `json:"note"`
}

// Pedido é o corpo enviado para /api/group/contracts.
type Pedido struct {
	ClientID          uint     `json:"client_id"`
	OfferID           uint     `json:"offer_id"`
	Status            string   `json:"status"`
	StartDate         string   `json:"start_date"`
	ClosureDate       string   `json:"closure_date"`
	RequiresDocument  string   `json:"requires_document"`
	RequiredDocuments []string `json:"required_documents"`
	Note              string   `json:"note"`
}

// Validar roda antes de qualquer chamada: campos, ordem das datas e
// documentos. O status sai de requires_document.
func Validar(f Formulario) (Pedido, error) {
	if err := utils.Validate.Struct(f); err != nil {
		return Pedido{}, err
	}
	inicio, _ := time.Parse(contrato.LayoutData, f.StartDate)
	fim, _ := time.Parse(contrato.LayoutData, f.ClosureDate)
	if !inicio.Before(fim) {
		return Pedido{}, contrato.ErrDatas
	}

	docs := f.RequiredDocuments
	switch f.RequiresDocument {
	case "yes":
		if len(docs) == 0 {
			return Pedido{}, contrato.ErrSemDocumentos
		}
		for _, d := range docs {
			if !contrato.DocumentoValido(d) {
				return Pedido{}, fmt.Errorf("%w: %q", ErrDocumento, d)
			}
		}
	case "no":
		docs = []string{}
	}

	return Pedido{
		ClientID:          f.ClientID,
		OfferID:           f.OfferID,
		Status:            contrato.DerivarStatus(f.RequiresDocument),
		StartDate:         f.StartDate,
		ClosureDate:       f.ClosureDate,
		RequiresDocument:  f.RequiresDocument,
		RequiredDocuments: docs,
		Note:              f.Note,
	}, nil
}

// PodeCriar libera o contrato enquanto a fatura não tiver oferta escolhida.
func PodeCriar(fatura map[string]any) bool {
	switch v := fatura["is_offer_selected"].(type) {
	case nil:
		return true
	case bool:
		return !v
	case float64:
		return v == 0
	case string:
		return v == "" || v == "false" || v == "0"
	default:
		return false
	}
}

// Backend é o que o fluxo usa da API interna.
type Backend interface {
	Fatura(ctx context.Context, segmento string, id uint) (map[string]any, error)
	Clientes(ctx context.Context, segmento string) ([]api.Cliente, error)
	CriarContrato(ctx context.Context, payload any) (map[string]any, error)
}

// Tela é o que o portal precisa para montar o formulário.
type Tela struct {
	Navegacao  Navegacao     `json:"navigation"`
	Clientes   []api.Cliente `json:"clients"`
	Documentos []string      `json:"documents"`
}

type Servico struct {
	backend  Backend
	segmento string
	log      *zap.Logger
}

func NovoServico(b Backend, segmento string, log *zap.Logger) *Servico {
	return &Servico{backend: b, segmento: segmento, log: log}
}

// Preparar confere a fatura de origem e carrega os clientes.
func (s *Servico) Preparar(ctx context.Context, nav Navegacao) (Tela, error) {
	if err := utils.Validate.Struct(nav); err != nil {
		return Tela{}, err
	}
	if err := s.conferirFatura(ctx, nav.InvoiceID); err != nil {
		return Tela{}, err
	}
	clientes, err := s.backend.Clientes(ctx, s.segmento)
	if err != nil {
		return Tela{}, err
	}
	return Tela{Navegacao: nav, Clientes: clientes, Documentos: contrato.Documentos}, nil
}

// Criar valida, confere de novo a fatura de origem, confirma que o cliente
// está na lista do grupo e posta o contrato. Erros do backend voltam sem tradução.
func (s *Servico) Criar(ctx context.Context, f Formulario) (map[string]any, error) {
	pedido, err := Validar(f)
	if err != nil {
		return nil, err
	}

	if err := s.conferirFatura(ctx, f.InvoiceID); err != nil {
		return nil, err
	}
	clientes, err := s.backend.Clientes(ctx, s.segmento)
	if err != nil {
		return nil, err
	}
	if !contem(clientes, f.ClientID) {
		return nil, ErrClienteInvalido
	}

	resp, err := s.backend.CriarContrato(ctx, pedido)
	if err != nil {
		return nil, err
	}
	s.log.Info("contrato criado",
		zap.Uint("offer_id", pedido.OfferID),
		zap.Uint("client_id", pedido.ClientID),
		zap.String("status", pedido.Status),
	)
	return resp, nil
}

func (s *Servico) conferirFatura(ctx context.Context, invoiceID uint) error {
	fatura, err := s.backend.Fatura(ctx, s.segmento, invoiceID)
	if err != nil {
		return err
	}
	if !PodeCriar(fatura) {
		return ErrOfertaJaEscolhida
	}
	return nil
}

func contem(clientes []api.Cliente, id uint) bool {
	for _, c := range clientes {
		if c.ID == id {
			return true
		}
	}
	return false
}

// ErroDeValidacao diz se o erro veio das regras locais do formulário.
func ErroDeValidacao(err error) bool {
	var ve validator.ValidationErrors
	return errors.As(err, &ve) ||
		errors.Is(err, contrato.ErrDatas) ||
		errors.Is(err, contrato.ErrSemDocumentos) ||
		errors.Is(err, ErrDocumento) ||
		errors.Is(err, ErrClienteInvalido)
}
