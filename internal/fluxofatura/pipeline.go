package fluxofatura

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/metricas"
	"github.com/KromaEnergia/portal-ofertas/internal/sessao"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

type Etapa int

const (
	EtapaUpload Etapa = iota + 1
	EtapaVerificacao
	EtapaOfertas
)

func (e Etapa) String() string {
	switch e {
	case EtapaUpload:
		return "upload"
	case EtapaVerificacao:
		return "verification"
	case EtapaOfertas:
		return "offers"
	default:
		return "unknown"
	}
}

var TiposAceitos = []string{"image/jpeg", "image/png", "application/pdf"}

var (
	ErrTipoArquivo      = errors.New("Only JPEG, PNG or PDF files are accepted")
	ErrArquivoPendente  = errors.New("An invoice is already being processed. Submit or reset it first")
	ErrSemPlano         = errors.New("Please purchase a plan")
	ErrCampoObrigatorio = errors.New("All fields are required")
	ErrEtapa            = errors.New("This action is not available at the current step")
	ErrSemSessao        = errors.New("sessão ausente")
)

// Arquivo é a fatura escolhida ou arrastada pelo usuário.
type Arquivo struct {
	Nome  string
	Dados []byte
}

type Dependencias struct {
	Backend  Backend
	Extrator Extrator
	Matcher  Matcher
}

// Resultado é o que a etapa de ofertas exibe.
type Resultado struct {
	InvoiceID uint             `json:"invoice_id"`
	Ofertas   []map[string]any `json:"offers"`
}

// Estado é a foto do pipeline devolvida ao portal.
type Estado struct {
	Etapa     string           `json:"step"`
	Campos    []Campo          `json:"fields,omitempty"`
	InvoiceID uint             `json:"invoice_id,omitempty"`
	Ofertas   []map[string]any `json:"offers,omitempty"`
}

// Pipeline conduz um usuário pelas etapas upload → verificação → ofertas.
// As operações são serializadas; chamadas concorrentes esperam a anterior.
type Pipeline struct {
	variante Variante
	store    sessao.Store
	deps     Dependencias
	log      *zap.Logger
	metricas *metricas.Metricas

	mu       sync.Mutex
	etapa    Etapa
	pendente *Arquivo
	original map[string]any
	invoice  uint
	ofertas  []map[string]any

	ultimoUso atomic.Int64
}

func Novo(v Variante, store sessao.Store, deps Dependencias, log *zap.Logger, m *metricas.Metricas) *Pipeline {
	p := &Pipeline{
		variante: v,
		store:    store,
		deps:     deps,
		log:      log,
		metricas: m,
		etapa:    EtapaUpload,
	}
	p.tocar()
	return p
}

func (p *Pipeline) tocar() {
	p.ultimoUso.Store(time.Now().UnixNano())
}

// UltimoUso é lido pela limpeza sem disputar o lock das operações.
func (p *Pipeline) UltimoUso() time.Time {
	return time.Unix(0, p.ultimoUso.Load())
}

func (p *Pipeline) Etapa() Etapa {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.etapa
}

func (p *Pipeline) Estado() Estado {
	p.mu.Lock()
	defer p.mu.Unlock()

	e := Estado{Etapa: p.etapa.String()}
	switch p.etapa {
	case EtapaVerificacao:
		e.Campos = GerarFormulario(p.original)
	case EtapaOfertas:
		e.InvoiceID = p.invoice
		e.Ofertas = p.ofertas
	}
	return e
}

// Upload valida o tipo do arquivo pelo conteúdo, confere o plano e manda a
// fatura para o OCR. Tipo inválido não gera chamada de rede.
func (p *Pipeline) Upload(ctx context.Context, arq Arquivo) (campos []Campo, err error) {
	p.tocar()
	defer func() { p.metricas.RegistrarEtapa("upload", err) }()

	mt := mimetype.Detect(arq.Dados)
	if !mimetype.EqualsAny(mt.String(), TiposAceitos...) {
		return nil, fmt.Errorf("%w (got %s)", ErrTipoArquivo, mt.String())
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pendente != nil || p.etapa == EtapaVerificacao {
		return nil, ErrArquivoPendente
	}
	if _, ok := p.store.Carregar(); !ok {
		return nil, ErrSemSessao
	}

	if err := p.deps.Backend.PlanoAtivo(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSemPlano, err)
	}

	p.pendente = &arq
	extraidos, err := p.deps.Extrator.Extrair(ctx, arq.Nome, arq.Dados)
	p.pendente = nil
	if err != nil {
		p.etapa = EtapaUpload
		return nil, err
	}

	p.original = extraidos
	p.invoice = 0
	p.ofertas = nil
	p.etapa = EtapaVerificacao
	return GerarFormulario(extraidos), nil
}

// Submit aplica as edições do usuário sobre os campos extraídos, exige todos
// preenchidos e roda matching → fatura → ofertas. Não há retry nem rollback:
// em falha a etapa continua em verificação para reenvio manual.
func (p *Pipeline) Submit(ctx context.Context, edicoes map[string]string) (res Resultado, err error) {
	p.tocar()
	defer func() { p.metricas.RegistrarEtapa("submit", err) }()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.etapa != EtapaVerificacao {
		return Resultado{}, ErrEtapa
	}
	s, ok := p.store.Carregar()
	if !ok {
		return Resultado{}, ErrSemSessao
	}

	campos, err := MesclarEdicoes(p.original, edicoes)
	if err != nil {
		return Resultado{}, err
	}
	grupo := p.variante.Grupo(s)

	sugeridas, err := p.deps.Matcher.Ofertas(ctx, campos, grupo)
	if err != nil {
		return Resultado{}, err
	}

	invoiceID, err := p.deps.Backend.CriarFatura(ctx, p.variante.Segmento, p.variante.PayloadFatura(campos, s))
	if err != nil {
		return Resultado{}, err
	}

	persistidas, err := p.deps.Backend.CriarOfertas(ctx, invoiceID, grupo, sugeridas)
	if err != nil {
		p.log.Warn("fatura criada sem ofertas",
			zap.Uint("invoice_id", invoiceID),
			zap.Uint("user_id", s.UserID),
			zap.Error(err),
		)
		return Resultado{}, err
	}

	p.original = campos
	p.invoice = invoiceID
	p.ofertas = persistidas
	p.etapa = EtapaOfertas
	return Resultado{InvoiceID: invoiceID, Ofertas: persistidas}, nil
}

// Reset volta ao upload descartando tudo.
func (p *Pipeline) Reset() {
	p.tocar()
	p.mu.Lock()
	defer p.mu.Unlock()

	p.etapa = EtapaUpload
	p.pendente = nil
	p.original = nil
	p.invoice = 0
	p.ofertas = nil
}

// MesclarEdicoes devolve o mapa enviado ao matching. Campos não editados
// mantêm o valor original (inclusive o tipo); só chaves renderizadas no
// formulário aceitam edição.
func MesclarEdicoes(original map[string]any, edicoes map[string]string) (map[string]any, error) {
	out := copiar(original)
	var vazios []string
	for _, c := range GerarFormulario(original) {
		valor := c.Valor
		if novo, ok := edicoes[c.Chave]; ok && novo != c.Valor {
			out[c.Chave] = novo
			valor = novo
		}
		if strings.TrimSpace(valor) == "" {
			vazios = append(vazios, c.Rotulo)
		}
	}
	if len(vazios) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrCampoObrigatorio, strings.Join(vazios, ", "))
	}
	return out, nil
}
