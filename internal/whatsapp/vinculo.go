package whatsapp

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

type EstadoVinculo int

const (
	SemSessao EstadoVinculo = iota
	Criando
	AguardandoLeitura
	Conectado
	Parado
)

func (e EstadoVinculo) String() string {
	switch e {
	case SemSessao:
		return "no_session"
	case Criando:
		return "creating"
	case AguardandoLeitura:
		return "awaiting_scan"
	case Conectado:
		return "connected"
	case Parado:
		return "stopped"
	default:
		return "unknown"
	}
}

var ErrSemQR = errors.New("QR code is only available while waiting for the scan")

// Notificador avisa o backend quando o número é vinculado ou desvinculado.
type Notificador interface {
	Vincular(ctx context.Context, numero, sessao string) error
	Desvincular(ctx context.Context) error
}

// Foto é o estado exposto ao portal.
type Foto struct {
	Estado string `json:"state"`
	Sessao string `json:"session"`
	Numero string `json:"number,omitempty"`
	Nome   string `json:"name,omitempty"`
	Erro   string `json:"error,omitempty"`
}

// Vinculador conduz a sessão de um usuário no gateway por polling.
// Existe no máximo um ticker por vinculador: iniciar o polling sempre para o
// anterior antes de criar outro. As verificações rodam em sequência na
// goroutine do ticker.
type Vinculador struct {
	gateway   *Gateway
	sessao    string
	notif     Notificador
	intervalo time.Duration
	timeout   time.Duration
	log       *zap.Logger

	mu        sync.Mutex
	estado    EstadoVinculo
	perfil    Perfil
	erro      string
	vinculado bool
	ticker    *time.Ticker
	parar     chan struct{}
}

func NovoVinculador(g *Gateway, sessao string, n Notificador, intervalo time.Duration, log *zap.Logger) *Vinculador {
	if intervalo <= 0 {
		intervalo = 5 * time.Second
	}
	return &Vinculador{
		gateway:   g,
		sessao:    sessao,
		notif:     n,
		intervalo: intervalo,
		timeout:   g.http.Timeout,
		log:       log.With(zap.String("sessao_whatsapp", sessao)),
	}
}

func (v *Vinculador) Foto() Foto {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Foto{
		Estado: v.estado.String(),
		Sessao: v.sessao,
		Numero: v.perfil.Numero(),
		Nome:   v.perfil.PushName,
		Erro:   v.erro,
	}
}

func (v *Vinculador) Estado() EstadoVinculo {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.estado
}

// Iniciar cria a sessão no gateway e começa a acompanhar a leitura do QR.
func (v *Vinculador) Iniciar(ctx context.Context) error {
	v.mu.Lock()
	if v.estado == Conectado || v.estado == Criando {
		v.mu.Unlock()
		return nil
	}
	v.estado = Criando
	v.erro = ""
	v.mu.Unlock()

	if err := v.gateway.CriarSessao(ctx, v.sessao); err != nil {
		v.falhar(ctx, err)
		return err
	}

	v.mu.Lock()
	v.estado = AguardandoLeitura
	v.iniciarPolling()
	v.mu.Unlock()
	return nil
}

// iniciarPolling exige v.mu.
func (v *Vinculador) iniciarPolling() {
	v.pararPolling()
	t := time.NewTicker(v.intervalo)
	parar := make(chan struct{})
	v.ticker = t
	v.parar = parar
	go v.acompanhar(t, parar)
}

// pararPolling exige v.mu.
func (v *Vinculador) pararPolling() {
	if v.ticker == nil {
		return
	}
	v.ticker.Stop()
	close(v.parar)
	v.ticker = nil
	v.parar = nil
}

func (v *Vinculador) acompanhar(t *time.Ticker, parar <-chan struct{}) {
	for {
		select {
		case <-parar:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
			if err := v.Verificar(ctx); err != nil {
				v.log.Debug("falha ao consultar status", zap.Error(err))
			}
			cancel()
		}
	}
}

func (v *Vinculador) ativo() bool {
	return v.estado == Criando || v.estado == AguardandoLeitura || v.estado == Conectado
}

// Verificar consulta o status no gateway e aplica a transição.
func (v *Vinculador) Verificar(ctx context.Context) error {
	status, err := v.gateway.Status(ctx, v.sessao)
	if err != nil {
		return err
	}

	switch status {
	case StatusConectado:
		return v.conectar(ctx)
	case StatusIniciando, StatusLerQR:
		v.mu.Lock()
		if v.estado == Criando {
			v.estado = AguardandoLeitura
		}
		v.mu.Unlock()
	case StatusFalhou:
		v.falhar(ctx, errors.New("WhatsApp session failed"))
	case StatusInterrompido:
		v.mu.Lock()
		if !v.ativo() {
			v.mu.Unlock()
			return nil
		}
		v.pararPolling()
		v.estado = Parado
		v.mu.Unlock()
		v.desvincular(ctx)
	}
	return nil
}

func (v *Vinculador) conectar(ctx context.Context) error {
	v.mu.Lock()
	if !v.ativo() || v.vinculado {
		v.mu.Unlock()
		return nil
	}
	v.mu.Unlock()

	perfil, err := v.gateway.Perfil(ctx, v.sessao)
	if err != nil {
		return err
	}

	v.mu.Lock()
	if !v.ativo() || v.vinculado {
		v.mu.Unlock()
		return nil
	}
	v.pararPolling()
	v.estado = Conectado
	v.perfil = perfil
	v.vinculado = true
	v.mu.Unlock()

	if err := v.notif.Vincular(ctx, perfil.Numero(), v.sessao); err != nil {
		v.log.Warn("falha ao registrar vínculo no backend", zap.Error(err))
		return err
	}
	v.log.Info("whatsapp conectado", zap.String("numero", perfil.Numero()))
	return nil
}

func (v *Vinculador) falhar(ctx context.Context, causa error) {
	v.mu.Lock()
	v.pararPolling()
	v.estado = Parado
	v.erro = causa.Error()
	v.mu.Unlock()
	v.desvincular(ctx)
}

func (v *Vinculador) desvincular(ctx context.Context) {
	v.mu.Lock()
	v.vinculado = false
	v.perfil = Perfil{}
	v.mu.Unlock()
	if err := v.notif.Desvincular(ctx); err != nil {
		v.log.Warn("falha ao remover vínculo no backend", zap.Error(err))
	}
}

// QR devolve a imagem do QR code enquanto a leitura estiver pendente.
func (v *Vinculador) QR(ctx context.Context) (QR, error) {
	if v.Estado() != AguardandoLeitura {
		return QR{}, ErrSemQR
	}
	return v.gateway.QR(ctx, v.sessao)
}

// Parar encerra a sessão no gateway mantendo-a cadastrada.
func (v *Vinculador) Parar(ctx context.Context) error {
	v.mu.Lock()
	v.pararPolling()
	v.mu.Unlock()

	err := v.gateway.Parar(ctx, v.sessao)

	v.mu.Lock()
	v.estado = Parado
	v.mu.Unlock()
	v.desvincular(ctx)
	return err
}

// Excluir remove a sessão do gateway.
func (v *Vinculador) Excluir(ctx context.Context) error {
	v.mu.Lock()
	v.pararPolling()
	v.mu.Unlock()

	err := v.gateway.Excluir(ctx, v.sessao)

	v.mu.Lock()
	v.estado = SemSessao
	v.erro = ""
	v.mu.Unlock()
	v.desvincular(ctx)
	return err
}

// Fechar só para o polling, sem mexer no gateway.
func (v *Vinculador) Fechar() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pararPolling()
}

// Vinculadores guarda um vinculador por usuário.
type Vinculadores struct {
	mu    sync.Mutex
	itens map[uint]*Vinculador
}

func NovosVinculadores() *Vinculadores {
	return &Vinculadores{itens: make(map[uint]*Vinculador)}
}

func (vs *Vinculadores) Obter(userID uint, novo func() *Vinculador) *Vinculador {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	if v, ok := vs.itens[userID]; ok {
		return v
	}
	v := novo()
	vs.itens[userID] = v
	return v
}

// RemoverInativo descarta o vinculador do usuário quando ele não acompanha
// nenhuma sessão. Devolve true se o usuário ficou sem vinculador.
func (vs *Vinculadores) RemoverInativo(userID uint) bool {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	v, ok := vs.itens[userID]
	if !ok {
		return true
	}
	switch v.Estado() {
	case SemSessao, Parado:
		v.Fechar()
		delete(vs.itens, userID)
		return true
	}
	return false
}

// FecharTodos para todos os tickers (desligamento do portal).
func (vs *Vinculadores) FecharTodos() {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	for id, v := range vs.itens {
		v.Fechar()
		delete(vs.itens, id)
	}
}
