package fluxofatura

import (
	"sync"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/sessao"
)

// Fabrica monta o pipeline de um usuário com clientes presos à sessão dele.
type Fabrica func(s sessao.Sessao, store sessao.Store) (*Pipeline, error)

type entrada struct {
	pipeline *Pipeline
	store    sessao.Store
}

// Registry guarda um pipeline por usuário enquanto ele estiver em uso.
type Registry struct {
	mu      sync.Mutex
	itens   map[uint]entrada
	fabrica Fabrica
	idle    time.Duration
	agora   func() time.Time
}

func NovoRegistry(f Fabrica, idle time.Duration) *Registry {
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	return &Registry{
		itens:   make(map[uint]entrada),
		fabrica: f,
		idle:    idle,
		agora:   time.Now,
	}
}

// Obter devolve o pipeline do usuário, criando se preciso, e atualiza o
// token guardado para as próximas chamadas ao backend.
func (r *Registry) Obter(s sessao.Sessao) (*Pipeline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.itens[s.UserID]; ok && e.pipeline.variante.Role == s.Role {
		if err := e.store.Salvar(s); err != nil {
			return nil, err
		}
		return e.pipeline, nil
	}

	store := sessao.NovaMemoria(s)
	p, err := r.fabrica(s, store)
	if err != nil {
		return nil, err
	}
	r.itens[s.UserID] = entrada{pipeline: p, store: store}
	return p, nil
}

// Descartar remove o pipeline (logout, 401 ou reset definitivo).
func (r *Registry) Descartar(userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.itens, userID)
}

// Limpar descarta pipelines sem uso há mais que o tempo ocioso.
func (r *Registry) Limpar() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	limite := r.agora().Add(-r.idle)
	n := 0
	for id, e := range r.itens {
		if e.pipeline.UltimoUso().Before(limite) {
			delete(r.itens, id)
			n++
		}
	}
	return n
}

func (r *Registry) Tamanho() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.itens)
}
