package sessao

import "sync"

// Sessao é a identidade do usuário logado no portal.
type Sessao struct {
	Token   string `json:"token"`
	Role    string `json:"role"`
	UserID  uint   `json:"userId"`
	Email   string `json:"email"`
	GroupID uint   `json:"groupId"`
}

func (s Sessao) Autenticada() bool {
	return s.Token != "" && s.UserID != 0
}

// Store guarda a sessão corrente. Limpar é idempotente.
type Store interface {
	Carregar() (Sessao, bool)
	Salvar(s Sessao) error
	Limpar() error
}

type Memoria struct {
	mu sync.RWMutex
	s  *Sessao
}

func NovaMemoria(s Sessao) *Memoria {
	m := &Memoria{}
	if s.Autenticada() {
		m.s = &s
	}
	return m
}

func (m *Memoria) Carregar() (Sessao, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.s == nil {
		return Sessao{}, false
	}
	return *m.s, true
}

func (m *Memoria) Salvar(s Sessao) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = &s
	return nil
}

func (m *Memoria) Limpar() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}
