package resiliencia

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/config"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrCircuitoAberto indica que o serviço externo está suspenso após falhas seguidas.
var ErrCircuitoAberto = errors.New("serviço temporariamente indisponível, tente novamente em instantes")

// Classificador diz se o erro conta como falha do serviço externo.
// Erros de validação (4xx) e cancelamentos do usuário não abrem o circuito.
type Classificador func(err error) bool

// Executor mantém um circuit breaker por operação. Não há retry: o envio é
// refeito apenas pelo usuário.
type Executor struct {
	cfg Config
	log *zap.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

type Config struct {
	MinRequests     uint32
	FailureRatio    float64
	OpenTimeout     time.Duration
	HalfOpenMaxCall uint32
}

func DeConfig(c config.BreakerConfig) Config {
	return Config{
		MinRequests:  c.MinRequests,
		FailureRatio: c.FailureRatio,
		OpenTimeout:  c.OpenTimeout,
	}
}

func (c Config) normalize() Config {
	if c.MinRequests == 0 {
		c.MinRequests = 5
	}
	if c.FailureRatio <= 0 || c.FailureRatio > 1 {
		c.FailureRatio = 0.6
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.HalfOpenMaxCall == 0 {
		c.HalfOpenMaxCall = 1
	}
	return c
}

func NovoExecutor(cfg Config, log *zap.Logger) *Executor {
	return &Executor{
		cfg:      cfg.normalize(),
		log:      log,
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

func (e *Executor) Execute(ctx context.Context, operacao string, fn func(context.Context) error, falha Classificador) error {
	if fn == nil {
		return fmt.Errorf("resiliencia: callback nil")
	}
	op := strings.TrimSpace(operacao)
	if op == "" {
		op = "desconhecida"
	}
	if falha == nil {
		falha = FalhaPadrao
	}

	_, err := e.breaker(op, falha).Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	if IsCircuitOpen(err) {
		return fmt.Errorf("%s: %w", op, ErrCircuitoAberto)
	}
	return err
}

func (e *Executor) breaker(op string, falha Classificador) *gobreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if b, ok := e.breakers[op]; ok {
		return b
	}

	b := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        op,
		MaxRequests: e.cfg.HalfOpenMaxCall,
		Timeout:     e.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < e.cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= e.cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !falha(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			e.log.Warn("circuit breaker mudou de estado",
				zap.String("operacao", name),
				zap.String("de", from.String()),
				zap.String("para", to.String()),
			)
		},
	})
	e.breakers[op] = b
	return b
}

// Estado devolve o estado atual do breaker da operação ("closed" se nunca usado).
func (e *Executor) Estado(op string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok := e.breakers[op]; ok {
		return b.State().String()
	}
	return gobreaker.StateClosed.String()
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// FalhaPadrao ignora cancelamentos; o resto conta como falha.
func FalhaPadrao(err error) bool {
	return !errors.Is(err, context.Canceled)
}
