// Package tarefas roda as rotinas periódicas dos dois processos
// (limpeza de refresh tokens vencidos na API, descarte de envios parados no portal).
package tarefas

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Agendador struct {
	cron *cron.Cron
	log  *zap.Logger
	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

func NovoAgendador(log *zap.Logger) *Agendador {
	cl := cron.VerbosePrintfLogger(zap.NewStdLog(log))
	return &Agendador{
		cron: cron.New(cron.WithSeconds(), cron.WithChain(
			cron.SkipIfStillRunning(cl),
			cron.Recover(cl),
		)),
		log:  log,
		jobs: make(map[string]cron.EntryID),
	}
}

func (a *Agendador) Start() {
	a.log.Info("iniciando agendador")
	a.cron.Start()
}

// Stop devolve um contexto que termina quando os jobs em execução acabam.
func (a *Agendador) Stop() context.Context {
	a.log.Info("parando agendador")
	return a.cron.Stop()
}

// AddJob aceita expressões com segundos ("0 */5 * * * *") ou descritores ("@every 5m").
func (a *Agendador) AddJob(nome, expr string, job func()) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.jobs[nome]; ok {
		return fmt.Errorf("job %s já existe", nome)
	}
	id, err := a.cron.AddFunc(expr, func() {
		a.log.Debug("executando job", zap.String("job", nome))
		job()
	})
	if err != nil {
		return fmt.Errorf("adicionar job %s: %w", nome, err)
	}
	a.jobs[nome] = id
	a.log.Info("job agendado", zap.String("job", nome), zap.String("expr", expr))
	return nil
}

func (a *Agendador) RemoveJob(nome string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	id, ok := a.jobs[nome]
	if !ok {
		return fmt.Errorf("job %s não encontrado", nome)
	}
	a.cron.Remove(id)
	delete(a.jobs, nome)
	return nil
}

func (a *Agendador) Nomes() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	nomes := make([]string, 0, len(a.jobs))
	for n := range a.jobs {
		nomes = append(nomes, n)
	}
	sort.Strings(nomes)
	return nomes
}
