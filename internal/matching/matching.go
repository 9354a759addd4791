package matching

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/api"
	"github.com/KromaEnergia/portal-ofertas/internal/config"
	"github.com/KromaEnergia/portal-ofertas/internal/metricas"
	"github.com/KromaEnergia/portal-ofertas/internal/resiliencia"
)

const operacao = "matching"

// Cliente consulta o serviço que cruza a fatura com as ofertas dos fornecedores.
type Cliente struct {
	url      string
	token    string
	http     *http.Client
	exec     *resiliencia.Executor
	metricas *metricas.Metricas
}

func Novo(cfg config.ServicoExternoConfig, exec *resiliencia.Executor, m *metricas.Metricas) *Cliente {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Cliente{
		url:      cfg.URL,
		token:    cfg.Token,
		http:     &http.Client{Timeout: timeout},
		exec:     exec,
		metricas: m,
	}
}

// Ofertas envia os campos verificados com group_id e devolve os objetos
// de oferta ainda sem id.
func (c *Cliente) Ofertas(ctx context.Context, campos map[string]any, groupID uint) ([]map[string]any, error) {
	payload := make(map[string]any, len(campos)+1)
	for k, v := range campos {
		payload[k] = v
	}
	payload["group_id"] = groupID

	var ofertas []map[string]any
	inicio := time.Now()
	err := c.exec.Execute(ctx, operacao, func(ctx context.Context) error {
		var err error
		ofertas, err = c.enviar(ctx, payload)
		return err
	}, api.FalhaDeServidor)
	c.metricas.RegistrarChamada(operacao, time.Since(inicio), err)
	return ofertas, err
}

func (c *Cliente) enviar(ctx context.Context, payload map[string]any) ([]map[string]any, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("montar requisição matching: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chamar matching: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, api.ErroDeServico("matching", resp)
	}
	return decodificar(resp)
}

// decodificar aceita tanto um array puro quanto {"offers": [...]}.
func decodificar(resp *http.Response) ([]map[string]any, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decodificar resposta do matching: %w", err)
	}
	var lista []map[string]any
	if err := json.Unmarshal(raw, &lista); err == nil {
		return lista, nil
	}
	var envelope struct {
		Offers []map[string]any `json:"offers"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("resposta do matching não é uma lista de ofertas")
	}
	return envelope.Offers, nil
}
