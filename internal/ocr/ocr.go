package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/api"
	"github.com/KromaEnergia/portal-ofertas/internal/config"
	"github.com/KromaEnergia/portal-ofertas/internal/metricas"
	"github.com/KromaEnergia/portal-ofertas/internal/resiliencia"
)

const operacao = "ocr"

// Cliente envia a fatura ao serviço de extração e devolve os campos lidos.
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

// Extrair posta o arquivo como multipart no campo "file". O corpo inteiro
// da resposta é o mapa de campos, sem esquema fixo.
func (c *Cliente) Extrair(ctx context.Context, nome string, dados []byte) (map[string]any, error) {
	var campos map[string]any
	inicio := time.Now()
	err := c.exec.Execute(ctx, operacao, func(ctx context.Context) error {
		var err error
		campos, err = c.enviar(ctx, nome, dados)
		return err
	}, api.FalhaDeServidor)
	c.metricas.RegistrarChamada(operacao, time.Since(inicio), err)
	if err != nil {
		return nil, err
	}
	return campos, nil
}

func (c *Cliente) enviar(ctx context.Context, nome string, dados []byte) (map[string]any, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", nome)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(dados); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &buf)
	if err != nil {
		return nil, fmt.Errorf("montar requisição ocr: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chamar ocr: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, api.ErroDeServico("ocr", resp)
	}
	var campos map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&campos); err != nil {
		return nil, fmt.Errorf("decodificar resposta do ocr: %w", err)
	}
	if len(campos) == 0 {
		return nil, fmt.Errorf("ocr não encontrou campos na fatura")
	}
	return campos, nil
}
