// Package whatsapp fala com o gateway hospedado de WhatsApp: vínculo da
// sessão por QR code e envio das ofertas em PDF.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/api"
	"github.com/KromaEnergia/portal-ofertas/internal/config"
	"github.com/KromaEnergia/portal-ofertas/internal/metricas"
	"github.com/KromaEnergia/portal-ofertas/internal/resiliencia"
)

const operacao = "whatsapp"

// Status devolvidos pelo gateway para uma sessão.
const (
	StatusIniciando    = "STARTING"
	StatusLerQR        = "SCAN_QR_CODE"
	StatusConectado    = "WORKING"
	StatusFalhou       = "FAILED"
	StatusInterrompido = "STOPPED"
)

var naoAlfanumerico = regexp.MustCompile(`[^a-z0-9]+`)

// NomeSessao deriva o nome da sessão no gateway a partir do e-mail do usuário.
func NomeSessao(email string) string {
	return strings.Trim(naoAlfanumerico.ReplaceAllString(strings.ToLower(email), "_"), "_")
}

// ChatID monta o destino "<número>@c.us" só com os dígitos informados.
func ChatID(numero string) string {
	var b strings.Builder
	for _, r := range numero {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String() + "@c.us"
}

// Perfil é a conta conectada na sessão.
type Perfil struct {
	ID       string `json:"id"`
	PushName string `json:"pushName"`
}

// Numero tira o sufixo "@c.us" do id.
func (p Perfil) Numero() string {
	n, _, _ := strings.Cut(p.ID, "@")
	return n
}

type QR struct {
	Mimetype string `json:"mimetype"`
	Data     string `json:"data"`
}

type arquivoEnvio struct {
	Data     string `json:"data"`
	Filename string `json:"filename"`
	Mimetype string `json:"mimeType"`
}

type envio struct {
	ChatID  string       `json:"chatId"`
	Caption string       `json:"caption"`
	Session string       `json:"session"`
	File    arquivoEnvio `json:"file"`
}

// Gateway é o cliente HTTP do gateway de WhatsApp.
type Gateway struct {
	base     string
	apiKey   string
	http     *http.Client
	exec     *resiliencia.Executor
	metricas *metricas.Metricas
}

func NovoGateway(cfg config.WhatsappConfig, exec *resiliencia.Executor, m *metricas.Metricas) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{
		base:     strings.TrimRight(cfg.GatewayURL, "/"),
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
		exec:     exec,
		metricas: m,
	}
}

func (g *Gateway) CriarSessao(ctx context.Context, sessao string) error {
	return g.chamar(ctx, http.MethodPost, "/api/sessions", map[string]any{"name": sessao, "start": true}, nil)
}

func (g *Gateway) Status(ctx context.Context, sessao string) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := g.chamar(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(sessao), nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

func (g *Gateway) QR(ctx context.Context, sessao string) (QR, error) {
	var out QR
	err := g.chamar(ctx, http.MethodGet, "/api/"+url.PathEscape(sessao)+"/auth/qr?format=image", nil, &out)
	return out, err
}

func (g *Gateway) Perfil(ctx context.Context, sessao string) (Perfil, error) {
	var out Perfil
	err := g.chamar(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(sessao)+"/me", nil, &out)
	return out, err
}

func (g *Gateway) Parar(ctx context.Context, sessao string) error {
	return g.chamar(ctx, http.MethodPost, "/api/sessions/"+url.PathEscape(sessao)+"/stop", nil, nil)
}

func (g *Gateway) Excluir(ctx context.Context, sessao string) error {
	return g.chamar(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(sessao), nil, nil)
}

func (g *Gateway) enviarArquivo(ctx context.Context, e envio) error {
	return g.chamar(ctx, http.MethodPost, "/api/sendFile", e, nil)
}

func (g *Gateway) chamar(ctx context.Context, method, path string, body, out any) error {
	inicio := time.Now()
	err := g.exec.Execute(ctx, operacao, func(ctx context.Context) error {
		return g.fazer(ctx, method, path, body, out)
	}, api.FalhaDeServidor)
	g.metricas.RegistrarChamada(operacao, time.Since(inicio), err)
	return err
}

func (g *Gateway) fazer(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.base+path, rdr)
	if err != nil {
		return fmt.Errorf("montar requisição whatsapp: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.apiKey != "" {
		req.Header.Set("X-Api-Key", g.apiKey)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("chamar gateway whatsapp: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return api.ErroDeServico("whatsapp", resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decodificar resposta do whatsapp: %w", err)
	}
	return nil
}
