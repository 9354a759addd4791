// Package api é o único cliente HTTP do portal para a API interna.
// Todo 401 passa por aqui: a sessão é limpa e o redirecionamento para o
// login é disparado uma vez por resposta.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/sessao"
	"github.com/google/uuid"
)

const RotaLogin = "/login"

var ErrNaoAutorizado = errors.New("sessão expirada, faça login novamente")

// HTTPError é uma resposta não-2xx do backend ou de um serviço externo.
// Servico vazio indica a API interna.
type HTTPError struct {
	Status  int
	Message string
	Servico string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// ErroSessao é o 401 da API interna; só Client.Do o produz.
type ErroSessao struct {
	*HTTPError
}

func (e *ErroSessao) Unwrap() error { return e.HTTPError }

func (e *ErroSessao) Is(target error) bool { return target == ErrNaoAutorizado }

// ErroDeResposta lê o corpo de uma resposta de erro. A mensagem vem de
// "message", depois "error", depois do texto puro; sem nada usa uma genérica.
func ErroDeResposta(resp *http.Response) *HTTPError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &HTTPError{Status: resp.StatusCode, Message: MensagemDeErro(resp.StatusCode, body)}
}

// ErroDeServico é o ErroDeResposta de um serviço externo (ocr, matching, gateway).
func ErroDeServico(servico string, resp *http.Response) *HTTPError {
	e := ErroDeResposta(resp)
	e.Servico = servico
	return e
}

func MensagemDeErro(status int, body []byte) string {
	var obj map[string]any
	if json.Unmarshal(body, &obj) == nil {
		for _, k := range []string{"message", "error"} {
			if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	} else if s := strings.TrimSpace(string(body)); s != "" && !strings.HasPrefix(s, "<") {
		return s
	}
	return fmt.Sprintf("Request failed with status %d", status)
}

// FalhaDeServidor é o classificador do circuit breaker: erros 4xx e
// cancelamentos não contam como falha do serviço.
func FalhaDeServidor(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status >= 500 || he.Status == http.StatusTooManyRequests
	}
	return true
}

type Client struct {
	baseURL        string
	http           *http.Client
	store          sessao.Store
	onUnauthorized func(destino string)
}

type Opcao func(*Client)

// ComRedirecionamento registra quem trata o 401 (limpa o estado do portal e
// manda o usuário para o login).
func ComRedirecionamento(fn func(destino string)) Opcao {
	return func(c *Client) { c.onUnauthorized = fn }
}

func Novo(baseURL string, httpClient *http.Client, store sessao.Store, opts ...Opcao) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		store:   store,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Do envia body como JSON e decodifica a resposta em out (quando não nil).
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("codificar requisição: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s, ok := c.store.Carregar(); ok {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		herr := ErroDeResposta(resp)
		c.naoAutorizado()
		return &ErroSessao{HTTPError: herr}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ErroDeResposta(resp)
	}
	if out == nil {
		return nil
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ler resposta: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decodificar resposta de %s: %w", path, err)
	}
	return nil
}

func (c *Client) naoAutorizado() {
	_ = c.store.Limpar()
	if c.onUnauthorized != nil {
		c.onUnauthorized(RotaLogin)
	}
}
