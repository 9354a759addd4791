package metricas

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsaTemplateDaRota(t *testing.T) {
	m := New("api")

	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/api/{role}/invoices/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/agent/invoices/42")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	m.RegistrarEtapa("upload", nil)
	m.RegistrarChamada("ocr", time.Second, errors.New("x"))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	out := string(body)
	assert.Contains(t, out, `path="/api/{role}/invoices/{id}"`)
	assert.Contains(t, out, `status="418"`)
	assert.Contains(t, out, `ofertas_pipeline_stage_total{result="ok",service="api",stage="upload"} 1`)
	assert.Contains(t, out, `ofertas_external_calls_total{result="error",service="api",target="ocr"} 1`)
}

func TestNilSeguro(t *testing.T) {
	var m *Metricas
	assert.NotPanics(t, func() {
		m.RegistrarEtapa("upload", nil)
		m.RegistrarChamada("ocr", 0, nil)
	})
}
