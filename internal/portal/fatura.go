package portal

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/KromaEnergia/portal-ofertas/internal/fluxofatura"
	"github.com/KromaEnergia/portal-ofertas/internal/utils"
)

func (s *Servidor) pipeline(w http.ResponseWriter, r *http.Request) (*fluxofatura.Pipeline, bool) {
	ses := sessaoDe(r)
	p, err := s.faturas.Obter(ses)
	if err != nil {
		utils.RespondMessage(w, http.StatusForbidden, err.Error())
		return nil, false
	}
	return p, true
}

// GET /{role}/invoice
func (s *Servidor) EstadoFatura(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipeline(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, p.Estado())
}

// POST /{role}/invoice/upload (multipart, campo "file")
func (s *Servidor) UploadFatura(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipeline(w, r)
	if !ok {
		return
	}

	limite := s.cfg.Storage.MaxUploadSizeMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, limite)
	if err := r.ParseMultipartForm(limite); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			utils.RespondMessage(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		utils.RespondMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	dados, err := io.ReadAll(file)
	if err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "Could not read file")
		return
	}

	campos, err := p.Upload(r.Context(), fluxofatura.Arquivo{Nome: header.Filename, Dados: dados})
	if err != nil {
		s.responderErro(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"step":   fluxofatura.EtapaVerificacao.String(),
		"fields": campos,
	})
}

type submitRequest struct {
	Fields map[string]string `json:"fields"`
}

// POST /{role}/invoice/submit
func (s *Servidor) SubmitFatura(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipeline(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	res, err := p.Submit(r.Context(), req.Fields)
	if err != nil {
		s.responderErro(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"step":       fluxofatura.EtapaOfertas.String(),
		"invoice_id": res.InvoiceID,
		"offers":     comCards(res.Ofertas),
	})
}

// POST /{role}/invoice/reset
func (s *Servidor) ResetFatura(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipeline(w, r)
	if !ok {
		return
	}
	p.Reset()
	utils.RespondJSON(w, http.StatusOK, p.Estado())
}
