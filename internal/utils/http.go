package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// Validate é o validador compartilhado pelos handlers.
var Validate = validator.New()

// RespondJSON escreve o corpo JSON com o status informado.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// RespondMessage responde {"message": msg}.
func RespondMessage(w http.ResponseWriter, status int, msg string) {
	RespondJSON(w, status, map[string]string{"message": msg})
}

// RespondValidationError traduz os erros do validator em mensagens por campo.
func RespondValidationError(w http.ResponseWriter, err error) {
	campos := map[string]string{}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		RespondMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		nome := toSnake(fe.Field())
		campos[nome] = formatValidationError(nome, fe)
		msgs = append(msgs, campos[nome])
	}
	RespondJSON(w, http.StatusBadRequest, map[string]any{
		"message": strings.Join(msgs, "; "),
		"errors":  campos,
	})
}

func formatValidationError(campo string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", campo)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", campo, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", campo)
	case "min":
		return fmt.Sprintf("%s must have at least %s items", campo, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", campo)
	}
}

func toSnake(s string) string {
	rs := []rune(s)
	var b strings.Builder
	for i, r := range rs {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(rs[i-1]) || (i+1 < len(rs) && unicode.IsLower(rs[i+1]))) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseID lê um id numérico das variáveis da rota.
func ParseID(r *http.Request, nome string) (uint, error) {
	v, err := strconv.ParseUint(mux.Vars(r)[nome], 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("ID inválido")
	}
	return uint(v), nil
}
