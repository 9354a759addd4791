package fluxofatura

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Campo é um input do formulário de verificação.
type Campo struct {
	Chave       string `json:"key"`
	Rotulo      string `json:"label"`
	Valor       string `json:"value"`
	Obrigatorio bool   `json:"required"`
}

// GerarFormulario cria um campo por chave de primeiro nível cujo valor não é
// nulo nem objeto (mapas e listas contam como objeto). A chave "id" aparece
// normalmente; só as exportações escondem chaves internas.
func GerarFormulario(campos map[string]any) []Campo {
	out := make([]Campo, 0, len(campos))
	for k, v := range campos {
		if !renderizavel(v) {
			continue
		}
		out = append(out, Campo{
			Chave:       k,
			Rotulo:      Rotulo(k),
			Valor:       Texto(v),
			Obrigatorio: true,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chave < out[j].Chave })
	return out
}

func renderizavel(v any) bool {
	switch v.(type) {
	case nil, map[string]any, []any:
		return false
	}
	return true
}

// Texto converte um valor escalar para o que aparece no input.
func Texto(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

// Rotulo transforma snake_case e camelCase em "Title Case".
func Rotulo(chave string) string {
	var palavras []string
	var atual []rune
	rs := []rune(chave)
	flush := func() {
		if len(atual) > 0 {
			palavras = append(palavras, string(atual))
			atual = atual[:0]
		}
	}
	for i, r := range rs {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			flush()
		case unicode.IsUpper(r) && i > 0 && (unicode.IsLower(rs[i-1]) || unicode.IsDigit(rs[i-1]) ||
			(i+1 < len(rs) && unicode.IsLower(rs[i+1]) && unicode.IsUpper(rs[i-1]))):
			flush()
			atual = append(atual, r)
		default:
			atual = append(atual, r)
		}
	}
	flush()
	// Caser guarda estado; um por chamada.
	return cases.Title(language.English).String(strings.Join(palavras, " "))
}
