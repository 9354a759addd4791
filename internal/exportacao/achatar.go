// Package exportacao gera os arquivos de ofertas e faturas baixados no portal
// (CSV, Excel, XLSX e PDF) e os campos exibidos nos cards.
package exportacao

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// ChavesInternas ficam fora dos cards e do PDF. CSV e Excel mantêm tudo.
var ChavesInternas = map[string]bool{
	"user_id":    true,
	"invoice_id": true,
	"created_at": true,
	"updated_at": true,
	"id":         true,
	"Client_id":  true,
}

// Par é uma linha chave/valor de um card ou de um bloco do PDF.
type Par struct {
	Chave string `json:"key"`
	Valor string `json:"value"`
}

// Achatar converte objetos aninhados em chaves pontuadas ("tarifa.valor").
// Listas viram índices ("itens.0"). A ordem devolvida é a das chaves ordenadas.
func Achatar(registro map[string]any) ([]string, map[string]string) {
	out := make(map[string]string)
	achatar("", registro, out)
	chaves := make([]string, 0, len(out))
	for k := range out {
		chaves = append(chaves, k)
	}
	sort.Strings(chaves)
	return chaves, out
}

func achatar(prefixo string, v any, out map[string]string) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 && prefixo != "" {
			out[prefixo] = ""
		}
		for k, filho := range t {
			achatar(juntar(prefixo, k), filho, out)
		}
	case []any:
		if len(t) == 0 && prefixo != "" {
			out[prefixo] = ""
		}
		for i, filho := range t {
			achatar(juntar(prefixo, strconv.Itoa(i)), filho, out)
		}
	default:
		if prefixo != "" {
			out[prefixo] = texto(t)
		}
	}
}

func juntar(prefixo, chave string) string {
	if prefixo == "" {
		return chave
	}
	return prefixo + "." + chave
}

func texto(v any) string {
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
	default:
		return fmt.Sprint(t)
	}
}

// Colunas é a união das chaves achatadas na ordem em que aparecem.
func Colunas(registros []map[string]any) ([]string, []map[string]string) {
	var colunas []string
	vistas := make(map[string]bool)
	linhas := make([]map[string]string, 0, len(registros))
	for _, r := range registros {
		chaves, valores := Achatar(r)
		for _, k := range chaves {
			if !vistas[k] {
				vistas[k] = true
				colunas = append(colunas, k)
			}
		}
		linhas = append(linhas, valores)
	}
	return colunas, linhas
}

// CamposVisiveis devolve os pares exibidos no card, sem as chaves internas.
func CamposVisiveis(registro map[string]any) []Par {
	chaves, valores := Achatar(registro)
	out := make([]Par, 0, len(chaves))
	for _, k := range chaves {
		if interna(k) {
			continue
		}
		out = append(out, Par{Chave: k, Valor: valores[k]})
	}
	return out
}

func interna(chave string) bool {
	return ChavesInternas[chave]
}
