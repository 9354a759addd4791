package exportacao

import (
	"bytes"
	"strings"
)

// BOM faz o Excel abrir o CSV como UTF-8.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// CSV escreve o cabeçalho e uma linha por registro. Toda célula vai entre
// aspas e as linhas terminam em "\n".
func CSV(registros []map[string]any) []byte {
	colunas, linhas := Colunas(registros)
	var buf bytes.Buffer
	escreverLinha(&buf, colunas)
	celulas := make([]string, len(colunas))
	for _, l := range linhas {
		for i, c := range colunas {
			celulas[i] = l[c]
		}
		escreverLinha(&buf, celulas)
	}
	return buf.Bytes()
}

// Excel é o mesmo CSV com BOM, servido como .xls.
func Excel(registros []map[string]any) []byte {
	return append(append([]byte{}, BOM...), CSV(registros)...)
}

func escreverLinha(buf *bytes.Buffer, celulas []string) {
	for i, c := range celulas {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(c, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}
