package exportacao

import (
	"fmt"
	"time"
)

type Formato string

const (
	FormatoCSV   Formato = "csv"
	FormatoExcel Formato = "excel"
	FormatoXLSX  Formato = "xlsx"
	FormatoPDF   Formato = "pdf"
)

// Arquivo é o download pronto para o handler. Paginas só vem preenchido no PDF.
type Arquivo struct {
	Nome        string
	ContentType string
	Dados       []byte
	Paginas     int
}

// Gerar escolhe o gerador pelo formato pedido na URL.
func Gerar(f Formato, base, titulo string, registros []map[string]any, agora time.Time) (Arquivo, error) {
	switch f {
	case FormatoCSV:
		return Arquivo{Nome: base + ".csv", ContentType: "text/csv; charset=utf-8", Dados: CSV(registros)}, nil
	case FormatoExcel:
		return Arquivo{Nome: base + ".xls", ContentType: "application/vnd.ms-excel", Dados: Excel(registros)}, nil
	case FormatoXLSX:
		b, err := XLSX(registros)
		if err != nil {
			return Arquivo{}, err
		}
		return Arquivo{Nome: base + ".xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Dados: b}, nil
	case FormatoPDF:
		b, err := PDF(titulo, registros, agora)
		if err != nil {
			return Arquivo{}, err
		}
		paginas, err := ContarPaginas(b)
		if err != nil {
			return Arquivo{}, fmt.Errorf("contar páginas: %w", err)
		}
		return Arquivo{Nome: base + ".pdf", ContentType: "application/pdf", Dados: b, Paginas: paginas}, nil
	default:
		return Arquivo{}, fmt.Errorf("formato desconhecido: %q", f)
	}
}
