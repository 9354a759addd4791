package exportacao

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ledongthuc/pdf"
)

const (
	margem       = 15.0
	alturaTitulo = 8.0
	alturaFaixa  = 7.0
	alturaLinha  = 6.0
	espacoBloco  = 4.0
)

// PDF monta o relatório com cursor vertical manual. Quando o próximo bloco
// não cabe, abre nova página e repete o cabeçalho; um bloco maior que a
// página continua na seguinte com a faixa marcada "(cont.)". Cada registro é
// um bloco com faixa de título e pares chave/valor em duas colunas.
func PDF(titulo string, registros []map[string]any, agora time.Time) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(margem, margem, margem)
	doc.SetAutoPageBreak(false, 0)
	doc.SetTitle(titulo, true)
	doc.SetCreator("portal-ofertas", true)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	largura, altura := doc.GetPageSize()
	util := largura - 2*margem
	coluna := util / 2
	limite := altura - margem

	var y, topo float64
	novaPagina := func() {
		doc.AddPage()
		doc.SetFont("Helvetica", "B", 14)
		doc.SetTextColor(20, 20, 20)
		doc.SetXY(margem, margem)
		doc.CellFormat(util, alturaTitulo, tr(titulo), "", 1, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 9)
		doc.SetTextColor(110, 110, 110)
		doc.CellFormat(util, 5, tr(fmt.Sprintf("Generated %s | %d record(s)", agora.Format("02/01/2006 15:04"), len(registros))), "B", 1, "L", false, 0, "")
		y = doc.GetY() + espacoBloco
		topo = y
	}
	faixa := func(texto string) {
		doc.SetFillColor(232, 240, 250)
		doc.SetFont("Helvetica", "B", 10)
		doc.SetTextColor(20, 20, 20)
		doc.SetXY(margem, y)
		doc.CellFormat(util, alturaFaixa, tr(texto), "", 1, "L", true, 0, "")
		y += alturaFaixa
	}
	novaPagina()

	for i, r := range registros {
		pares := CamposVisiveis(r)
		linhas := (len(pares) + 1) / 2
		bloco := alturaFaixa + float64(linhas)*alturaLinha + espacoBloco
		if y+bloco > limite && y > topo {
			novaPagina()
		}

		nome := fmt.Sprintf("%d. %s", i+1, rotuloBloco(r))
		faixa(nome)

		for l := 0; l < linhas; l++ {
			if y+alturaLinha > limite {
				novaPagina()
				faixa(nome + " (cont.)")
			}
			for c := 0; c < 2; c++ {
				idx := l*2 + c
				if idx >= len(pares) {
					break
				}
				x := margem + float64(c)*coluna
				escreverPar(doc, tr, x, y, coluna, pares[idx])
			}
			y += alturaLinha
		}
		y += espacoBloco
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("gerar pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func escreverPar(doc *fpdf.Fpdf, tr func(string) string, x, y, largura float64, p Par) {
	chave := largura * 0.45
	doc.SetXY(x, y)
	doc.SetFont("Helvetica", "B", 8)
	doc.SetTextColor(80, 80, 80)
	doc.CellFormat(chave, alturaLinha, cortar(doc, tr(p.Chave), chave-1), "", 0, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 8)
	doc.SetTextColor(20, 20, 20)
	doc.CellFormat(largura-chave, alturaLinha, cortar(doc, tr(p.Valor), largura-chave-1), "", 0, "L", false, 0, "")
}

// cortar reduz o texto até caber na célula, terminando em "...".
func cortar(doc *fpdf.Fpdf, s string, largura float64) string {
	if doc.GetStringWidth(s) <= largura {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && doc.GetStringWidth(string(r)+"...") > largura {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func rotuloBloco(r map[string]any) string {
	for _, k := range []string{"supplier", "supplier_name", "provider", "name"} {
		if v, ok := r[k]; ok {
			if s := texto(v); s != "" {
				return s
			}
		}
	}
	return "Offer"
}

// ContarPaginas lê o PDF gerado e devolve o número de páginas.
func ContarPaginas(b []byte) (int, error) {
	r, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}
