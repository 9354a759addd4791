package exportacao

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const abaOfertas = "Offers"

// XLSX gera uma planilha de verdade com as mesmas colunas do CSV.
func XLSX(registros []map[string]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", abaOfertas); err != nil {
		return nil, err
	}

	colunas, linhas := Colunas(registros)
	cab := make([]any, len(colunas))
	for i, c := range colunas {
		cab[i] = c
	}
	if err := f.SetSheetRow(abaOfertas, "A1", &cab); err != nil {
		return nil, err
	}

	estilo, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if len(colunas) > 0 {
		fim, _ := excelize.CoordinatesToCellName(len(colunas), 1)
		if err := f.SetCellStyle(abaOfertas, "A1", fim, estilo); err != nil {
			return nil, err
		}
	}

	for i, l := range linhas {
		linha := make([]any, len(colunas))
		for j, c := range colunas {
			linha[j] = l[c]
		}
		celula, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(abaOfertas, celula, &linha); err != nil {
			return nil, fmt.Errorf("linha %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
