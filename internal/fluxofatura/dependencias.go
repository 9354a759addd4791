package fluxofatura

import "context"

//go:generate mockgen -source=dependencias.go -destination=dependencias_mock.go -package=fluxofatura

// Backend é a parte da API interna usada pelo envio de fatura.
type Backend interface {
	PlanoAtivo(ctx context.Context) error
	CriarFatura(ctx context.Context, segmento string, campos map[string]any) (uint, error)
	CriarOfertas(ctx context.Context, invoiceID, groupID uint, ofertas []map[string]any) ([]map[string]any, error)
}

// Extrator lê a fatura (serviço de OCR).
type Extrator interface {
	Extrair(ctx context.Context, nome string, dados []byte) (map[string]any, error)
}

// Matcher cruza os campos verificados com as ofertas dos fornecedores.
type Matcher interface {
	Ofertas(ctx context.Context, campos map[string]any, groupID uint) ([]map[string]any, error)
}
