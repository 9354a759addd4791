package dashboard

type ResumoDTO struct {
	Faturas              int     `json:"invoices"`
	FaturasComEscolha    int     `json:"invoices_with_selection"`
	Ofertas              int     `json:"offers"`
	OfertasEscolhidas    int     `json:"selected_offers"`
	Contratos            int     `json:"contracts"`
	ContratosAtivos      int     `json:"contracts_active"`
	ContratosPendentes   int     `json:"contracts_pending"`
	ContratosVigentes    int     `json:"contracts_in_force"`
	EconomiaMedia        float64 `json:"average_saving"`
	ComissaoMediaEscolha float64 `json:"average_selected_commission"`
}
