package dashboard

import (
	"math"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/contrato"
	"github.com/KromaEnergia/portal-ofertas/internal/fatura"
	"github.com/KromaEnergia/portal-ofertas/internal/oferta"
)

// MontarResumo calcula os números do painel a partir dos registros visíveis.
func MontarResumo(faturas []fatura.Fatura, ofertas []oferta.Oferta, contratos []contrato.Contrato, agora time.Time) ResumoDTO {
	r := ResumoDTO{
		Faturas:   len(faturas),
		Ofertas:   len(ofertas),
		Contratos: len(contratos),
	}

	for _, f := range faturas {
		if f.IsOfferSelected {
			r.FaturasComEscolha++
		}
	}

	var somaEconomia, somaComissao float64
	for _, o := range ofertas {
		somaEconomia += o.Saving
		if o.IsSelected {
			r.OfertasEscolhidas++
			somaComissao += o.SalesCommission
		}
	}
	if len(ofertas) > 0 {
		r.EconomiaMedia = arredondar(somaEconomia / float64(len(ofertas)))
	}
	if r.OfertasEscolhidas > 0 {
		r.ComissaoMediaEscolha = arredondar(somaComissao / float64(r.OfertasEscolhidas))
	}

	for _, c := range contratos {
		switch c.Status {
		case contrato.StatusActive:
			r.ContratosAtivos++
		case contrato.StatusPending:
			r.ContratosPendentes++
		}
		if !agora.Before(c.StartDate) && agora.Before(c.ClosureDate) {
			r.ContratosVigentes++
		}
	}
	return r
}

func arredondar(v float64) float64 {
	return math.Round(v*100) / 100
}
