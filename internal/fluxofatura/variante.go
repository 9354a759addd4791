package fluxofatura

import (
	"fmt"

	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"github.com/KromaEnergia/portal-ofertas/internal/sessao"
)

// Variante concentra o que muda entre os papéis no envio de fatura:
// o segmento da rota, a marca app_mode e de onde vem o id do grupo.
type Variante struct {
	Role     string
	Segmento string
	AppMode  string
	// GrupoProprio: o group_admin é o dono do grupo, então o id do grupo é o dele.
	GrupoProprio bool
}

var variantes = map[string]Variante{
	auth.RoleAgent:      {Role: auth.RoleAgent, Segmento: "agent"},
	auth.RoleSupervisor: {Role: auth.RoleSupervisor, Segmento: "supervisor"},
	auth.RoleUser:       {Role: auth.RoleUser, Segmento: "user"},
	auth.RoleClient:     {Role: auth.RoleClient, Segmento: "client", AppMode: "client"},
	auth.RoleGroupAdmin: {Role: auth.RoleGroupAdmin, Segmento: auth.Segmento(auth.RoleGroupAdmin), GrupoProprio: true},
}

func VariantePara(role string) (Variante, error) {
	v, ok := variantes[role]
	if !ok {
		return Variante{}, fmt.Errorf("papel sem fluxo de fatura: %q", role)
	}
	return v, nil
}

func (v Variante) Grupo(s sessao.Sessao) uint {
	if v.GrupoProprio && s.GroupID == 0 {
		return s.UserID
	}
	return s.GroupID
}

// PayloadFatura acrescenta aos campos verificados o que a variante exige.
func (v Variante) PayloadFatura(campos map[string]any, s sessao.Sessao) map[string]any {
	out := copiar(campos)
	out["group_id"] = v.Grupo(s)
	if v.AppMode != "" {
		out["app_mode"] = v.AppMode
	}
	return out
}

func copiar(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	return out
}
