package auth

const (
	RoleAgent      = "agent"
	RoleSupervisor = "supervisor"
	RoleGroupAdmin = "group_admin"
	RoleClient     = "client"
	RoleUser       = "user"
)

// Roles lista os papéis aceitos nas rotas /{role}/*.
var Roles = []string{RoleAgent, RoleSupervisor, RoleGroupAdmin, RoleClient, RoleUser}

func RoleValido(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Segmento devolve o trecho de rota /api/{segmento}/ usado pelo papel.
// group_admin conversa com a API pelo segmento "group".
func Segmento(role string) string {
	if role == RoleGroupAdmin {
		return "group"
	}
	return role
}

// VeGrupo indica papéis que enxergam os registros do grupo inteiro.
func VeGrupo(role string) bool {
	return role == RoleSupervisor || role == RoleGroupAdmin
}
