package usuario

// LoginRequest é usado em POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateUsuarioRequest é usado em POST /auth/register e POST /api/group/users
type CreateUsuarioRequest struct {
	Nome      string `json:"nome" validate:"required"`
	Sobrenome string `json:"sobrenome"`
	Email     string `json:"email" validate:"required,email"`
	Telefone  string `json:"telefone"`
	Senha     string `json:"senha" validate:"required,min=8"`
	Role      string `json:"role" validate:"omitempty,oneof=agent supervisor group_admin client user"`
}

// UsuarioCriadoResponse devolve a senha sorteada quando o admin não informa uma.
type UsuarioCriadoResponse struct {
	*Usuario
	SenhaTemporaria string `json:"temporaryPassword,omitempty"`
}

// UpdateUsuarioRequest é usado em PUT /api/{role}/me
// Campos como ponteiro permitem omitir no JSON o que não muda
type UpdateUsuarioRequest struct {
	Nome      *string `json:"nome,omitempty"`
	Sobrenome *string `json:"sobrenome,omitempty"`
	Telefone  *string `json:"telefone,omitempty"`
}

// VinculoWhatsappRequest é enviado pelo portal quando a sessão conecta.
type VinculoWhatsappRequest struct {
	Number  string `json:"number" validate:"required"`
	Session string `json:"session" validate:"required"`
}
