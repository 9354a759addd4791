package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

type ctxKey string

const (
	CtxUserID  ctxKey = "usuarioID"
	CtxRole    ctxKey = "role"
	CtxGroupID ctxKey = "groupID"
	CtxEmail   ctxKey = "email"
	CtxToken   ctxKey = "token"
)

// MiddlewareAutenticacao exige um bearer token válido e injeta a identidade no contexto.
func MiddlewareAutenticacao(v Validador) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			h := r.Header.Get("Authorization")
			if h == "" || !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "Token ausente", http.StatusUnauthorized)
				return
			}
			raw := strings.TrimPrefix(h, "Bearer ")
			claims, err := v.ParseAndValidate(raw)
			if err != nil {
				http.Error(w, "Token inválido", http.StatusUnauthorized)
				return
			}
			ctx := ComIdentidade(r.Context(), claims.Identidade())
			ctx = context.WithValue(ctx, CtxToken, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ComIdentidade(ctx context.Context, id Identidade) context.Context {
	ctx = context.WithValue(ctx, CtxUserID, id.UserID)
	ctx = context.WithValue(ctx, CtxRole, id.Role)
	ctx = context.WithValue(ctx, CtxGroupID, id.GroupID)
	return context.WithValue(ctx, CtxEmail, id.Email)
}

// IdentidadeDe lê a identidade gravada pelo middleware.
func IdentidadeDe(ctx context.Context) (Identidade, bool) {
	userID, ok := ctx.Value(CtxUserID).(uint)
	if !ok {
		return Identidade{}, false
	}
	role, _ := ctx.Value(CtxRole).(string)
	groupID, _ := ctx.Value(CtxGroupID).(uint)
	email, _ := ctx.Value(CtxEmail).(string)
	return Identidade{UserID: userID, Role: role, GroupID: groupID, Email: email}, true
}

// TokenDe devolve o bearer token bruto da requisição.
func TokenDe(ctx context.Context) string {
	t, _ := ctx.Value(CtxToken).(string)
	return t
}

// RequireRole libera apenas os papéis informados.
func RequireRole(roles ...string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentidadeDe(r.Context())
			if !ok {
				http.Error(w, "não autenticado", http.StatusUnauthorized)
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
}

// RequireSegmento confere o {role} da rota com o papel do token.
// Na API o group_admin usa o segmento "group"; no portal usa o próprio nome.
func RequireSegmento(segmento func(role string) string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentidadeDe(r.Context())
			if !ok {
				http.Error(w, "não autenticado", http.StatusUnauthorized)
				return
			}
			if mux.Vars(r)["role"] != segmento(id.Role) {
				http.Error(w, "acesso negado", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
