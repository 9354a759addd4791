package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/utils/db/dbtest"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func novasChaves(t *testing.T) *Chaves {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return NovasChaves(priv, "kid-1", "portal-ofertas", "portal", time.Minute)
}

func TestGenerateAndValidate(t *testing.T) {
	c := novasChaves(t)

	tok, err := c.GenerateAccessToken(Identidade{UserID: 7, Role: RoleAgent, GroupID: 3, Email: "a@b.com"})
	require.NoError(t, err)

	claims, err := c.ParseAndValidate(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, RoleAgent, claims.Role)
	assert.Equal(t, uint(3), claims.GroupID)
	assert.Equal(t, "a@b.com", claims.Email)
}

func TestGenerateRejectsUnknownRole(t *testing.T) {
	c := novasChaves(t)
	_, err := c.GenerateAccessToken(Identidade{UserID: 1, Role: "root"})
	require.Error(t, err)
}

func TestValidateRejectsForeignKey(t *testing.T) {
	emissor := novasChaves(t)
	outro := novasChaves(t)

	tok, err := emissor.GenerateAccessToken(Identidade{UserID: 1, Role: RoleUser})
	require.NoError(t, err)

	_, err = outro.ParseAndValidate(tok)
	require.Error(t, err)
}

func TestSegmento(t *testing.T) {
	assert.Equal(t, "group", Segmento(RoleGroupAdmin))
	assert.Equal(t, "agent", Segmento(RoleAgent))
	assert.Equal(t, "client", Segmento(RoleClient))
}

func TestMiddlewareSegmento(t *testing.T) {
	c := novasChaves(t)

	r := mux.NewRouter()
	api := r.PathPrefix("/api/{role}").Subrouter()
	api.Use(MiddlewareAutenticacao(c), RequireSegmento(Segmento))
	api.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentidadeDe(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(id.Role))
	})

	tests := []struct {
		name   string
		role   string
		path   string
		bearer bool
		want   int
	}{
		{"group admin usa segmento group", RoleGroupAdmin, "/api/group/ping", true, http.StatusOK},
		{"group admin no segmento errado", RoleGroupAdmin, "/api/group_admin/ping", true, http.StatusForbidden},
		{"agente", RoleAgent, "/api/agent/ping", true, http.StatusOK},
		{"cliente em rota de agente", RoleClient, "/api/agent/ping", true, http.StatusForbidden},
		{"sem token", RoleAgent, "/api/agent/ping", false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.bearer {
				tok, err := c.GenerateAccessToken(Identidade{UserID: 1, Role: tt.role, GroupID: 1})
				require.NoError(t, err)
				req.Header.Set("Authorization", "Bearer "+tok)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(RoleGroupAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ComIdentidade(req.Context(), Identidade{UserID: 1, Role: RoleAgent}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = req.WithContext(ComIdentidade(req.Context(), Identidade{UserID: 1, Role: RoleGroupAdmin}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRefreshRotation(t *testing.T) {
	db := dbtest.Novo(t, &RefreshToken{})
	s := NovasSessoes(db, novasChaves(t), time.Hour, false)

	rec := httptest.NewRecorder()
	resp, err := s.IssueTokensOnLogin(rec, Identidade{UserID: 4, Role: RoleSupervisor, GroupID: 2})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	s.RefreshHTTPHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var novo RespostaToken
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&novo))
	assert.Equal(t, RoleSupervisor, novo.Role)
	claims, err := s.Chaves.ParseAndValidate(novo.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(2), claims.GroupID)

	// o refresh antigo foi revogado
	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	s.RefreshHTTPHandler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWKSHandler(t *testing.T) {
	c := novasChaves(t)
	rec := httptest.NewRecorder()
	c.JWKSHandler(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))

	var body struct {
		Keys []jwk `json:"keys"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Keys, 1)
	assert.Equal(t, "kid-1", body.Keys[0].Kid)
	assert.Equal(t, "RS256", body.Keys[0].Alg)
}

func TestValidadorRemoto(t *testing.T) {
	c := novasChaves(t)
	srv := httptest.NewServer(http.HandlerFunc(c.JWKSHandler))
	defer srv.Close()

	v, err := NovoValidadorRemoto(srv.URL, c.Issuer(), c.Audience(), zap.NewNop())
	require.NoError(t, err)
	defer v.Fechar()

	tok, err := c.GenerateAccessToken(Identidade{UserID: 9, Role: RoleClient})
	require.NoError(t, err)
	claims, err := v.ParseAndValidate(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.UserID)
}

func TestPurgarRefreshTokens(t *testing.T) {
	db := dbtest.Novo(t, &RefreshToken{})
	agora := time.Now()
	revogado := agora.Add(-2 * time.Hour)
	require.NoError(t, db.Create(&[]RefreshToken{
		{UserID: 1, Hash: "a", ExpiresAt: agora.Add(-time.Hour)},
		{UserID: 1, Hash: "b", ExpiresAt: agora.Add(time.Hour), RevokedAt: &revogado},
		{UserID: 1, Hash: "c", ExpiresAt: agora.Add(time.Hour)},
	}).Error)

	n, err := PurgarRefreshTokens(db, agora)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var restantes []RefreshToken
	require.NoError(t, db.Find(&restantes).Error)
	require.Len(t, restantes, 1)
	assert.Equal(t, "c", restantes[0].Hash)
}
