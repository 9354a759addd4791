package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"
)

const (
	RefreshTTL    = 30 * 24 * time.Hour
	RefreshCookie = "rt"
)

// Sessoes emite access tokens e faz a rotação dos refresh tokens.
type Sessoes struct {
	DB           *gorm.DB
	Chaves       *Chaves
	RefreshTTL   time.Duration
	CookieSecure bool // false em localhost, true em produção (HTTPS)
}

func NovasSessoes(db *gorm.DB, chaves *Chaves, refreshTTL time.Duration, cookieSecure bool) *Sessoes {
	if refreshTTL <= 0 {
		refreshTTL = RefreshTTL
	}
	return &Sessoes{DB: db, Chaves: chaves, RefreshTTL: refreshTTL, CookieSecure: cookieSecure}
}

// --- Helpers ---

func genRaw() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashRaw(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(h[:])
}

func (s *Sessoes) setRTCookie(w http.ResponseWriter, raw string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    raw,
		Path:     "/auth", // cobre /auth/refresh e /auth/logout
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

func (s *Sessoes) clearRTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     "/auth",
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// RespostaToken é o corpo devolvido no login e no refresh.
type RespostaToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Role        string `json:"role"`
	UserID      uint   `json:"userId"`
	GroupID     uint   `json:"groupId"`
}

func (s *Sessoes) resposta(access string, id Identidade) RespostaToken {
	return RespostaToken{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.Chaves.AccessTTL().Seconds()),
		Role:        id.Role,
		UserID:      id.UserID,
		GroupID:     id.GroupID,
	}
}

// --- Fluxo ---

// IssueTokensOnLogin é chamado no login após validar usuário/senha.
func (s *Sessoes) IssueTokensOnLogin(w http.ResponseWriter, id Identidade) (RespostaToken, error) {
	access, err := s.Chaves.GenerateAccessToken(id)
	if err != nil {
		return RespostaToken{}, err
	}

	raw, err := genRaw()
	if err != nil {
		return RespostaToken{}, err
	}

	rt := RefreshToken{
		UserID:    id.UserID,
		FamilyID:  fmt.Sprintf("fam-%d", id.UserID),
		Hash:      hashRaw(raw),
		Role:      id.Role, // guarda o papel para o refresh
		GroupID:   id.GroupID,
		Email:     id.Email,
		ExpiresAt: time.Now().Add(s.RefreshTTL),
	}
	if err := s.DB.Create(&rt).Error; err != nil {
		return RespostaToken{}, err
	}
	s.setRTCookie(w, raw, rt.ExpiresAt)
	return s.resposta(access, id), nil
}

// POST /auth/refresh
func (s *Sessoes) RefreshHTTPHandler(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(RefreshCookie)
	if err != nil || c.Value == "" {
		http.Error(w, "no refresh", http.StatusUnauthorized)
		return
	}

	var cur RefreshToken
	if err := s.DB.Where("hash = ?", hashRaw(c.Value)).First(&cur).Error; err != nil {
		s.clearRTCookie(w)
		http.Error(w, "invalid refresh", http.StatusUnauthorized)
		return
	}
	if cur.RevokedAt != nil || time.Now().After(cur.ExpiresAt) {
		s.clearRTCookie(w)
		http.Error(w, "expired refresh", http.StatusUnauthorized)
		return
	}

	// revoga o atual
	now := time.Now()
	_ = s.DB.Model(&cur).Update("revoked_at", &now).Error

	id := Identidade{UserID: cur.UserID, Role: cur.Role, GroupID: cur.GroupID, Email: cur.Email}
	access, err := s.Chaves.GenerateAccessToken(id)
	if err != nil {
		s.clearRTCookie(w)
		http.Error(w, "error", http.StatusInternalServerError)
		return
	}

	newRaw, err := genRaw()
	if err != nil {
		s.clearRTCookie(w)
		http.Error(w, "error", http.StatusInternalServerError)
		return
	}
	newRT := RefreshToken{
		UserID:    cur.UserID,
		FamilyID:  cur.FamilyID,
		Hash:      hashRaw(newRaw),
		Role:      cur.Role,
		GroupID:   cur.GroupID,
		Email:     cur.Email,
		ExpiresAt: time.Now().Add(s.RefreshTTL),
	}
	if err := s.DB.Create(&newRT).Error; err != nil {
		s.clearRTCookie(w)
		http.Error(w, "error", http.StatusInternalServerError)
		return
	}
	s.setRTCookie(w, newRaw, newRT.ExpiresAt)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.resposta(access, id))
}

// POST /auth/logout
func (s *Sessoes) LogoutHTTPHandler(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(RefreshCookie); err == nil && c.Value != "" {
		now := time.Now()
		_ = s.DB.Model(&RefreshToken{}).Where("hash = ?", hashRaw(c.Value)).Update("revoked_at", &now).Error
	}
	s.clearRTCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
