package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims do token de acesso. Role define as rotas /{role}/* liberadas.
type Claims struct {
	UserID  uint   `json:"userId"`
	Role    string `json:"role"`
	GroupID uint   `json:"groupId"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

// Tempo de vida padrão do access token
const AccessTTL = 15 * time.Minute

// Identidade é o usuário autenticado de uma requisição.
type Identidade struct {
	UserID  uint
	Role    string
	GroupID uint
	Email   string
}

func (c *Claims) Identidade() Identidade {
	return Identidade{UserID: c.UserID, Role: c.Role, GroupID: c.GroupID, Email: c.Email}
}

// Validador verifica um token bruto e devolve as claims.
type Validador interface {
	ParseAndValidate(tokenStr string) (*Claims, error)
}

// GenerateAccessToken gera um JWT RS256 com kid, iss, aud, iat, nbf e jti.
func (c *Chaves) GenerateAccessToken(id Identidade) (string, error) {
	if c.priv == nil {
		return "", fmt.Errorf("private key not loaded (check AUTH_RSA_PRIVATE_PATH and file permissions)")
	}
	if !RoleValido(id.Role) {
		return "", fmt.Errorf("role inválido: %q", id.Role)
	}

	now := time.Now()
	jti := fmt.Sprintf("%d-%d", id.UserID, now.UnixNano())

	claims := &Claims{
		UserID:  id.UserID,
		Role:    id.Role,
		GroupID: id.GroupID,
		Email:   id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Audience:  []string{c.audience},
			Subject:   fmt.Sprint(id.UserID),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			ID:        jti,
		},
	}

	tok := jwt.NewWithClaims(signMethod(), claims)
	tok.Header["kid"] = c.activeKID
	return tok.SignedString(c.priv)
}

// ParseAndValidate valida assinatura, iss, aud, exp e o papel.
func (c *Chaves) ParseAndValidate(tokenStr string) (*Claims, error) {
	return parseClaims(tokenStr, func(t *jwt.Token) (interface{}, error) {
		k, _ := t.Header["kid"].(string)
		if k == "" {
			return nil, errors.New("kid ausente")
		}
		pub, ok := c.pub(k)
		if !ok {
			return nil, errors.New("kid desconhecido")
		}
		return pub, nil
	}, c.issuer, c.audience)
}

func parseClaims(tokenStr string, keyfunc jwt.Keyfunc, issuer, audience string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, keyfunc)
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("token inválido")
	}

	c, ok := tok.Claims.(*Claims)
	if !ok {
		return nil, errors.New("claims inválidas")
	}
	if !RoleValido(c.Role) {
		return nil, errors.New("role inválido")
	}
	return c, nil
}
