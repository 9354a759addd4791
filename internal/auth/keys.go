package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// Chaves guarda a chave privada ativa e as públicas por kid.
type Chaves struct {
	priv      *rsa.PrivateKey
	pubs      map[string]*rsa.PublicKey // kid -> pub
	activeKID string
	issuer    string
	audience  string
	accessTTL time.Duration
}

// CarregarChaves lê a chave RSA (PKCS#1 ou PKCS#8) apontada pela configuração.
func CarregarChaves(cfg *config.AuthConfig) (*Chaves, error) {
	if cfg.PrivateKeyPath == "" || cfg.KID == "" || cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("missing envs: AUTH_RSA_PRIVATE_PATH/AUTH_KID/AUTH_ISSUER/AUTH_AUDIENCE")
	}

	b, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	priv, err := parsePrivateKey(b)
	if err != nil {
		return nil, err
	}
	return NovasChaves(priv, cfg.KID, cfg.Issuer, cfg.Audience, cfg.AccessTTL), nil
}

func NovasChaves(priv *rsa.PrivateKey, kid, issuer, audience string, accessTTL time.Duration) *Chaves {
	if accessTTL <= 0 {
		accessTTL = AccessTTL
	}
	return &Chaves{
		priv:      priv,
		pubs:      map[string]*rsa.PublicKey{kid: &priv.PublicKey},
		activeKID: kid,
		issuer:    issuer,
		audience:  audience,
		accessTTL: accessTTL,
	}
}

func parsePrivateKey(b []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, errors.New("pem decode private key failed")
	}

	var pk any
	if k, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		pk = k
	} else if k8, err2 := x509.ParsePKCS8PrivateKey(block.Bytes); err2 == nil {
		pk = k8
	} else {
		return nil, fmt.Errorf("parse private key: %v / %v", err, err2)
	}

	priv, ok := pk.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return priv, nil
}

func (c *Chaves) pub(kid string) (*rsa.PublicKey, bool) { p, ok := c.pubs[kid]; return p, ok }
func (c *Chaves) KID() string                           { return c.activeKID }
func (c *Chaves) Issuer() string                        { return c.issuer }
func (c *Chaves) Audience() string                      { return c.audience }
func (c *Chaves) AccessTTL() time.Duration              { return c.accessTTL }
func signMethod() jwt.SigningMethod                     { return jwt.SigningMethodRS256 }
