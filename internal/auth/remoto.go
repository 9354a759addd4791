package auth

import (
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"go.uber.org/zap"
)

// ValidadorRemoto valida tokens emitidos pela API usando o JWKS publicado
// em /.well-known/jwks.json. Usado pelo portal.
type ValidadorRemoto struct {
	jwks     *keyfunc.JWKS
	issuer   string
	audience string
}

func NovoValidadorRemoto(jwksURL, issuer, audience string, log *zap.Logger) (*ValidadorRemoto, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.Warn("falha ao atualizar JWKS", zap.String("url", jwksURL), zap.Error(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("jwks: %w", err)
	}
	return &ValidadorRemoto{jwks: jwks, issuer: issuer, audience: audience}, nil
}

func (v *ValidadorRemoto) ParseAndValidate(tokenStr string) (*Claims, error) {
	return parseClaims(tokenStr, v.jwks.Keyfunc, v.issuer, v.audience)
}

// Fechar encerra a goroutine de refresh do JWKS.
func (v *ValidadorRemoto) Fechar() {
	v.jwks.EndBackground()
}
