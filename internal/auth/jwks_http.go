package auth

import (
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
)

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// GET /.well-known/jwks.json
func (c *Chaves) JWKSHandler(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Keys []jwk `json:"keys"`
	}{Keys: []jwk{}}

	for kid, pub := range c.pubs {
		resp.Keys = append(resp.Keys, jwk{
			Kty: "RSA",
			Alg: "RS256",
			Use: "sig",
			Kid: kid,
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}
	if len(resp.Keys) == 0 {
		http.Error(w, "no public key", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_ = json.NewEncoder(w).Encode(resp)
}
