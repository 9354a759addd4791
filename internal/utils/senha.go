package utils

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const alfabetoSenha = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// HashSenha gera o hash bcrypt da senha.
func HashSenha(senha string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(senha), bcrypt.DefaultCost)
	return string(hash), err
}

func VerificarSenha(hash, senha string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(senha)) == nil
}

// GerarSenhaTemporaria sorteia 12 caracteres alfanuméricos com crypto/rand.
func GerarSenhaTemporaria() (string, error) {
	out := make([]byte, 12)
	max := big.NewInt(int64(len(alfabetoSenha)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alfabetoSenha[n.Int64()]
	}
	return string(out), nil
}
