package auth

import "golang.org/x/crypto/bcrypt"

// Operators sign in at the start of every shift on shared ramp terminals;
// cost 8 keeps that under ~25ms.
const bcryptCost = 8

// HashPassword hashes an operator password for the operators table.
// `skyroute operator add` is the only writer.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored operator hash.
// A malformed hash counts as a mismatch, so login answers with the generic
// credentials error.
func VerifyPassword(operatorHash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(operatorHash), []byte(password)) == nil
}
