package catalog

// CredentialCipher encrypts store credentials at rest
type CredentialCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}
