package sandbox

import "crypto/rand"

// passwordAlphabet is the fixed character set for secure-session passwords.
const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*"

const passwordLength = 16

// NewSessionPassword draws a session password from the operating system's
// CSPRNG. Secure sessions gate shared access, so a strong source is used.
func NewSessionPassword() (string, error) {
	buf := make([]byte, passwordLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = passwordAlphabet[int(b)%len(passwordAlphabet)]
	}
	return string(buf), nil
}
