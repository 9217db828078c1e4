package auth

import (
	"crypto/rand"
	"encoding/base64"
)

// RememberTokenBytes is the byte size of generated remember tokens.
const RememberTokenBytes = 32

// MakeRememberToken generates a remember token of a predetermined byte size.
func MakeRememberToken() (string, error) {
	return bytesToString(RememberTokenBytes)
}

// bytes generates n random bytes or returns an error. It uses the
// crypto/rand package, so it can be used for things like remember tokens.
func bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// bytesToString generates a byte slice of size nBytes and then returns a
// string that is the base64 URL encoded version of that byte slice.
func bytesToString(nBytes int) (string, error) {
	b, err := bytes(nBytes)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
