package service

import (
	"strings"

	"github.com/beachatlas/beachatlas-server/internal/id"
)

const maxSessionTokenLen = 64

// EnsureSession returns existing when it is a well-formed session token,
// and a freshly generated token otherwise. created reports whether a new
// token was issued.
func EnsureSession(existing string) (token string, created bool, err error) {
	if ValidSessionToken(existing) {
		return existing, false, nil
	}
	token, err = id.NewSessionToken()
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// ValidSessionToken reports whether token has the shape of an issued
// session token. Tokens carry no server-side state, so shape is all there
// is to check.
func ValidSessionToken(token string) bool {
	return len(token) <= maxSessionTokenLen &&
		strings.HasPrefix(token, id.PrefixSession+"-") &&
		len(token) > len(id.PrefixSession)+1
}
