package auth

import (
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lowercases raw, converts an internationalized domain
// to its ASCII form and checks the result has the shape local@domain.tld.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if !emailPattern.MatchString(email) {
		return "", &InvalidEmailError{Email: raw}
	}

	at := strings.LastIndex(email, "@")
	domain, err := idna.Lookup.ToASCII(email[at+1:])
	if err != nil {
		return "", &InvalidEmailError{Email: raw, Cause: err}
	}
	email = email[:at+1] + domain
	if !emailPattern.MatchString(email) {
		return "", &InvalidEmailError{Email: raw}
	}
	return email, nil
}

// ValidEmail reports whether raw would be accepted by NormalizeEmail.
func ValidEmail(raw string) bool {
	_, err := NormalizeEmail(raw)
	return err == nil
}
