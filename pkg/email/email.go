// Package email validates and normalizes customer email addresses.
package email

import (
	"net/mail"
	"strings"
)

// Normalize returns addr trimmed with its domain lower-cased. ok is false
// when addr is not a bare RFC 5322 address; display names are rejected.
func Normalize(addr string) (normalized string, ok bool) {
	addr = strings.TrimSpace(addr)
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Name != "" || parsed.Address != addr {
		return "", false
	}
	at := strings.LastIndexByte(addr, '@')
	if at <= 0 || at == len(addr)-1 || !strings.Contains(addr[at+1:], ".") {
		return "", false
	}
	return addr[:at] + "@" + strings.ToLower(addr[at+1:]), true
}

// Valid reports whether Normalize accepts addr.
func Valid(addr string) bool {
	_, ok := Normalize(addr)
	return ok
}
