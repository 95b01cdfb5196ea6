// Package auth implements the credential gate for the setup server.
//
// The gate is a pure decision function over the raw value of an HTTP
// Authorization header and a credential set that is fixed for the lifetime
// of the process. It performs no I/O and keeps no per-request state, so a
// single Credentials value can be shared by any number of concurrent
// request handlers.
package auth

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

// Credentials is an immutable username to password mapping. The zero value
// rejects everything; use New to construct a populated set.
type Credentials struct {
	users map[string]string
}

// New creates a credential set from the given mapping. The mapping is copied,
// so later changes to the argument do not affect the set.
func New(users map[string]string) *Credentials {
	set := make(map[string]string, len(users))
	for name, password := range users {
		set[name] = password
	}

	return &Credentials{users: set}
}

// Authenticate reports whether the given Authorization header value carries
// valid Basic credentials. The empty string stands for an absent header.
//
// The function is total: malformed input of any kind (wrong scheme, invalid
// base64, non-UTF-8 plaintext, missing colon) folds into a reject and never
// surfaces as an error.
func (c *Credentials) Authenticate(header string) bool {
	if header == "" {
		return false
	}

	scheme, payload, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Basic") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || !utf8.Valid(decoded) {
		return false
	}

	username, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return false
	}

	// Plain comparison, not constant time, matching the reference
	// distribution script.
	stored, ok := c.users[username]

	return ok && stored == password
}
