package codec

import (
	"chat-relay/domain"
	"strings"
	"unicode"
)

// SplitIdentity maps the single REGISTER text onto an identity token and a
// display name. It never fails:
//   - "bob@example.com Bob Smith" gives identity "bob@example.com", name "Bob Smith"
//   - "bob" (no whitespace) gives identity "bob", name "bob"
//   - "" gives two empty strings
func SplitIdentity(raw string) domain.Identity {
	trimmed := strings.TrimSpace(raw)
	i := strings.IndexFunc(trimmed, unicode.IsSpace)
	if i < 0 {
		return domain.Identity{Identity: trimmed, Name: trimmed}
	}
	return domain.Identity{
		Identity: trimmed[:i],
		Name:     strings.TrimSpace(trimmed[i:]),
	}
}

// JoinIdentity builds the REGISTER text SplitIdentity reads back.
func JoinIdentity(identity, name string) string {
	if name == "" {
		return identity
	}
	return identity + " " + name
}
