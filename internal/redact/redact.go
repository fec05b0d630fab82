// Package redact strips credentials and personal data from strings before
// they are logged or printed. Driver errors can echo connection URLs, and
// record payloads can carry member email addresses.
package redact

import "regexp"

// Placeholders substituted for redacted text.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
)

var (
	// userinfo in postgres://, redis:// and rediss:// URLs
	connUserinfoRegex = regexp.MustCompile(`(?i)\b(postgres(?:ql)?|rediss?)://[^@/\s]+@`)
	passwordRegex     = regexp.MustCompile(`(?i)\b(password|passwd|pwd)(\s*[=:]\s*['"]?)[^'"&\s]+`)
	emailRegex        = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

// String redacts s. Connection URLs keep their scheme so the backend is
// still identifiable.
func String(s string) string {
	if s == "" {
		return s
	}
	s = connUserinfoRegex.ReplaceAllString(s, "${1}://"+CredentialPlaceholder+"@")
	s = passwordRegex.ReplaceAllString(s, "${1}${2}"+CredentialPlaceholder)
	return emailRegex.ReplaceAllString(s, EmailPlaceholder)
}

// Error redacts err.Error(). A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
