package instrumentation

import "strings"

// ExtractUserDomain returns the domain part of an email address, or "unknown".
// Audit records use it as a lower-cardinality stand-in for account emails.
//
//	ExtractUserDomain("jane@example.com")  // "example.com"
//	ExtractUserDomain("invalid")           // "unknown"
func ExtractUserDomain(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return "unknown"
	}
	return domain
}
