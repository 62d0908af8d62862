// Package ids derives stable identifiers from arbitrary text.
package ids

import "github.com/google/uuid"

// Generate returns the name-based (version 5) UUID of s in the OID namespace,
// formatted as 36 lowercase hex-and-hyphen characters. The same input always
// yields the same identifier.
func Generate(s string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(s)).String()
}
