package lexer

import "golang.org/x/text/unicode/norm"

// normalizeIdent applies Unicode NFC normalization to identifier text so
// that visually identical identifiers written with different combining
// sequences compare equal downstream in the checker's name tables.
func normalizeIdent(s string) string {
	return norm.NFC.String(s)
}
