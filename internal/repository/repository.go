// Package repository provides data access for runs, samples, feedback, and
// question aggregates on top of pgx.
package repository

import "strings"

// escapeILIKE escapes ILIKE wildcards so user input matches literally.
// Backslash must be escaped first.
func escapeILIKE(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
