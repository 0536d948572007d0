package common

import "strings"

// Beaut centers a string within a field of width n by padding with spaces.
// If n minus the string length is odd, the extra space goes to the right.
// Strings longer than n are returned unchanged.
func Beaut(s string, n int) string {
	x := n - len(s)
	if x <= 0 {
		return s
	}
	left := x / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", x-left)
}

// StatusLine fits s into exactly TextColumns characters, centering short
// messages and cutting long ones.
func StatusLine(s string) string {
	if len(s) > TextColumns {
		return s[:TextColumns]
	}
	return Beaut(s, TextColumns)
}
