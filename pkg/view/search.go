package view

import "strings"

// Matches reports whether a node id satisfies the search term. An empty
// term matches every node; otherwise the test is a case-insensitive
// substring match against the full id, directories included.
func Matches(id, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(id), strings.ToLower(term))
}
