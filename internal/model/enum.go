package model

import "strings"

func parseEnum[T ~string](s string, valid []T, fallback T) T {
	v := T(strings.ToLower(strings.TrimSpace(s)))
	if contains(valid, v) {
		return v
	}
	return fallback
}

func contains[T comparable](values []T, v T) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
