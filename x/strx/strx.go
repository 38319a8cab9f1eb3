package strx

// Coalesce returns s if non-empty, otherwise d.
func Coalesce(s, d string) string {
	if s == "" {
		return d
	}
	return s
}

// Mask hides a credential for logs. Any non-empty value maps to the same
// placeholder so the length is not revealed.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
