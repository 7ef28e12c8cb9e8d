package tiles

import "fmt"

// FormatLat renders a latitude anchor as a two-digit hemisphere token, e.g. 00N or 50S.
func FormatLat(lat int) string {
	if lat >= 0 {
		return fmt.Sprintf("%02dN", lat)
	}

	return fmt.Sprintf("%02dS", -lat)
}

// FormatLon renders a longitude anchor as a three-digit hemisphere token, e.g. 000E or 070W.
func FormatLon(lon int) string {
	if lon >= 0 {
		return fmt.Sprintf("%03dE", lon)
	}

	return fmt.Sprintf("%03dW", -lon)
}
