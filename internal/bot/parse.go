package bot

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Uppercase codes anywhere in the text, or a message that is only a route.
	routeRe     = regexp.MustCompile(`\b([A-Z]{3})\s*(?:\b(?:to|TO)\b|→|->)\s*([A-Z]{3})\b`)
	bareRouteRe = regexp.MustCompile(`(?i)^\s*([a-z]{3})\s*(?:\bto\b|→|->)\s*([a-z]{3})\s*$`)
	airportRe   = regexp.MustCompile(`\b[A-Z]{3}\b`)
	iataRe      = regexp.MustCompile(`^[A-Z]{3}$`)
)

// ParseRoute finds an "AAA to BBB" (or "AAA → BBB") pair in free text.
// Inside a longer sentence the codes must be uppercase; a message holding
// nothing but the route may use any case. Codes are returned uppercased.
func ParseRoute(text string) (dep, arr string, ok bool) {
	m := routeRe.FindStringSubmatch(text)
	if m == nil {
		m = bareRouteRe.FindStringSubmatch(text)
	}
	if m == nil {
		return "", "", false
	}
	return strings.ToUpper(m[1]), strings.ToUpper(m[2]), true
}

// ParseRouteArgs parses the arguments of /route.
// Accepted forms: "FCO LHR", "FCO to LHR", "FCO → LHR".
func ParseRouteArgs(args string) (dep, arr string, err error) {
	if dep, arr, ok := ParseRoute(args); ok {
		return dep, arr, nil
	}
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("usage: /route <from> <to>, e.g. /route FCO LHR")
	}
	dep, arr = strings.ToUpper(parts[0]), strings.ToUpper(parts[1])
	if !iataRe.MatchString(dep) || !iataRe.MatchString(arr) {
		return "", "", fmt.Errorf("airport codes must be 3 letters, e.g. /route FCO LHR")
	}
	return dep, arr, nil
}

// ParseAirportArg parses an optional airport code command argument.
// An empty argument returns "".
func ParseAirportArg(args string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(args))
	if s == "" {
		return "", nil
	}
	if !iataRe.MatchString(s) {
		return "", fmt.Errorf("airport code must be 3 letters, e.g. LHR")
	}
	return s, nil
}

// AirportTokens returns the 3-letter uppercase words of text in order,
// the candidates for an airport mentioned in a free-text board request.
func AirportTokens(text string) []string {
	return airportRe.FindAllString(text, -1)
}
