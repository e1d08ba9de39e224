package intent

import "strings"

// Rule is one deterministic classification step. Match receives the raw
// text and its lowercase word tokens.
type Rule struct {
	Name  string
	Match func(text string, words []string) (Intent, bool)
}

// DefaultRules returns the built-in rule table in priority order.
func DefaultRules() []Rule {
	return []Rule{
		FlightCodeRule(),
		KeywordRule("arrivals", KindArrivals,
			"arrival", "arrivals", "inbound", "landing", "landings"),
		KeywordRule("departures", KindDepartures,
			"departure", "departures", "outbound", "takeoff", "takeoffs", "boarding"),
		GreetingRule(
			"hi", "hello", "hey", "hiya",
			"ciao", "salve", "buongiorno", "buonasera",
			"hola", "bonjour", "hallo"),
	}
}

// FlightCodeRule matches a token of two letters followed by 3-5 digits.
func FlightCodeRule() Rule {
	return Rule{
		Name: "flight_code",
		Match: func(text string, _ []string) (Intent, bool) {
			code, ok := FindFlightCode(text)
			if !ok {
				return Intent{}, false
			}
			return Intent{Kind: KindFlightStatus, FlightCode: code}, true
		},
	}
}

// KeywordRule matches when any word of the text is in keywords.
func KeywordRule(name string, kind Kind, keywords ...string) Rule {
	set := wordSet(keywords)
	return Rule{
		Name: name,
		Match: func(_ string, words []string) (Intent, bool) {
			for _, w := range words {
				if _, ok := set[w]; ok {
					return Intent{Kind: kind}, true
				}
			}
			return Intent{}, false
		},
	}
}

// GreetingRule matches when the first word of the text is a greeting.
func GreetingRule(greetings ...string) Rule {
	set := wordSet(greetings)
	return Rule{
		Name: "greeting",
		Match: func(_ string, words []string) (Intent, bool) {
			if len(words) == 0 {
				return Intent{}, false
			}
			if _, ok := set[words[0]]; ok {
				return Intent{Kind: KindGreeting}, true
			}
			return Intent{}, false
		},
	}
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}
