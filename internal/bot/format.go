package bot

import (
	"fmt"
	"strings"
	"time"

	"flight_bot/internal/model"
	"flight_bot/internal/subscription"
)

type boardKind string

const (
	boardDepartures boardKind = "departures"
	boardArrivals   boardKind = "arrivals"
)

const tba = "TBA"

// WelcomeText is the menu shown for greetings, /start and /help.
func WelcomeText(homeAirport string) string {
	return fmt.Sprintf(`Welcome to the %s flight desk!

I can help with:
- Flight status and gate alerts: send a flight number, e.g. EK509
- Departures: type "departures" (add an airport code, e.g. "LHR departures")
- Arrivals: type "arrivals"
- Route search: e.g. "FCO to LHR"

Commands:
/track <flight> - show a flight and alert me on gate or status changes
/status - show the flight I am tracking
/cancel - stop alerts
/departures [airport] - departures board
/arrivals [airport] - arrivals board
/route <from> <to> - flights on a route

Send "cancel" at any time to stop alerts.`, homeAirport)
}

// FallbackText is the reply when a message could not be understood.
func FallbackText() string {
	return `Sorry, I did not get that.

Track a flight: "EK509"
View departures or arrivals: "departures"
Search a route: "FCO to LHR"

What do you need?`
}

// FormatFlight formats full flight details.
func FormatFlight(f *model.Flight) string {
	var b strings.Builder

	name := f.Number
	if f.Airline.Name != "" {
		name = f.Airline.Name + " " + f.Number
	}
	fmt.Fprintf(&b, "%s %s\n", statusIcon(f.Status), name)
	fmt.Fprintf(&b, "Status: %s\n", displayStatus(f.Status))

	dep := f.Departure
	fmt.Fprintf(&b, "\nDeparture: %s\n", endpointName(dep))
	if dep.Terminal != "" {
		fmt.Fprintf(&b, "   Terminal: %s\n", dep.Terminal)
	}
	if dep.Gate != "" {
		fmt.Fprintf(&b, "   Gate: %s\n", dep.Gate)
	} else {
		b.WriteString("   Gate: TBA\n")
	}
	writeTimes(&b, dep)

	arr := f.Arrival
	fmt.Fprintf(&b, "\nArrival: %s\n", endpointName(arr))
	if arr.Terminal != "" {
		fmt.Fprintf(&b, "   Terminal: %s\n", arr.Terminal)
	}
	if arr.Gate != "" {
		fmt.Fprintf(&b, "   Gate: %s\n", arr.Gate)
	}
	if arr.Baggage != "" {
		fmt.Fprintf(&b, "   Baggage: %s\n", arr.Baggage)
	}
	writeTimes(&b, arr)

	if f.Live != nil && !f.Live.IsGround {
		b.WriteString("\nLive position\n")
		fmt.Fprintf(&b, "   Altitude: %.0f m\n", f.Live.Altitude)
		fmt.Fprintf(&b, "   Speed: %.0f km/h\n", f.Live.Speed)
		fmt.Fprintf(&b, "   Map: https://www.google.com/maps?q=%.4f,%.4f\n", f.Live.Latitude, f.Live.Longitude)
	}

	if f.Aircraft.Registration != "" {
		aircraft := f.Aircraft.IATA
		if aircraft == "" {
			aircraft = "N/A"
		}
		fmt.Fprintf(&b, "\nAircraft: %s (%s)\n", aircraft, f.Aircraft.Registration)
	}

	b.WriteString("\nI will message you when the gate or status changes.")
	return b.String()
}

func writeTimes(b *strings.Builder, e model.Endpoint) {
	fmt.Fprintf(b, "   Scheduled: %s\n", formatTime(e.Scheduled))
	if e.Delay > 0 {
		fmt.Fprintf(b, "   Delay: %d min\n", e.Delay)
	}
	if e.Actual != nil {
		fmt.Fprintf(b, "   Actual: %s\n", formatTime(e.Actual))
	} else if e.Estimated != nil && e.Scheduled != nil && !e.Estimated.Equal(*e.Scheduled) {
		fmt.Fprintf(b, "   Estimated: %s\n", formatTime(e.Estimated))
	}
}

// FormatBoard formats a departures or arrivals board for airport.
func FormatBoard(kind boardKind, airport model.Airport, flights []model.Flight) string {
	title := airport.IATA
	if airport.Name != "" {
		title = fmt.Sprintf("%s (%s)", airport.IATA, airport.Name)
	}

	if len(flights) == 0 {
		return fmt.Sprintf("No %s found for %s. Try again later.", kind, title)
	}

	var b strings.Builder
	if kind == boardArrivals {
		fmt.Fprintf(&b, "%s arrivals\n", title)
	} else {
		fmt.Fprintf(&b, "%s departures\n", title)
	}

	for i, f := range flights {
		if kind == boardArrivals {
			fmt.Fprintf(&b, "\n%d. %s %s from %s\n", i+1, statusIcon(f.Status), f.Number, f.Departure.IATA)
			fmt.Fprintf(&b, "   %s | Gate: %s\n", formatTime(f.Arrival.Scheduled), orTBA(f.Arrival.Gate))
		} else {
			fmt.Fprintf(&b, "\n%d. %s %s to %s\n", i+1, statusIcon(f.Status), f.Number, f.Arrival.IATA)
			fmt.Fprintf(&b, "   %s | Gate: %s\n", formatTime(f.Departure.Scheduled), orTBA(f.Departure.Gate))
		}
	}
	return b.String()
}

// FormatRoute formats the flights found between two airports.
func FormatRoute(dep, arr string, flights []model.Flight) string {
	if len(flights) == 0 {
		return fmt.Sprintf("No flights found for %s → %s.", dep, arr)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s → %s\n", dep, arr)
	for i, f := range flights {
		fmt.Fprintf(&b, "\n%d. %s", i+1, f.Number)
		if f.Airline.Name != "" {
			fmt.Fprintf(&b, " - %s", f.Airline.Name)
		}
		fmt.Fprintf(&b, "\n   %s | %s\n", formatTime(f.Departure.Scheduled), displayStatus(f.Status))
	}
	return b.String()
}

// FormatGateAlert formats a gate-change notification.
func FormatGateAlert(c subscription.Change) string {
	if c.OldGate == "" {
		return fmt.Sprintf("GATE ALERT\n\n%s gate announced: %s\n\nHurry!", c.FlightCode, c.NewGate)
	}
	return fmt.Sprintf("GATE ALERT\n\n%s gate changed: %s → %s\n\nHurry!", c.FlightCode, c.OldGate, c.NewGate)
}

// FormatStatusAlert formats a status-change notification.
func FormatStatusAlert(c subscription.Change) string {
	return fmt.Sprintf("STATUS UPDATE\n\n%s %s is now: %s", statusIcon(c.NewStatus), c.FlightCode, displayStatus(c.NewStatus))
}

// FormatSubscription describes what a user is tracking.
func FormatSubscription(sub model.Subscription) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tracking %s\n", sub.FlightCode)
	fmt.Fprintf(&b, "Gate: %s\n", orTBA(sub.LastKnownGate))
	status := "unknown"
	if sub.LastKnownStatus != "" {
		status = displayStatus(sub.LastKnownStatus)
	}
	fmt.Fprintf(&b, "Status: %s\n", status)
	fmt.Fprintf(&b, "Since: %s\n", sub.CreatedAt.UTC().Format("2006-01-02 15:04 UTC"))
	b.WriteString("\nSend \"cancel\" to stop alerts.")
	return b.String()
}

func statusIcon(status string) string {
	switch status {
	case "scheduled":
		return "🕒"
	case "active":
		return "✈️"
	case "landed":
		return "✅"
	case "cancelled":
		return "❌"
	case "diverted":
		return "🔄"
	case "incident":
		return "⚠️"
	default:
		return "📋"
	}
}

func displayStatus(status string) string {
	if status == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(status)
}

func endpointName(e model.Endpoint) string {
	switch {
	case e.Airport != "" && e.IATA != "":
		return fmt.Sprintf("%s (%s)", e.Airport, e.IATA)
	case e.IATA != "":
		return e.IATA
	case e.Airport != "":
		return e.Airport
	default:
		return tba
	}
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return tba
	}
	return t.Format("15:04")
}

func orTBA(s string) string {
	if s == "" {
		return tba
	}
	return s
}
