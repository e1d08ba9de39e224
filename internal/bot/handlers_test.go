package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"flight_bot/internal/model"
	"flight_bot/internal/subscription"
)

func TestParseRoute(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantDep string
		wantArr string
		wantOK  bool
	}{
		{name: "uppercase in sentence", text: "any flights FCO to LHR tonight?", wantDep: "FCO", wantArr: "LHR", wantOK: true},
		{name: "arrow", text: "FCO→LHR", wantDep: "FCO", wantArr: "LHR", wantOK: true},
		{name: "ascii arrow", text: "CDG -> JFK", wantDep: "CDG", wantArr: "JFK", wantOK: true},
		{name: "bare lowercase route", text: "  fco to lhr ", wantDep: "FCO", wantArr: "LHR", wantOK: true},
		{name: "lowercase in sentence is not a route", text: "how to get to the gate", wantOK: false},
		{name: "no separator", text: "FCO LHR", wantOK: false},
		{name: "empty", text: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dep, arr, ok := ParseRoute(tt.text)
			if diff := cmp.Diff(tt.wantOK, ok); diff != "" {
				t.Fatalf("ok mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([2]string{tt.wantDep, tt.wantArr}, [2]string{dep, arr}); diff != "" {
				t.Errorf("route mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRouteArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    [2]string
		wantErr bool
	}{
		{name: "two codes", args: "fco lhr", want: [2]string{"FCO", "LHR"}},
		{name: "with to", args: "FCO to LHR", want: [2]string{"FCO", "LHR"}},
		{name: "one code", args: "FCO", wantErr: true},
		{name: "city names", args: "Rome London", wantErr: true},
		{name: "empty", args: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dep, arr, err := ParseRouteArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, [2]string{dep, arr}); diff != "" {
				t.Errorf("route mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseAirportArg(t *testing.T) {
	tests := []struct {
		args    string
		want    string
		wantErr bool
	}{
		{args: "", want: ""},
		{args: " lhr ", want: "LHR"},
		{args: "LHR CDG", wantErr: true},
		{args: "London", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			got, err := ParseAirportArg(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error mismatch: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("airport mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAirportTokens(t *testing.T) {
	got := AirportTokens("Show LHR departures, not AZ318 or the lhr board, maybe CDG")
	if diff := cmp.Diff([]string{"LHR", "CDG"}, got); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatFlight(t *testing.T) {
	dep := time.Date(2026, 10, 14, 8, 30, 0, 0, time.UTC)
	est := time.Date(2026, 10, 14, 8, 45, 0, 0, time.UTC)
	arr := time.Date(2026, 10, 14, 13, 5, 0, 0, time.UTC)

	f := &model.Flight{
		Status:  "active",
		Number:  "EK509",
		Airline: model.Airline{Name: "Emirates", IATA: "EK"},
		Departure: model.Endpoint{
			Airport: "Dubai", IATA: "DXB", Terminal: "3", Gate: "B12",
			Delay: 15, Scheduled: &dep, Estimated: &est,
		},
		Arrival: model.Endpoint{
			Airport: "Fiumicino", IATA: "FCO", Baggage: "7", Scheduled: &arr,
		},
		Aircraft: model.Aircraft{Registration: "A6-EEO", IATA: "A388"},
		Live:     &model.Live{Latitude: 36.28, Longitude: 28.91, Altitude: 11277.6, Speed: 905.3},
	}

	got := FormatFlight(f)
	for _, want := range []string{
		"✈️ Emirates EK509",
		"Status: ACTIVE",
		"Departure: Dubai (DXB)",
		"Gate: B12",
		"Scheduled: 08:30",
		"Delay: 15 min",
		"Estimated: 08:45",
		"Arrival: Fiumicino (FCO)",
		"Baggage: 7",
		"Altitude: 11278 m",
		"Speed: 905 km/h",
		"maps?q=36.2800,28.9100",
		"Aircraft: A388 (A6-EEO)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestFormatFlightMissingData(t *testing.T) {
	got := FormatFlight(&model.Flight{Number: "AZ318", Live: &model.Live{IsGround: true}})
	for _, want := range []string{"📋 AZ318", "Status: UNKNOWN", "Departure: TBA", "Gate: TBA", "Scheduled: TBA"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Live position") {
		t.Error("grounded aircraft must not show a live position")
	}
}

func TestFormatBoard(t *testing.T) {
	sched := time.Date(2026, 10, 14, 6, 5, 0, 0, time.UTC)
	flights := []model.Flight{
		{Number: "BA549", Status: "active",
			Departure: model.Endpoint{IATA: "FCO", Gate: "C14", Scheduled: &sched},
			Arrival:   model.Endpoint{IATA: "LHR", Gate: "A10", Scheduled: &sched}},
		{Number: "AZ318", Status: "scheduled",
			Departure: model.Endpoint{IATA: "FCO"},
			Arrival:   model.Endpoint{IATA: "CDG"}},
	}
	fco := model.Airport{IATA: "FCO", Name: "Fiumicino"}

	tests := []struct {
		name string
		kind boardKind
		want string
	}{
		{
			name: "departures",
			kind: boardDepartures,
			want: "FCO (Fiumicino) departures\n\n1. ✈️ BA549 to LHR\n   06:05 | Gate: C14\n\n2. 🕒 AZ318 to CDG\n   TBA | Gate: TBA\n",
		},
		{
			name: "arrivals",
			kind: boardArrivals,
			want: "FCO (Fiumicino) arrivals\n\n1. ✈️ BA549 from FCO\n   06:05 | Gate: A10\n\n2. 🕒 AZ318 from FCO\n   TBA | Gate: TBA\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FormatBoard(tt.kind, fco, flights)); diff != "" {
				t.Errorf("board mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if diff := cmp.Diff("No arrivals found for LHR. Try again later.", FormatBoard(boardArrivals, model.Airport{IATA: "LHR"}, nil)); diff != "" {
		t.Errorf("empty board mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatAlerts(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "gate announced",
			got:  FormatGateAlert(subscription.Change{FlightCode: "EK509", GateChanged: true, NewGate: "B12"}),
			want: "GATE ALERT\n\nEK509 gate announced: B12\n\nHurry!",
		},
		{
			name: "gate changed",
			got:  FormatGateAlert(subscription.Change{FlightCode: "EK509", GateChanged: true, OldGate: "A1", NewGate: "B3"}),
			want: "GATE ALERT\n\nEK509 gate changed: A1 → B3\n\nHurry!",
		},
		{
			name: "status",
			got:  FormatStatusAlert(subscription.Change{FlightCode: "EK509", StatusChanged: true, NewStatus: "landed"}),
			want: "STATUS UPDATE\n\n✅ EK509 is now: LANDED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.got); diff != "" {
				t.Errorf("alert mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatRoute(t *testing.T) {
	if diff := cmp.Diff("No flights found for FCO → LHR.", FormatRoute("FCO", "LHR", nil)); diff != "" {
		t.Errorf("empty route mismatch (-want +got):\n%s", diff)
	}

	got := FormatRoute("FCO", "LHR", []model.Flight{{Number: "BA549", Status: "scheduled", Airline: model.Airline{Name: "British Airways"}}})
	want := "FCO → LHR\n\n1. BA549 - British Airways\n   TBA | SCHEDULED\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("route mismatch (-want +got):\n%s", diff)
	}
}
