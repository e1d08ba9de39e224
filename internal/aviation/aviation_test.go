package aviation

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"flight_bot/internal/model"
)

type mockTransport struct {
	body       string
	statusCode int
	err        error
	requests   []*http.Request
}

func (m *mockTransport) Do(req *http.Request) (*http.Response, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func loadFixture(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test-only fixture loading
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return string(data)
}

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestFetchFlight(t *testing.T) {
	body := loadFixture(t, "../../testdata/flight_ek509.json")
	tr := &mockTransport{body: body, statusCode: 200}
	c := New(tr, "http://api.example.com/v1/", "secret")

	got, err := c.FetchFlight(context.Background(), "EK509")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &model.Flight{
		Date:    "2026-10-14",
		Status:  "scheduled",
		Number:  "EK509",
		Airline: model.Airline{Name: "Emirates", IATA: "EK"},
		Departure: model.Endpoint{
			Airport:   "Dubai",
			IATA:      "DXB",
			Terminal:  "3",
			Gate:      "B12",
			Delay:     15,
			Scheduled: ts("2026-10-14T08:30:00+00:00"),
			Estimated: ts("2026-10-14T08:45:00+00:00"),
		},
		Arrival: model.Endpoint{
			Airport:   "Leonardo Da Vinci (Fiumicino)",
			IATA:      "FCO",
			Terminal:  "3",
			Baggage:   "7",
			Scheduled: ts("2026-10-14T13:05:00+00:00"),
			Estimated: ts("2026-10-14T13:05:00+00:00"),
		},
		Aircraft: model.Aircraft{Registration: "A6-EEO", IATA: "A388"},
		Live: &model.Live{
			Latitude:  36.28,
			Longitude: 28.91,
			Altitude:  11277.6,
			Speed:     905.3,
			Updated:   ts("2026-10-14T09:10:00+00:00"),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("flight mismatch (-want +got):\n%s", diff)
	}

	q := tr.requests[0].URL.Query()
	if diff := cmp.Diff("EK509", q.Get("flight_iata")); diff != "" {
		t.Errorf("flight_iata mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("secret", q.Get("access_key")); diff != "" {
		t.Errorf("access_key mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("/v1/flights", tr.requests[0].URL.Path); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchFlightErrors(t *testing.T) {
	tests := []struct {
		name         string
		transport    *mockTransport
		apiKey       string
		wantNotFound bool
	}{
		{
			name:         "empty data",
			transport:    &mockTransport{body: `{"data":[]}`, statusCode: 200},
			apiKey:       "k",
			wantNotFound: true,
		},
		{
			name:         "null data",
			transport:    &mockTransport{body: `{"data":null}`, statusCode: 200},
			apiKey:       "k",
			wantNotFound: true,
		},
		{
			name:      "api error envelope",
			transport: &mockTransport{body: `{"error":{"code":"usage_limit_reached","message":"quota"}}`, statusCode: 200},
			apiKey:    "k",
		},
		{
			name:      "server error",
			transport: &mockTransport{body: "bad gateway", statusCode: 502},
			apiKey:    "k",
		},
		{
			name:      "network error",
			transport: &mockTransport{err: io.ErrUnexpectedEOF},
			apiKey:    "k",
		},
		{
			name:      "not json",
			transport: &mockTransport{body: "<html>", statusCode: 200},
			apiKey:    "k",
		},
		{
			name:      "missing api key",
			transport: &mockTransport{body: `{"data":[]}`, statusCode: 200},
			apiKey:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.transport, "http://api.example.com/v1", tt.apiKey)
			_, err := c.FetchFlight(context.Background(), "EK509")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if diff := cmp.Diff(tt.wantNotFound, errors.Is(err, ErrNotFound)); diff != "" {
				t.Errorf("errors.Is(err, ErrNotFound) mismatch (-want +got):\n%s\nerr: %v", diff, err)
			}
		})
	}
}

func TestFetchDepartures(t *testing.T) {
	tr := &mockTransport{body: loadFixture(t, "../../testdata/departures_fco.json"), statusCode: 200}
	c := New(tr, "http://api.example.com/v1", "k")

	got, err := c.FetchDepartures(context.Background(), "FCO", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var codes, gates []string
	for _, f := range got {
		codes = append(codes, f.Number)
		gates = append(gates, f.Departure.Gate)
	}
	if diff := cmp.Diff([]string{"BA549", "AZ318", "EK96"}, codes); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"C14", "", "E22"}, gates); diff != "" {
		t.Errorf("gates mismatch (-want +got):\n%s", diff)
	}
	if got[0].Live != nil {
		t.Error("expected nil live position when provider sends null")
	}

	q := tr.requests[0].URL.Query()
	if diff := cmp.Diff("FCO", q.Get("dep_iata")); diff != "" {
		t.Errorf("dep_iata mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("3", q.Get("limit")); diff != "" {
		t.Errorf("limit mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchArrivalsAndRouteQuery(t *testing.T) {
	tr := &mockTransport{body: `{"data":[]}`, statusCode: 200}
	c := New(tr, "http://api.example.com/v1", "k")

	flights, err := c.FetchArrivals(context.Background(), "LHR", 5)
	if err != nil {
		t.Fatalf("arrivals: %v", err)
	}
	if len(flights) != 0 {
		t.Errorf("expected no arrivals, got %d", len(flights))
	}
	if _, err := c.SearchRoute(context.Background(), "FCO", "LHR", 5); err != nil {
		t.Fatalf("route: %v", err)
	}

	arr := tr.requests[0].URL.Query()
	if diff := cmp.Diff("LHR", arr.Get("arr_iata")); diff != "" {
		t.Errorf("arr_iata mismatch (-want +got):\n%s", diff)
	}
	route := tr.requests[1].URL.Query()
	if diff := cmp.Diff([]string{"FCO", "LHR"}, []string{route.Get("dep_iata"), route.Get("arr_iata")}); diff != "" {
		t.Errorf("route params mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchAirport(t *testing.T) {
	body := `{"data":[
		{"airport_name":"Ciampino","iata_code":"CIA","city_iata_code":"ROM","country_name":"Italy","timezone":"Europe/Rome"},
		{"airport_name":"Leonardo Da Vinci (Fiumicino)","iata_code":"FCO","city_iata_code":"ROM","country_name":"Italy","timezone":"Europe/Rome"}
	]}`

	t.Run("match by iata", func(t *testing.T) {
		c := New(&mockTransport{body: body, statusCode: 200}, "http://api.example.com/v1", "k")
		got, err := c.FetchAirport(context.Background(), "fco")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := &model.Airport{IATA: "FCO", Name: "Leonardo Da Vinci (Fiumicino)", City: "ROM", Country: "Italy", Timezone: "Europe/Rome"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("airport mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("no exact match", func(t *testing.T) {
		c := New(&mockTransport{body: body, statusCode: 200}, "http://api.example.com/v1", "k")
		_, err := c.FetchAirport(context.Background(), "ROM")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestFlightGatePreference(t *testing.T) {
	tests := []struct {
		name string
		dep  string
		arr  string
		want string
	}{
		{name: "departure preferred", dep: "B12", arr: "A3", want: "B12"},
		{name: "arrival fallback", dep: "", arr: "A3", want: "A3"},
		{name: "none", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := model.Flight{Departure: model.Endpoint{Gate: tt.dep}, Arrival: model.Endpoint{Gate: tt.arr}}
			if diff := cmp.Diff(tt.want, f.Gate()); diff != "" {
				t.Errorf("Gate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
