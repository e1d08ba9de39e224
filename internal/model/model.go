// Package model defines the domain types used across the application.
package model

import "time"

// Flight is the provider's current view of a single flight.
type Flight struct {
	Date      string
	Status    string
	Number    string
	Airline   Airline
	Departure Endpoint
	Arrival   Endpoint
	Aircraft  Aircraft
	Live      *Live
}

// Gate returns the departure gate, falling back to the arrival gate.
// It returns "" when neither is known.
func (f *Flight) Gate() string {
	if f.Departure.Gate != "" {
		return f.Departure.Gate
	}
	return f.Arrival.Gate
}

// Airline identifies the operating carrier.
type Airline struct {
	Name string
	IATA string
}

// Endpoint is one end of a flight (departure or arrival).
type Endpoint struct {
	Airport   string
	IATA      string
	Terminal  string
	Gate      string
	Baggage   string
	Delay     int // minutes
	Scheduled *time.Time
	Estimated *time.Time
	Actual    *time.Time
}

// Aircraft describes the airframe operating the flight.
type Aircraft struct {
	Registration string
	IATA         string
}

// Live is the last reported position of an airborne flight.
type Live struct {
	Latitude  float64
	Longitude float64
	Altitude  float64 // meters
	Speed     float64 // km/h
	IsGround  bool
	Updated   *time.Time
}

// Airport is an entry in the airport directory.
type Airport struct {
	IATA      string
	Name      string
	City      string
	Country   string
	Timezone  string
	UpdatedAt time.Time
}

// Subscription links a chat user to the one flight they are tracking.
// Empty LastKnownGate or LastKnownStatus means the value has not been observed yet.
type Subscription struct {
	UserAddress     string
	FlightCode      string
	LastKnownGate   string
	LastKnownStatus string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
