package aviation

import (
	"encoding/json"
	"time"

	"flight_bot/internal/model"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type flightRow struct {
	FlightDate   string      `json:"flight_date"`
	FlightStatus string      `json:"flight_status"`
	Departure    endpointRow `json:"departure"`
	Arrival      endpointRow `json:"arrival"`
	Airline      struct {
		Name string `json:"name"`
		IATA string `json:"iata"`
	} `json:"airline"`
	Flight struct {
		Number string `json:"number"`
		IATA   string `json:"iata"`
	} `json:"flight"`
	Aircraft *struct {
		Registration string `json:"registration"`
		IATA         string `json:"iata"`
	} `json:"aircraft"`
	Live *struct {
		Updated         string  `json:"updated"`
		Latitude        float64 `json:"latitude"`
		Longitude       float64 `json:"longitude"`
		Altitude        float64 `json:"altitude"`
		SpeedHorizontal float64 `json:"speed_horizontal"`
		IsGround        bool    `json:"is_ground"`
	} `json:"live"`
}

type endpointRow struct {
	Airport   string `json:"airport"`
	IATA      string `json:"iata"`
	Terminal  string `json:"terminal"`
	Gate      string `json:"gate"`
	Baggage   string `json:"baggage"`
	Delay     *int   `json:"delay"`
	Scheduled string `json:"scheduled"`
	Estimated string `json:"estimated"`
	Actual    string `json:"actual"`
}

type airportRow struct {
	AirportName  string `json:"airport_name"`
	IATACode     string `json:"iata_code"`
	CityIATACode string `json:"city_iata_code"`
	CountryName  string `json:"country_name"`
	Timezone     string `json:"timezone"`
}

func (r flightRow) toModel() model.Flight {
	f := model.Flight{
		Date:      r.FlightDate,
		Status:    r.FlightStatus,
		Number:    r.Flight.IATA,
		Airline:   model.Airline{Name: r.Airline.Name, IATA: r.Airline.IATA},
		Departure: r.Departure.toModel(),
		Arrival:   r.Arrival.toModel(),
	}
	if r.Aircraft != nil {
		f.Aircraft = model.Aircraft{Registration: r.Aircraft.Registration, IATA: r.Aircraft.IATA}
	}
	if r.Live != nil {
		f.Live = &model.Live{
			Latitude:  r.Live.Latitude,
			Longitude: r.Live.Longitude,
			Altitude:  r.Live.Altitude,
			Speed:     r.Live.SpeedHorizontal,
			IsGround:  r.Live.IsGround,
			Updated:   parseTime(r.Live.Updated),
		}
	}
	return f
}

func (e endpointRow) toModel() model.Endpoint {
	ep := model.Endpoint{
		Airport:   e.Airport,
		IATA:      e.IATA,
		Terminal:  e.Terminal,
		Gate:      e.Gate,
		Baggage:   e.Baggage,
		Scheduled: parseTime(e.Scheduled),
		Estimated: parseTime(e.Estimated),
		Actual:    parseTime(e.Actual),
	}
	if e.Delay != nil {
		ep.Delay = *e.Delay
	}
	return ep
}

func (r airportRow) toModel() model.Airport {
	return model.Airport{
		IATA:     r.IATACode,
		Name:     r.AirportName,
		City:     r.CityIATACode,
		Country:  r.CountryName,
		Timezone: r.Timezone,
	}
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
