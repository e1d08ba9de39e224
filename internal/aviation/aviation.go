// Package aviation is the AviationStack client used for flight and airport lookups.
package aviation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"flight_bot/internal/model"
)

// ErrNotFound is returned when the provider has no record for the query.
var ErrNotFound = errors.New("not found")

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the AviationStack REST API.
type Client struct {
	client  HTTPClient
	baseURL string
	apiKey  string
	timeout time.Duration
}

// New creates a Client with the given HTTP client, base URL and access key.
func New(client HTTPClient, baseURL, apiKey string) *Client {
	return &Client{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: 10 * time.Second,
	}
}

// SetTimeout overrides the default 10-second per-call timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// FetchFlight returns the current record for an IATA flight code.
func (c *Client) FetchFlight(ctx context.Context, code string) (*model.Flight, error) {
	flights, err := c.listFlights(ctx, url.Values{"flight_iata": {code}})
	if err != nil {
		return nil, err
	}
	if len(flights) == 0 {
		return nil, fmt.Errorf("flight %s: %w", code, ErrNotFound)
	}
	return &flights[0], nil
}

// FetchDepartures lists flights departing from an airport.
func (c *Client) FetchDepartures(ctx context.Context, airport string, limit int) ([]model.Flight, error) {
	return c.listFlights(ctx, url.Values{
		"dep_iata": {airport},
		"limit":    {strconv.Itoa(limit)},
	})
}

// FetchArrivals lists flights arriving at an airport.
func (c *Client) FetchArrivals(ctx context.Context, airport string, limit int) ([]model.Flight, error) {
	return c.listFlights(ctx, url.Values{
		"arr_iata": {airport},
		"limit":    {strconv.Itoa(limit)},
	})
}

// SearchRoute lists flights between two airports.
func (c *Client) SearchRoute(ctx context.Context, dep, arr string, limit int) ([]model.Flight, error) {
	return c.listFlights(ctx, url.Values{
		"dep_iata": {dep},
		"arr_iata": {arr},
		"limit":    {strconv.Itoa(limit)},
	})
}

// FetchAirport looks up an airport by IATA code.
func (c *Client) FetchAirport(ctx context.Context, iata string) (*model.Airport, error) {
	var rows []airportRow
	if err := c.get(ctx, "/airports", url.Values{"search": {iata}}, &rows); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if strings.EqualFold(r.IATACode, iata) {
			a := r.toModel()
			return &a, nil
		}
	}
	return nil, fmt.Errorf("airport %s: %w", iata, ErrNotFound)
}

func (c *Client) listFlights(ctx context.Context, params url.Values) ([]model.Flight, error) {
	var rows []flightRow
	if err := c.get(ctx, "/flights", params, &rows); err != nil {
		return nil, err
	}
	flights := make([]model.Flight, 0, len(rows))
	for _, r := range rows {
		flights = append(flights, r.toModel())
	}
	return flights, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, data any) error {
	if c.apiKey == "" {
		return fmt.Errorf("aviationstack: no API key configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params.Set("access_key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http get %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Error != nil {
		return fmt.Errorf("aviationstack %s: %s", env.Error.Code, env.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, data); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
