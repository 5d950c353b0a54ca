// Package weather proxies forecast and geocoding requests to Open-Meteo.
// The upstream is treated as opaque: its JSON body is relayed verbatim and
// never interpreted beyond checking that it is JSON at all.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

const (
	defaultForecastBaseURL = "https://api.open-meteo.com/v1"
	defaultGeocodeBaseURL  = "https://geocoding-api.open-meteo.com/v1"

	userAgent = "dayplanner"

	// Upstream defaults mirrored from the frontend's expectations.
	defaultDaily    = "weathercode,temperature_2m_max,temperature_2m_min,precipitation_probability_max"
	defaultTimezone = "auto"
	defaultLanguage = "ko"
	defaultFormat   = "json"
	defaultCount    = 8
)

// UpstreamError maps an upstream failure to the HTTP status the proxy should
// answer with. Transport failures and unparsable bodies map to 502; an
// upstream HTTP error keeps its own status code.
type UpstreamError struct {
	Status int
	msg    string
}

func (e *UpstreamError) Error() string {
	return e.msg
}

var (
	errTransport = &UpstreamError{Status: http.StatusBadGateway, msg: "weather API request failed"}
	errBadBody   = &UpstreamError{Status: http.StatusBadGateway, msg: "weather API returned an unparsable response"}
)

// ForecastParams are the caller-supplied parameters for a forecast request.
type ForecastParams struct {
	Latitude     float64
	Longitude    float64
	Daily        string
	Timezone     string
	ForecastDays *int
	StartDate    string
	EndDate      string
}

// GeocodeParams are the parameters for a place-name search.
type GeocodeParams struct {
	Name     string
	Count    int
	Language string
	Format   string
}

// ReverseParams are the parameters for a reverse-geocoding lookup.
type ReverseParams struct {
	Latitude  float64
	Longitude float64
	Language  string
	Format    string
}

// Gateway issues single bounded requests against the upstream weather
// service. No retries, no caching; a circuit breaker short-circuits a dead
// upstream to the transport error.
type Gateway struct {
	client          *http.Client
	forecastBaseURL string
	geocodeBaseURL  string
	circuit         *gobreaker.CircuitBreaker
}

// NewGateway creates a Gateway using the given client (whose timeout bounds
// every upstream call).
func NewGateway(client *http.Client) *Gateway {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Gateway{
		client:          client,
		forecastBaseURL: defaultForecastBaseURL,
		geocodeBaseURL:  defaultGeocodeBaseURL,
		circuit:         cb,
	}
}

// SetBaseURLs overrides the upstream endpoints. Used by tests.
func (g *Gateway) SetBaseURLs(forecast, geocode string) {
	g.forecastBaseURL = forecast
	g.geocodeBaseURL = geocode
}

// Forecast proxies a daily-forecast request.
func (g *Gateway) Forecast(ctx context.Context, p ForecastParams) ([]byte, error) {
	values := url.Values{}
	values.Set("latitude", formatFloat(p.Latitude))
	values.Set("longitude", formatFloat(p.Longitude))
	values.Set("daily", orDefault(p.Daily, defaultDaily))
	values.Set("timezone", orDefault(p.Timezone, defaultTimezone))
	if p.ForecastDays != nil {
		values.Set("forecast_days", strconv.Itoa(*p.ForecastDays))
	}
	if p.StartDate != "" {
		values.Set("start_date", p.StartDate)
	}
	if p.EndDate != "" {
		values.Set("end_date", p.EndDate)
	}

	return g.fetchJSON(ctx, fmt.Sprintf("%s/forecast?%s", g.forecastBaseURL, values.Encode()))
}

// Geocode proxies a place-name search.
func (g *Gateway) Geocode(ctx context.Context, p GeocodeParams) ([]byte, error) {
	count := p.Count
	if count == 0 {
		count = defaultCount
	}
	values := url.Values{}
	values.Set("name", p.Name)
	values.Set("count", strconv.Itoa(count))
	values.Set("language", orDefault(p.Language, defaultLanguage))
	values.Set("format", orDefault(p.Format, defaultFormat))

	return g.fetchJSON(ctx, fmt.Sprintf("%s/search?%s", g.geocodeBaseURL, values.Encode()))
}

// Reverse proxies a reverse-geocoding lookup.
func (g *Gateway) Reverse(ctx context.Context, p ReverseParams) ([]byte, error) {
	values := url.Values{}
	values.Set("latitude", formatFloat(p.Latitude))
	values.Set("longitude", formatFloat(p.Longitude))
	values.Set("language", orDefault(p.Language, defaultLanguage))
	values.Set("format", orDefault(p.Format, defaultFormat))

	return g.fetchJSON(ctx, fmt.Sprintf("%s/reverse?%s", g.geocodeBaseURL, values.Encode()))
}

// upstreamResult is the raw answer of one upstream call, successful from the
// breaker's point of view whatever its status code.
type upstreamResult struct {
	status int
	body   []byte
}

// fetchJSON performs the single upstream GET through the circuit breaker and
// returns the raw body when it is valid JSON. Only transport failures count
// against the breaker: an upstream that answers with an HTTP error is alive,
// and its status must stay relayable.
func (g *Gateway) fetchJSON(ctx context.Context, u string) ([]byte, error) {
	result, err := g.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, errTransport
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errTransport
		}
		return upstreamResult{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		// Breaker open or transport-level failure.
		return nil, errTransport
	}

	res := result.(upstreamResult)
	if res.status < 200 || res.status >= 300 {
		return nil, &UpstreamError{Status: res.status, msg: "weather API error"}
	}
	if !json.Valid(res.body) {
		return nil, errBadBody
	}
	return res.body, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
