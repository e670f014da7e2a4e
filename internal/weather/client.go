// Package weather answers weather questions from the AMap (高德) web API.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://restapi.amap.com/v3"

// ErrNoKey is returned when no AMap key is configured.
var ErrNoKey = errors.New("amap key not configured")

// APIError is an AMap answer whose status is not "1".
type APIError struct {
	Status   string
	Info     string
	InfoCode string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("amap: status=%s info=%s infocode=%s", e.Status, e.Info, e.InfoCode)
}

// Live is the current weather for one city.
type Live struct {
	Province      string `json:"province"`
	City          string `json:"city"`
	Adcode        string `json:"adcode"`
	Weather       string `json:"weather"`
	Temperature   string `json:"temperature"`
	WindDirection string `json:"winddirection"`
	WindPower     string `json:"windpower"`
	Humidity      string `json:"humidity"`
	ReportTime    string `json:"reporttime"`
}

// Cast is one forecast day.
type Cast struct {
	Date         string `json:"date"`
	Week         string `json:"week"`
	DayWeather   string `json:"dayweather"`
	NightWeather string `json:"nightweather"`
	DayTemp      string `json:"daytemp"`
	NightTemp    string `json:"nighttemp"`
	DayWind      string `json:"daywind"`
	NightWind    string `json:"nightwind"`
	DayPower     string `json:"daypower"`
	NightPower   string `json:"nightpower"`
}

// Forecast is the multi-day forecast for one city.
type Forecast struct {
	City       string `json:"city"`
	Adcode     string `json:"adcode"`
	Province   string `json:"province"`
	ReportTime string `json:"reporttime"`
	Casts      []Cast `json:"casts"`
}

type weatherResponse struct {
	Status    string     `json:"status"`
	Count     string     `json:"count"`
	Info      string     `json:"info"`
	InfoCode  string     `json:"infocode"`
	Lives     []Live     `json:"lives"`
	Forecasts []Forecast `json:"forecasts"`
}

// Client calls the AMap weatherInfo endpoint.
type Client struct {
	baseURL string
	key     string
	http    *http.Client
}

// NewClient creates a client. An empty baseURL uses the public AMap host.
func NewClient(baseURL, key string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		http:    &http.Client{Timeout: timeout},
	}
}

// HasKey reports whether an API key is configured.
func (c *Client) HasKey() bool { return c.key != "" }

// Live returns the current weather for an adcode.
func (c *Client) Live(ctx context.Context, city string) (*Live, error) {
	resp, err := c.weatherInfo(ctx, city, "base")
	if err != nil {
		return nil, err
	}
	if len(resp.Lives) == 0 {
		return nil, &APIError{Status: resp.Status, Info: "empty lives", InfoCode: resp.InfoCode}
	}
	return &resp.Lives[0], nil
}

// Forecast returns the forecast for an adcode.
func (c *Client) Forecast(ctx context.Context, city string) (*Forecast, error) {
	resp, err := c.weatherInfo(ctx, city, "all")
	if err != nil {
		return nil, err
	}
	if len(resp.Forecasts) == 0 {
		return nil, &APIError{Status: resp.Status, Info: "empty forecasts", InfoCode: resp.InfoCode}
	}
	return &resp.Forecasts[0], nil
}

func (c *Client) weatherInfo(ctx context.Context, city, extensions string) (*weatherResponse, error) {
	if c.key == "" {
		return nil, ErrNoKey
	}

	q := url.Values{}
	q.Set("city", city)
	q.Set("key", c.key)
	q.Set("extensions", extensions)
	q.Set("output", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather/weatherInfo?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request weather: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	var out weatherResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if out.Status != "1" {
		return nil, &APIError{Status: out.Status, Info: out.Info, InfoCode: out.InfoCode}
	}
	return &out, nil
}
