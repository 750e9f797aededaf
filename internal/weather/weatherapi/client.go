// Package weatherapi implements weather.Provider on top of WeatherAPI.com.
package weatherapi

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

	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"

	"github.com/m3rciful/weatherbot/internal/weather"
)

const (
	DefaultBaseURL = "https://api.weatherapi.com/v1"

	// codeNoLocation is WeatherAPI's "No matching location found" error.
	codeNoLocation = 1006

	maxErrorBody = 64 << 10
)

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errCircuitOpen = errors.New("circuit breaker open")
	errNoAPIKey    = errors.New("weatherapi api key is not configured")
)

// APIError is a non-2xx answer decoded from WeatherAPI's error envelope.
type APIError struct {
	Status  int
	Code    int64
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("weatherapi: status %d", e.Status)
	}
	return fmt.Sprintf("weatherapi: %s (code %d, status %d)", e.Message, e.Code, e.Status)
}

func (e *APIError) Is(target error) bool {
	return target == weather.ErrLocationNotFound && e.Code == codeNoLocation
}

// Backoff controls retries of rate-limited and failing requests.
type Backoff struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Backoff    Backoff
}

// Client talks to the WeatherAPI.com REST endpoints.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	backoff Backoff
	circuit *gobreaker.CircuitBreaker
}

var _ weather.Provider = (*Client)(nil)

func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	bo := opts.Backoff
	if bo.InitialInterval <= 0 {
		bo = Backoff{MaxRetries: 3, InitialInterval: 500 * time.Millisecond, MaxInterval: 5 * time.Second}
	}
	return &Client{
		apiKey:  opts.APIKey,
		baseURL: base,
		http:    hc,
		backoff: bo,
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "weatherapi",
			MaxRequests: 5,
			Interval:    time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
}

type location struct {
	Name      string `json:"name"`
	Region    string `json:"region"`
	Country   string `json:"country"`
	LocalTime string `json:"localtime"`
}

func (l location) toDomain() weather.Location {
	return weather.Location{Name: l.Name, Region: l.Region, Country: l.Country, LocalTime: l.LocalTime}
}

type condition struct {
	Text string `json:"text"`
}

type currentPayload struct {
	Location location `json:"location"`
	Current  struct {
		TempC      float64   `json:"temp_c"`
		FeelsLikeC float64   `json:"feelslike_c"`
		WindKPH    float64   `json:"wind_kph"`
		WindDir    string    `json:"wind_dir"`
		Humidity   int       `json:"humidity"`
		Condition  condition `json:"condition"`
	} `json:"current"`
}

type forecastPayload struct {
	Location location `json:"location"`
	Forecast struct {
		Days []struct {
			Date string `json:"date"`
			Day  struct {
				MaxTempC    float64   `json:"maxtemp_c"`
				MinTempC    float64   `json:"mintemp_c"`
				AvgHumidity float64   `json:"avghumidity"`
				MaxWindKPH  float64   `json:"maxwind_kph"`
				Condition   condition `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// Current fetches the current observation for city.
func (c *Client) Current(ctx context.Context, city string) (weather.Current, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("aqi", "no")

	var p currentPayload
	if err := c.get(ctx, "current.json", q, &p); err != nil {
		return weather.Current{}, fmt.Errorf("current weather for %q: %w", city, err)
	}
	return weather.Current{
		Location:   p.Location.toDomain(),
		TempC:      p.Current.TempC,
		FeelsLikeC: p.Current.FeelsLikeC,
		WindKPH:    p.Current.WindKPH,
		WindDir:    p.Current.WindDir,
		Humidity:   p.Current.Humidity,
		Condition:  p.Current.Condition.Text,
	}, nil
}

// Forecast fetches a daily forecast of the given number of days.
func (c *Client) Forecast(ctx context.Context, city string, days int) (weather.Forecast, error) {
	if days <= 0 {
		days = 1
	}
	q := url.Values{}
	q.Set("q", city)
	q.Set("days", strconv.Itoa(days))
	q.Set("aqi", "no")
	q.Set("alerts", "no")

	var p forecastPayload
	if err := c.get(ctx, "forecast.json", q, &p); err != nil {
		return weather.Forecast{}, fmt.Errorf("forecast for %q: %w", city, err)
	}
	out := weather.Forecast{Location: p.Location.toDomain(), Days: make([]weather.Day, 0, len(p.Forecast.Days))}
	for _, d := range p.Forecast.Days {
		out.Days = append(out.Days, weather.Day{
			Date:        d.Date,
			MaxTempC:    d.Day.MaxTempC,
			MinTempC:    d.Day.MinTempC,
			AvgHumidity: d.Day.AvgHumidity,
			MaxWindKPH:  d.Day.MaxWindKPH,
			Condition:   d.Day.Condition.Text,
		})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, dst any) error {
	if c.apiKey == "" {
		return errNoAPIKey
	}
	q.Set("key", c.apiKey)
	target := c.baseURL + "/" + endpoint + "?" + q.Encode()

	resp, err := c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

// do runs the request through the circuit breaker with exponential backoff.
// Client errors (4xx other than 429) are returned to the caller as responses
// and do not count as breaker failures.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req, err := build()
		if err != nil {
			return nil, err
		}

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, execErr := c.http.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				drain(resp)
				return nil, errRateLimited
			case resp.StatusCode >= 500:
				drain(resp)
				return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
			}
			return resp, nil
		})
		if err == nil {
			return result.(*http.Response), nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		if attempt >= c.backoff.MaxRetries {
			return nil, lastErr
		}
		delay := c.backoff.InitialInterval << attempt
		if c.backoff.MaxInterval > 0 && delay > c.backoff.MaxInterval {
			delay = c.backoff.MaxInterval
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{Status: resp.StatusCode}
	if gjson.ValidBytes(body) {
		res := gjson.GetManyBytes(body, "error.code", "error.message")
		apiErr.Code = res[0].Int()
		apiErr.Message = res[1].String()
	}
	return apiErr
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
}
