package action

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// WeatherAction looks up current weather conditions through the OpenWeather
// API. The API key is read from the OPENWEATHER_API_KEY environment variable
// at construction time.
type WeatherAction struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewWeatherAction constructs a WeatherAction for registration.
func NewWeatherAction() Action {
	return &WeatherAction{
		apiKey:  os.Getenv("OPENWEATHER_API_KEY"),
		baseURL: "https://api.openweathermap.org/data/2.5",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// NewWeatherActionWithKey constructs a WeatherAction with an explicit API
// key, for configurations that do not use the environment.
func NewWeatherActionWithKey(apiKey string) Action {
	a := NewWeatherAction().(*WeatherAction)
	a.apiKey = apiKey
	return a
}

// Name implements Action.
func (a *WeatherAction) Name() string { return "get_weather" }

// Description implements Action.
func (a *WeatherAction) Description() string {
	return "Get current weather information for a location"
}

// RequiredParameters implements Action.
func (a *WeatherAction) RequiredParameters() map[string]string {
	return map[string]string{
		"location": "Name of the city or location (optionally include state/country code, e.g., 'London,UK' or 'New York,US')",
		"units":    "Temperature units (metric/imperial), defaults to imperial",
	}
}

// Examples implements Action.
func (a *WeatherAction) Examples() []Example {
	return []Example{
		{
			Query: "What's the weather in London?",
			Response: map[string]any{
				"actions": []any{map[string]any{
					"name":       "get_weather",
					"parameters": map[string]any{"location": "London,UK", "units": "imperial"},
				}},
			},
			Description: "Basic weather query with country code",
		},
		{
			Query: "Get the temperature in New York in Celsius",
			Response: map[string]any{
				"actions": []any{map[string]any{
					"name":       "get_weather",
					"parameters": map[string]any{"location": "New York,US", "units": "metric"},
				}},
			},
			Description: "Weather query with country code and metric units",
		},
		{
			Query: "How's the weather in NYC?",
			Response: map[string]any{
				"actions": []any{map[string]any{
					"name":       "get_weather",
					"parameters": map[string]any{"location": "New York,US", "units": "imperial"},
				}},
			},
			Description: "Weather query with city abbreviation",
		},
	}
}

// cityAbbreviations maps common shorthand to OpenWeather query strings.
var cityAbbreviations = map[string]string{
	"NYC":    "New York,US",
	"LA":     "Los Angeles,US",
	"SF":     "San Francisco,US",
	"DC":     "Washington,US",
	"LONDON": "London,UK",
	"PARIS":  "Paris,FR",
	"TOKYO":  "Tokyo,JP",
}

var usCities = []string{
	"New York", "Los Angeles", "Chicago", "Houston", "Phoenix", "Philadelphia",
	"San Antonio", "San Diego", "Dallas", "San Jose",
}

var worldCities = map[string]string{
	"london":  "UK",
	"paris":   "FR",
	"tokyo":   "JP",
	"berlin":  "DE",
	"rome":    "IT",
	"madrid":  "ES",
	"moscow":  "RU",
	"beijing": "CN",
	"seoul":   "KR",
	"sydney":  "AU",
}

// formatLocation normalizes a user-supplied location into the query string
// OpenWeather expects, appending a country code for well-known cities.
func (a *WeatherAction) formatLocation(location string) string {
	if mapped, ok := cityAbbreviations[strings.ToUpper(strings.TrimSpace(location))]; ok {
		return mapped
	}
	if strings.Contains(location, ",") {
		return location
	}
	for _, city := range usCities {
		if strings.EqualFold(city, location) {
			return location + ",US"
		}
	}
	if code, ok := worldCities[strings.ToLower(location)]; ok {
		return location + "," + code
	}
	return location
}

type weatherResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// Execute implements Action.
func (a *WeatherAction) Execute(ctx context.Context, params map[string]any) *Result {
	if a.apiKey == "" {
		return &Result{
			Success: false,
			Message: "OpenWeather API key not configured",
			Error:   "OpenWeather API key is required. Set OPENWEATHER_API_KEY environment variable.",
		}
	}

	location, ok := params["location"].(string)
	if !ok || location == "" {
		return &Result{
			Success: false,
			Message: "Missing required parameter",
			Error:   "Missing parameter: location",
		}
	}
	location = a.formatLocation(location)

	units := "imperial"
	if u, ok := params["units"].(string); ok && u != "" {
		units = u
	}
	if units != "metric" && units != "imperial" {
		return &Result{
			Success: false,
			Message: "Invalid units parameter",
			Error:   "Units must be either 'metric' or 'imperial'",
		}
	}

	query := url.Values{}
	query.Set("q", location)
	query.Set("appid", a.apiKey)
	query.Set("units", units)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/weather?"+query.Encode(), nil)
	if err != nil {
		return &Result{
			Success: false,
			Message: "Failed to get weather information",
			Error:   err.Error(),
		}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return &Result{
			Success: false,
			Message: "Failed to get weather information",
			Error:   err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Message string `json:"message"`
		}
		errMsg := "Unknown error"
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			errMsg = apiErr.Message
		}
		return &Result{
			Success: false,
			Message: fmt.Sprintf("Failed to get weather data: %s", errMsg),
			Error:   errMsg,
		}
	}

	var data weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return &Result{
			Success: false,
			Message: "Failed to get weather information",
			Error:   err.Error(),
		}
	}

	tempUnit := "°F"
	speedUnit := "mph"
	if units == "metric" {
		tempUnit = "°C"
		speedUnit = "m/s"
	}

	description := ""
	if len(data.Weather) > 0 {
		description = capitalize(data.Weather[0].Description)
	}

	info := map[string]any{
		"location":    fmt.Sprintf("%s, %s", data.Name, data.Sys.Country),
		"temperature": fmt.Sprintf("%g%s", data.Main.Temp, tempUnit),
		"feels_like":  fmt.Sprintf("%g%s", data.Main.FeelsLike, tempUnit),
		"humidity":    fmt.Sprintf("%d%%", data.Main.Humidity),
		"pressure":    fmt.Sprintf("%d hPa", data.Main.Pressure),
		"wind_speed":  fmt.Sprintf("%g %s", data.Wind.Speed, speedUnit),
		"description": description,
		"units":       units,
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf(
			"Current weather in %s: %s, Temperature: %s (feels like %s), Humidity: %s, Wind: %s",
			info["location"], info["description"], info["temperature"],
			info["feels_like"], info["humidity"], info["wind_speed"],
		),
		Data: info,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
