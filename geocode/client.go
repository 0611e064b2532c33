package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"places-api/model"
)

// ErrNoResults means the geocoding service answered but knows no
// coordinates for the given address.
var ErrNoResults = errors.New("no results for address")

const defaultBaseURL = "https://api.opencagedata.com/geocode/v1/json"

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: http.DefaultClient,
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
	}
}

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
	} `json:"results"`
}

// Resolve looks up a free-text address and returns the first result's
// coordinate pair. One request, no retries.
func (c *Client) Resolve(ctx context.Context, address string) (model.Location, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("key", c.apiKey)
	params.Set("limit", "1")

	u := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.Location{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Location{}, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Location{}, fmt.Errorf("geocoding service returned status %d", resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Location{}, fmt.Errorf("decoding geocoding response: %w", err)
	}

	if len(body.Results) == 0 {
		return model.Location{}, ErrNoResults
	}

	g := body.Results[0].Geometry
	return model.Location{Lat: g.Lat, Lng: g.Lng}, nil
}
