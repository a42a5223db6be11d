// Package geo provides the distance and geocoding helpers behind the
// nearest-donation sort. Distance is the plain haversine great-circle
// formula; geocoding is a thin client for a Nominatim-compatible search
// endpoint. Both are deliberately naive: O(n) per listing and one lookup
// per address, with no caching or spatial index.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/SravanamCharan20/EcoBites2/internal/config"
	"github.com/SravanamCharan20/EcoBites2/internal/domain"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between two
// WGS84 coordinate pairs.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Geocoder resolves a postal address to coordinates. Implementations are
// best-effort: a failed lookup returns an error and the caller skips the
// distance rather than failing the listing.
type Geocoder interface {
	Geocode(ctx context.Context, addr domain.Address) (Coordinates, error)
}

// NominatimClient implements Geocoder against a Nominatim-compatible
// /search endpoint (format=json&limit=1).
type NominatimClient struct {
	baseURL string
	client  *http.Client
}

// NewNominatimClient builds a client from the geocoder configuration.
func NewNominatimClient(cfg config.GeocoderConfig) *NominatimClient {
	return &NominatimClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Geocode resolves addr via the search endpoint. It requires at least city,
// state, and country before querying.
func (n *NominatimClient) Geocode(ctx context.Context, addr domain.Address) (Coordinates, error) {
	if addr.City == "" || addr.State == "" || addr.Country == "" {
		return Coordinates{}, fmt.Errorf("geo: incomplete address")
	}

	var sb strings.Builder
	if addr.Street != "" {
		sb.WriteString(addr.Street)
		sb.WriteString(" ")
	}
	sb.WriteString(addr.City)
	sb.WriteString(", ")
	sb.WriteString(addr.State)
	sb.WriteString(", ")
	sb.WriteString(addr.Country)

	q := url.Values{}
	q.Set("q", sb.String())
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return Coordinates{}, err
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return Coordinates{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("geo: search returned %d", resp.StatusCode)
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Coordinates{}, err
	}
	if len(results) == 0 {
		return Coordinates{}, fmt.Errorf("geo: no match for address")
	}
	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Coordinates{}, err
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Coordinates{}, err
	}
	return Coordinates{Lat: lat, Lon: lon}, nil
}

// interface guard
var _ Geocoder = (*NominatimClient)(nil)
