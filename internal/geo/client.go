// Package geo proxies the public geography API (provinces and localities)
// behind an in-memory cache.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
)

const cacheEntries = 64

type Place struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type georefPlace struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
}

type Client struct {
	baseURL string
	http    *http.Client
	cache   *lru.LRU[string, []Place]
}

func NewClient(baseURL string, ttl time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   lru.NewLRU[string, []Place](cacheEntries, nil, ttl),
	}
}

// Provinces returns every province, sorted by name. When the upstream cannot
// be reached the built-in list is returned and fallback is true; the fallback
// is not cached.
func (c *Client) Provinces(ctx context.Context) (places []Place, fallback bool) {
	if cached, ok := c.cache.Get("provinces"); ok {
		return cached, false
	}

	q := url.Values{}
	q.Set("campos", "id,nombre")
	q.Set("max", "100")
	places, err := c.fetch(ctx, "/provincias", "provincias", q)
	if err != nil {
		log.Warn().Err(err).Msg("geo: usando lista de provincias local")
		return fallbackProvinces(), true
	}

	c.cache.Add("provinces", places)
	return places, false
}

// Localities returns the localities of a province, sorted by name.
func (c *Client) Localities(ctx context.Context, provinceID string) ([]Place, error) {
	key := "localities:" + provinceID
	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}

	q := url.Values{}
	q.Set("provincia", provinceID)
	q.Set("campos", "id,nombre")
	q.Set("max", "5000")
	places, err := c.fetch(ctx, "/localidades", "localidades", q)
	if err != nil {
		return nil, err
	}

	c.cache.Add(key, places)
	return places, nil
}

func (c *Client) fetch(ctx context.Context, path, field string, q url.Values) ([]Place, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geo: armando request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo: %s respondió %d", path, resp.StatusCode)
	}

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("geo: decodificando %s: %w", path, err)
	}
	raw, ok := payload[field]
	if !ok {
		return nil, fmt.Errorf("geo: respuesta de %s sin %q", path, field)
	}
	var items []georefPlace
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("geo: decodificando %s: %w", field, err)
	}

	places := make([]Place, 0, len(items))
	for _, it := range items {
		places = append(places, Place{ID: it.ID, Name: it.Nombre})
	}
	sort.Slice(places, func(i, j int) bool { return places[i].Name < places[j].Name })
	return places, nil
}
