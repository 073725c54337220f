// Package buildinfo reads the current flights from the build-metadata API.
package buildinfo

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"insiderbot/internal/domain"
)

const (
	requestTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
	userAgent      = "insiderbot/1.0 (+https://github.com/insiderbot/insiderbot)"
)

var ErrDisabled = errors.New("build API is disabled")

type response struct {
	Flights []domain.Flight `json:"flights"`
}

type Client struct {
	url    string
	client *http.Client
	cache  *expirable.LRU[string, []domain.Flight]
	log    *slog.Logger
}

// New returns a client; an empty url yields a client whose calls return ErrDisabled.
func New(url string, client *http.Client, ttl time.Duration, log *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}

	return &Client{
		url:    strings.TrimSpace(url),
		client: client,
		cache:  expirable.NewLRU[string, []domain.Flight](1, nil, ttl),
		log:    log,
	}
}

func (c *Client) Enabled() bool {
	return c.url != ""
}

func (c *Client) Flights(ctx context.Context) ([]domain.Flight, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	if flights, ok := c.cache.Get(c.url); ok {
		return flights, nil
	}

	flights, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.cache.Add(c.url, flights)

	c.log.DebugContext(ctx, "Flights are fetched",
		"url", c.url,
		"count", len(flights))

	return flights, nil
}

// Latest returns the newest flight of every ring for the platform, ordered by ring name.
func (c *Client) Latest(ctx context.Context, platform string) ([]domain.Flight, error) {
	flights, err := c.Flights(ctx)
	if err != nil {
		return nil, err
	}

	newest := make(map[string]domain.Flight)

	for _, flight := range flights {
		if !strings.EqualFold(strings.TrimSpace(flight.Platform), platform) {
			continue
		}

		ring := strings.ToLower(strings.TrimSpace(flight.Ring))
		if current, ok := newest[ring]; !ok || compareBuilds(flight.Build, current.Build) > 0 {
			newest[ring] = flight
		}
	}

	latest := make([]domain.Flight, 0, len(newest))
	for _, flight := range newest {
		latest = append(latest, flight)
	}

	slices.SortFunc(latest, func(a, b domain.Flight) int {
		return cmp.Compare(strings.ToLower(a.Ring), strings.ToLower(b.Ring))
	})

	return latest, nil
}

func (c *Client) fetch(ctx context.Context) ([]domain.Flight, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.WarnContext(ctx, "Failed to close response body",
				"error", err,
				"url", c.url)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var body response
	if err = json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode flights: %w", err)
	}

	return body.Flights, nil
}

// compareBuilds orders "major.revision" build strings numerically.
func compareBuilds(a, b string) int {
	aMajor, aRev := splitBuild(a)
	bMajor, bRev := splitBuild(b)

	if c := cmp.Compare(aMajor, bMajor); c != 0 {
		return c
	}

	return cmp.Compare(aRev, bRev)
}

func splitBuild(build string) (int, int) {
	major, rev, _ := strings.Cut(strings.TrimSpace(build), ".")

	m, _ := strconv.Atoi(major)
	r, _ := strconv.Atoi(rev)

	return m, r
}
