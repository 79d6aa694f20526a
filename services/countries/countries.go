package countries

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"almanara_go/config"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const cacheKey = "countries:names"

// Service resolves the country-name list used by nationality dropdowns.
// Results are cached in Redis; when both the API and the cache miss, a
// hardcoded fallback list is served so registration forms keep working.
type Service struct {
	baseURL string
	ttl     time.Duration
	http    *http.Client
	redis   *redis.Client
}

func NewService(redisClient *redis.Client) *Service {
	return &Service{
		baseURL: config.AppConfig.CountriesAPIBaseURL,
		ttl:     config.AppConfig.CountriesCacheTTL,
		http:    &http.Client{Timeout: 10 * time.Second},
		redis:   redisClient,
	}
}

// NewWithOptions builds a service with explicit settings (used by tests).
func NewWithOptions(baseURL string, ttl time.Duration, redisClient *redis.Client) *Service {
	return &Service{
		baseURL: baseURL,
		ttl:     ttl,
		http:    &http.Client{Timeout: 10 * time.Second},
		redis:   redisClient,
	}
}

// Names returns the sorted country-name list and whether it came from the
// fallback dataset.
func (s *Service) Names(ctx context.Context) ([]string, bool) {
	if s.redis != nil {
		if raw, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var names []string
			if err := json.Unmarshal([]byte(raw), &names); err == nil && len(names) > 0 {
				return names, false
			}
		}
	}

	names, err := s.fetch(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Country lookup failed, serving fallback list")
		return fallbackNames(), true
	}

	if s.redis != nil {
		if raw, err := json.Marshal(names); err == nil {
			if err := s.redis.Set(ctx, cacheKey, raw, s.ttl).Err(); err != nil {
				logrus.WithError(err).Warn("Failed to cache country list")
			}
		}
	}
	return names, false
}

func (s *Service) fetch(ctx context.Context) ([]string, error) {
	url := s.baseURL + "/all?fields=name"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("country API returned %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var body []struct {
		Name struct {
			Common string `json:"common"`
		} `json:"name"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(body))
	for _, c := range body {
		if c.Name.Common != "" {
			names = append(names, c.Name.Common)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("country API returned an empty list")
	}
	sort.Strings(names)
	return names, nil
}

func fallbackNames() []string {
	return []string{
		"Algeria", "Bahrain", "Egypt", "Iraq", "Jordan", "Kuwait", "Lebanon",
		"Libya", "Morocco", "Oman", "Palestine", "Qatar", "Saudi Arabia",
		"Sudan", "Syria", "Tunisia", "Turkey", "United Arab Emirates", "Yemen",
	}
}
