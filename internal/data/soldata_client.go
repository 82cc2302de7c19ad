package data

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"battery-backtest/internal/model"
)

// maxQueryAttempts bounds retries on transient (429/5xx) responses.
// No ecosystem retry/backoff library is grounded anywhere in the example
// pack (checked every go.mod; none import one), so this loop is hand-rolled
// stdlib rather than fabricating a dependency.
const maxQueryAttempts = 4

// SolarDataClient fetches hourly solar generation profiles from a remote
// solar-data provider.
type SolarDataClient struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewSolarDataClient creates a new solar-data API client. If baseURL is
// empty, defaults to "https://api.solardata.example".
func NewSolarDataClient(apiKey string, baseURL string) *SolarDataClient {
	if baseURL == "" {
		baseURL = "https://api.solardata.example"
	}
	return &SolarDataClient{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// QueryProfileParams defines parameters for fetching one site's hourly
// solar generation profile.
type QueryProfileParams struct {
	ProfileID string    // e.g. "caiso_solar_site_42"
	SiteID    string    // e.g. "SV_SOLAR6A"
	StartTime time.Time // start of year
	EndTime   time.Time // end of year
	Timezone  string    // e.g. "site", "UTC" (default: "site")
	Download  bool
}

// SolarDataError represents an error from the solar-data API.
type SolarDataError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string // For rate limit errors
}

func (e *SolarDataError) Error() string {
	return e.Message
}

// solarProfileResponse is the wire shape returned by QueryProfile before
// it is turned into a model.SolarProfile.
type solarProfileResponse struct {
	Site  string            `json:"site"`
	Hours []model.SolarHour `json:"hours"`
}

// QueryProfile fetches an hourly solar generation series for a specific
// site from the remote API, retrying transient 429/5xx responses and making
// at most maxQueryAttempts attempts in all before giving up.
//
// WARNING: If caching is enabled (ENABLE_SOLARDATA_CACHE=true), responses
// may be cached. Caching is ONLY for LOCAL DEVELOPMENT; check the solar
// data provider's Terms of Use before enabling in any production-like
// environment.
func (c *SolarDataClient) QueryProfile(params QueryProfileParams) (*model.SolarProfile, error) {
	if err := c.validateAPIKey(); err != nil {
		return nil, err
	}
	if err := validateQueryParams(params); err != nil {
		return nil, err
	}

	cache := GetCache()
	cacheKey := GenerateCacheKey(params)
	if cache != nil {
		if cached, found := cache.Get(cacheKey); found {
			log.Printf("[SolarData] Cache hit: using cached response (profile=%s, site=%s, start=%s, end=%s)",
				params.ProfileID, params.SiteID,
				params.StartTime.Format("2006-01-02"), params.EndTime.Format("2006-01-02"))
			return cached, nil
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxQueryAttempts; attempt++ {
		profile, sdErr := c.doQuery(params)
		if sdErr == nil {
			if cache != nil {
				cache.Set(cacheKey, profile)
				log.Printf("[SolarData] Cached response (profile=%s, site=%s)", params.ProfileID, params.SiteID)
			}
			return profile, nil
		}
		lastErr = sdErr
		if !isRetryableStatus(sdErr.StatusCode) || attempt == maxQueryAttempts {
			return nil, sdErr
		}
		wait := retryDelay(attempt, sdErr.RetryAfter)
		log.Printf("[SolarData] Retrying in %v after %s (attempt %d/%d, profile=%s, site=%s)",
			wait, sdErr.Code, attempt, maxQueryAttempts, params.ProfileID, params.SiteID)
		time.Sleep(wait)
	}
	return nil, lastErr
}

func validateQueryParams(params QueryProfileParams) error {
	if params.ProfileID == "" {
		return fmt.Errorf("profile_id is required")
	}
	if params.SiteID == "" {
		return fmt.Errorf("site_id is required")
	}
	if params.StartTime.IsZero() || params.EndTime.IsZero() {
		return fmt.Errorf("start_time and end_time are required")
	}
	if params.StartTime.After(params.EndTime) {
		return fmt.Errorf("start_time must be before end_time")
	}
	return nil
}

// isRetryableStatus reports whether a failed response is worth retrying:
// rate limiting and server-side failures, but never an auth problem.
func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// retryDelay honors the server's Retry-After header when present (seconds,
// per RFC 9110 §10.2.3), otherwise backs off exponentially from a 500ms
// base with up to 20% jitter so concurrent callers don't retry in lockstep.
func retryDelay(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if secs, err := time.ParseDuration(retryAfter + "s"); err == nil {
			return secs
		}
	}
	base := 500 * time.Millisecond * time.Duration(math.Pow(2, float64(attempt-1)))
	jitter := time.Duration(rand.Int63n(int64(base) / 5))
	return base + jitter
}

// doQuery performs a single request attempt. A non-nil *SolarDataError
// carries the HTTP status of an API failure in StatusCode; request-building,
// transport, decode and shape failures carry StatusCode 0, so QueryProfile
// does not retry them.
func (c *SolarDataClient) doQuery(params QueryProfileParams) (*model.SolarProfile, *SolarDataError) {
	u, err := c.buildQueryURL(params)
	if err != nil {
		return nil, &SolarDataError{Code: "INVALID_REQUEST", Message: err.Error()}
	}

	log.Printf("[SolarData] Request: GET %s (profile=%s, site=%s, start=%s, end=%s)",
		u.Path, params.ProfileID, params.SiteID,
		params.StartTime.Format("2006-01-02"), params.EndTime.Format("2006-01-02"))

	req, err := http.NewRequest("GET", u.String(), nil)
	if err != nil {
		return nil, &SolarDataError{Code: "INVALID_REQUEST", Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.Client.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		log.Printf("[SolarData] Request failed: %v (duration: %v)", err, duration)
		return nil, &SolarDataError{Code: "TRANSPORT_ERROR", Message: fmt.Sprintf("failed to execute request: %v", err)}
	}
	defer resp.Body.Close()

	log.Printf("[SolarData] Response: %d %s (duration: %v, profile=%s, site=%s)",
		resp.StatusCode, resp.Status, duration, params.ProfileID, params.SiteID)

	if sdErr := statusToError(resp, params); sdErr != nil {
		return nil, sdErr
	}

	var wire solarProfileResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		log.Printf("[SolarData] Error decoding response: %v (profile=%s, site=%s)", err, params.ProfileID, params.SiteID)
		return nil, &SolarDataError{Code: "DECODE_ERROR", Message: fmt.Sprintf("failed to decode response: %v", err)}
	}
	log.Printf("[SolarData] Success: received %d hours (profile=%s, site=%s)", len(wire.Hours), params.ProfileID, params.SiteID)

	profile, err := model.NewSolarProfile(wire.Site, wire.Hours)
	if err != nil {
		return nil, &SolarDataError{Code: "INVALID_SHAPE", Message: err.Error()}
	}
	return profile, nil
}

func (c *SolarDataClient) buildQueryURL(params QueryProfileParams) (*url.URL, error) {
	path := fmt.Sprintf("/v1/profiles/%s/query/site/%s", params.ProfileID, params.SiteID)
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	q := u.Query()
	q.Set("start_time", params.StartTime.Format("2006-01-02"))
	q.Set("end_time", params.EndTime.Format("2006-01-02"))
	if params.Timezone != "" {
		q.Set("timezone", params.Timezone)
	} else {
		q.Set("timezone", "site")
	}
	if params.Download {
		q.Set("download", "true")
	}
	u.RawQuery = q.Encode()
	return u, nil
}

func statusToError(resp *http.Response, params QueryProfileParams) *SolarDataError {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusForbidden:
		log.Printf("[SolarData] Error: 403 Forbidden - invalid API key or insufficient permissions (profile=%s, site=%s)",
			params.ProfileID, params.SiteID)
		return &SolarDataError{
			StatusCode: resp.StatusCode,
			Code:       "INVALID_API_KEY",
			Message:    "Invalid API key or insufficient permissions",
		}
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		log.Printf("[SolarData] Error: 429 rate limit exceeded - retry after: %s (profile=%s, site=%s)",
			retryAfter, params.ProfileID, params.SiteID)
		return &SolarDataError{
			StatusCode: resp.StatusCode,
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    fmt.Sprintf("Rate limit exceeded. Retry after: %s", retryAfter),
			RetryAfter: retryAfter,
		}
	case http.StatusUnauthorized:
		log.Printf("[SolarData] Error: 401 unauthorized - invalid API key (profile=%s, site=%s)",
			params.ProfileID, params.SiteID)
		return &SolarDataError{
			StatusCode: resp.StatusCode,
			Code:       "UNAUTHORIZED",
			Message:    "Unauthorized: invalid API key",
		}
	default:
		log.Printf("[SolarData] Error: %d %s (profile=%s, site=%s)", resp.StatusCode, resp.Status, params.ProfileID, params.SiteID)
		return &SolarDataError{
			StatusCode: resp.StatusCode,
			Code:       "API_ERROR",
			Message:    fmt.Sprintf("API returned status %d: %s", resp.StatusCode, resp.Status),
		}
	}
}

// validateAPIKey validates that the API key is present and not obviously invalid.
func (c *SolarDataClient) validateAPIKey() error {
	if c.APIKey == "" {
		return &SolarDataError{
			StatusCode: 0,
			Code:       "MISSING_API_KEY",
			Message:    "API key is required",
		}
	}
	if len(c.APIKey) < 10 {
		return &SolarDataError{
			StatusCode: 0,
			Code:       "INVALID_API_KEY_FORMAT",
			Message:    "API key appears to be invalid (too short)",
		}
	}
	return nil
}

// QueryProfileByString is a convenience method that parses date strings.
// startDate and endDate should be in "YYYY-MM-DD" format.
func (c *SolarDataClient) QueryProfileByString(profileID, siteID, startDate, endDate string) (*model.SolarProfile, error) {
	startTime, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date format (expected YYYY-MM-DD): %w", err)
	}
	endTime, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date format (expected YYYY-MM-DD): %w", err)
	}

	return c.QueryProfile(QueryProfileParams{
		ProfileID: profileID,
		SiteID:    siteID,
		StartTime: startTime,
		EndTime:   endTime,
		Timezone:  "site",
		Download:  true,
	})
}
