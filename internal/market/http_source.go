package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"pathforge/internal/catalog"
)

const (
	defaultResultsPerPage = 20
	growingJobCount       = 25
)

// defaultRoles traduce un dominio a busquedas de puestos.
var defaultRoles = map[string][]string{
	"research":    {"Research Scientist", "AI Researcher", "Data Scientist"},
	"engineering": {"Software Engineer", "Mechanical Engineer"},
	"technology":  {"Software Developer", "Backend Developer", "Full Stack Developer"},
	"business":    {"Business Analyst", "Product Manager"},
	"law":         {"Legal Associate", "Corporate Lawyer"},
}

type HTTPOptions struct {
	BaseURL string
	AppID   string
	AppKey  string
	Timeout time.Duration
	Roles   map[string][]string
}

// HTTPSource consulta una API de busqueda de empleos estilo Adzuna
// (GET {base}/{location}/search/1?app_id&app_key&what&results_per_page).
type HTTPSource struct {
	baseURL string
	appID   string
	appKey  string
	roles   map[string][]string
	client  *http.Client
	logger  *zap.Logger
	now     func() time.Time
}

func NewHTTPSource(opts HTTPOptions, logger *zap.Logger) *HTTPSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Roles == nil {
		opts.Roles = defaultRoles
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		appID:   opts.AppID,
		appKey:  opts.AppKey,
		roles:   opts.Roles,
		client:  &http.Client{Timeout: opts.Timeout},
		logger:  logger,
		now:     time.Now,
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, domain, location string) (Snapshot, error) {
	if s.baseURL == "" {
		return Snapshot{}, fmt.Errorf("market http source: %w", ErrNoData)
	}
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		loc = "us"
	}
	roles, ok := s.roles[strings.ToLower(domain)]
	if !ok {
		roles = []string{domain}
	}

	var (
		jobs    []catalog.JobListing
		seen    = map[string]struct{}{}
		salSum  float64
		salN    int
		lastErr error
	)
	for _, role := range roles {
		results, err := s.search(ctx, loc, role)
		if err != nil {
			lastErr = err
			s.logger.Warn("market search failed", zap.String("role", role), zap.Error(err))
			continue
		}
		for _, r := range results {
			if _, dup := seen[r.Title]; dup {
				continue
			}
			seen[r.Title] = struct{}{}
			if r.SalaryMin > 0 && r.SalaryMax > 0 {
				salSum += (r.SalaryMin + r.SalaryMax) / 2
				salN++
			}
			jobs = append(jobs, catalog.JobListing{
				Title:       r.Title,
				Company:     r.Company.DisplayName,
				Location:    r.Location.DisplayName,
				SalaryRange: catalog.SalaryRange{Min: r.SalaryMin, Max: r.SalaryMax},
			})
		}
	}
	if len(jobs) == 0 {
		if lastErr != nil {
			return Snapshot{}, lastErr
		}
		return Snapshot{}, ErrNoData
	}

	trend := "stable"
	if len(jobs) > growingJobCount {
		trend = "growing"
	}
	var avg float64
	if salN > 0 {
		avg = salSum / float64(salN)
	}
	return Snapshot{
		Domain:        domain,
		Location:      loc,
		TotalJobs:     len(jobs),
		Jobs:          jobs,
		HiringTrend:   trend,
		AverageSalary: avg,
		Source:        "http",
		FetchedAt:     s.now().UTC(),
	}, nil
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Title     string  `json:"title"`
	SalaryMin float64 `json:"salary_min"`
	SalaryMax float64 `json:"salary_max"`
	Company   struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
}

func (s *HTTPSource) search(ctx context.Context, location, role string) ([]searchResult, error) {
	q := url.Values{}
	q.Set("app_id", s.appID)
	q.Set("app_key", s.appKey)
	q.Set("what", role)
	q.Set("results_per_page", fmt.Sprint(defaultResultsPerPage))
	endpoint := fmt.Sprintf("%s/%s/search/1?%s", s.baseURL, url.PathEscape(location), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "pathforge")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market http error: status=%d", resp.StatusCode)
	}
	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return sr.Results, nil
}
