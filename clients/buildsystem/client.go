package buildsystem

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/opentracing-contrib/go-stdlib/nethttp"
	"github.com/opentracing/opentracing-go"
	"github.com/rs/zerolog/log"
	"github.com/sethgrid/pester"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/relengfoundry/assembly-gen/api"
)

// Client is the interface for querying the build system hub
//go:generate mockgen -package=buildsystem -destination ./mock.go -source=client.go
type Client interface {
	GetBuildForImage(ctx context.Context, pullspec string) (*api.Build, error)
	GetBuildsByIDs(ctx context.Context, buildIDs []int64) ([]api.Build, error)
	GetLatestBuildBefore(ctx context.Context, packageName string, event int64, elTarget int) (*api.Build, error)
	EventAtOrBefore(ctx context.Context, instant time.Time) (int64, error)
	ListImageRPMBuildIDs(ctx context.Context, buildIDs []int64) ([]int64, error)
}

// NewClient returns a new buildsystem.Client talking to the hub at hubURL
func NewClient(hubURL string, qps int, concurrency int) (Client, error) {
	if hubURL == "" {
		return nil, fmt.Errorf("build system hub url is required")
	}

	httpClient := pester.NewExtendedClient(&http.Client{Transport: &nethttp.Transport{}})
	httpClient.MaxRetries = 3
	httpClient.Backoff = pester.ExponentialJitterBackoff
	httpClient.KeepLog = true
	httpClient.Timeout = 60 * time.Second

	return &client{
		hubURL:     strings.TrimRight(hubURL, "/"),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(qps), qps),
		semaphore:  semaphore.NewWeighted(int64(concurrency)),
	}, nil
}

type client struct {
	hubURL     string
	httpClient *pester.Client
	limiter    *rate.Limiter
	semaphore  *semaphore.Weighted
}

func (c *client) GetBuildForImage(ctx context.Context, pullspec string) (*api.Build, error) {
	params := url.Values{}
	params.Set("pullspec", pullspec)

	body, found, err := c.get(ctx, "GetBuildForImage", "/builds/for-image", params)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("no build produced image %v", pullspec)
	}

	var build api.Build
	if err = json.Unmarshal(body, &build); err != nil {
		return nil, fmt.Errorf("failed unmarshalling build for image %v: %w", pullspec, err)
	}

	return &build, nil
}

func (c *client) GetBuildsByIDs(ctx context.Context, buildIDs []int64) ([]api.Build, error) {
	if len(buildIDs) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("ids", joinIDs(buildIDs))

	body, found, err := c.get(ctx, "GetBuildsByIDs", "/builds", params)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("build lookup by ids returned no result")
	}

	var builds []api.Build
	if err = json.Unmarshal(body, &builds); err != nil {
		return nil, fmt.Errorf("failed unmarshalling builds by ids: %w", err)
	}

	return builds, nil
}

func (c *client) GetLatestBuildBefore(ctx context.Context, packageName string, event int64, elTarget int) (*api.Build, error) {
	params := url.Values{}
	params.Set("package", packageName)
	params.Set("before_event", strconv.FormatInt(event, 10))
	if elTarget > 0 {
		params.Set("el", strconv.Itoa(elTarget))
	}

	body, found, err := c.get(ctx, "GetLatestBuildBefore", "/builds/latest", params)
	if err != nil {
		return nil, err
	}
	if !found {
		// absence is a valid answer here, the caller decides whether it is fatal
		return nil, nil
	}

	var build api.Build
	if err = json.Unmarshal(body, &build); err != nil {
		return nil, fmt.Errorf("failed unmarshalling latest build for package %v: %w", packageName, err)
	}

	return &build, nil
}

func (c *client) EventAtOrBefore(ctx context.Context, instant time.Time) (int64, error) {
	params := url.Values{}
	params.Set("ts", instant.UTC().Format(time.RFC3339))

	body, found, err := c.get(ctx, "EventAtOrBefore", "/events/at-or-before", params)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}

	var event struct {
		ID int64 `json:"id"`
	}
	if err = json.Unmarshal(body, &event); err != nil {
		return 0, fmt.Errorf("failed unmarshalling event at or before %v: %w", instant, err)
	}

	return event.ID, nil
}

func (c *client) ListImageRPMBuildIDs(ctx context.Context, buildIDs []int64) ([]int64, error) {
	if len(buildIDs) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("ids", joinIDs(buildIDs))

	body, found, err := c.get(ctx, "ListImageRPMBuildIDs", "/images/rpms", params)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("rpm listing for image builds returned no result")
	}

	var listing struct {
		BuildIDs []int64 `json:"build_ids"`
	}
	if err = json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("failed unmarshalling image rpm listing: %w", err)
	}

	return listing.BuildIDs, nil
}

// get performs one rate-limited, concurrency-bounded hub request; found is false on 404
func (c *client) get(ctx context.Context, operation, path string, params url.Values) (body []byte, found bool, err error) {

	if err = c.semaphore.Acquire(ctx, 1); err != nil {
		return nil, false, err
	}
	defer c.semaphore.Release(1)

	if err = c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, operation)
	defer span.Finish()

	requestURL := fmt.Sprintf("%v%v?%v", c.hubURL, path, params.Encode())

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, false, err
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		log.Warn().Err(err).Msgf("Request %v failed: %v", operation, c.httpClient.LogString())
		return nil, false, err
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if response.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("%v returned status %v", operation, response.StatusCode)
	}

	body, err = ioutil.ReadAll(response.Body)
	if err != nil {
		return nil, false, err
	}

	return body, true, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}
