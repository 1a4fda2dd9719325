package upgradegraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"time"

	"github.com/opentracing-contrib/go-stdlib/nethttp"
	"github.com/opentracing/opentracing-go"
	"github.com/rs/zerolog/log"
	"github.com/sethgrid/pester"
)

// channels queried when calculating upgrade edges into a release
var channels = []string{"stable", "candidate"}

// Client is the interface for querying the upgrade graph service
//go:generate mockgen -package=upgradegraph -destination ./mock.go -source=client.go
type Client interface {
	PreviousList(ctx context.Context, version, arch string) ([]string, error)
}

// NewClient returns a new upgradegraph.Client against the given graph endpoint
func NewClient(graphURL string) (Client, error) {
	if graphURL == "" {
		return nil, fmt.Errorf("upgrade graph url is required")
	}

	httpClient := pester.NewExtendedClient(&http.Client{Transport: &nethttp.Transport{}})
	httpClient.MaxRetries = 3
	httpClient.Backoff = pester.ExponentialJitterBackoff
	httpClient.Timeout = 60 * time.Second

	return &client{
		graphURL:   graphURL,
		httpClient: httpClient,
	}, nil
}

type client struct {
	graphURL   string
	httpClient *pester.Client
}

// graphResponse is the upgrade graph document: versioned nodes plus directed edges
// given as [from, to] node index pairs
type graphResponse struct {
	Nodes []struct {
		Version string `json:"version"`
	} `json:"nodes"`
	Edges [][2]int `json:"edges"`
}

func (c *client) PreviousList(ctx context.Context, version, arch string) (previous []string, err error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "PreviousList")
	defer span.Finish()
	span.SetTag("version", version)
	span.SetTag("arch", arch)

	seen := map[string]bool{}
	for _, channel := range channels {
		graph, err := c.fetchGraph(ctx, channel, version, arch)
		if err != nil {
			return nil, err
		}

		targetIndex := -1
		for i, node := range graph.Nodes {
			if node.Version == version {
				targetIndex = i
				break
			}
		}
		if targetIndex < 0 {
			log.Info().Msgf("Version %v not present in %v channel graph for %v", version, channel, arch)
			continue
		}

		for _, edge := range graph.Edges {
			if edge[1] != targetIndex {
				continue
			}
			if edge[0] < 0 || edge[0] >= len(graph.Nodes) {
				return nil, fmt.Errorf("upgrade graph edge references node %v outside the graph", edge[0])
			}
			from := graph.Nodes[edge[0]].Version
			if !seen[from] {
				seen[from] = true
				previous = append(previous, from)
			}
		}
	}

	return previous, nil
}

func (c *client) fetchGraph(ctx context.Context, channel, version, arch string) (*graphResponse, error) {

	params := url.Values{}
	params.Set("channel", channelName(channel, version))
	params.Set("arch", arch)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%v?%v", c.graphURL, params.Encode()), nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed querying upgrade graph: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upgrade graph returned status %v", response.StatusCode)
	}

	body, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	var graph graphResponse
	if err = json.Unmarshal(body, &graph); err != nil {
		return nil, fmt.Errorf("failed parsing upgrade graph: %w", err)
	}

	return &graph, nil
}

// channelName builds a channel id like stable-4.12 from the target version
func channelName(channel, version string) string {
	majorMinor := version
	dots := 0
	for i, r := range version {
		if r == '.' {
			dots++
			if dots == 2 {
				majorMinor = version[:i]
				break
			}
		}
	}
	return fmt.Sprintf("%v-%v", channel, majorMinor)
}
