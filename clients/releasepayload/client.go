package releasepayload

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"os/exec"
	"time"

	"github.com/opentracing-contrib/go-stdlib/nethttp"
	"github.com/opentracing/opentracing-go"
	"github.com/rs/zerolog/log"
	"github.com/sethgrid/pester"

	"github.com/relengfoundry/assembly-gen/api"
)

// Manifest is the introspected content of one architecture-specific release payload
type Manifest struct {
	Tags             []api.ComponentTag
	MachineOSVersion string
}

// Client is the interface for introspecting release payloads and base OS build metadata
//go:generate mockgen -package=releasepayload -destination ./mock.go -source=client.go
type Client interface {
	FetchManifest(ctx context.Context, pullspec string) (Manifest, error)
	FetchOSBuildImages(ctx context.Context, metaURL string) (map[string]string, error)
}

// NewClient returns a new releasepayload.Client
func NewClient() (Client, error) {
	httpClient := pester.NewExtendedClient(&http.Client{Transport: &nethttp.Transport{}})
	httpClient.MaxRetries = 3
	httpClient.Backoff = pester.DefaultBackoff
	httpClient.Timeout = 60 * time.Second

	return &client{
		httpClient: httpClient,
	}, nil
}

type client struct {
	httpClient *pester.Client
}

func (c *client) FetchManifest(ctx context.Context, pullspec string) (Manifest, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "FetchManifest")
	defer span.Finish()
	span.SetTag("pullspec", pullspec)

	log.Info().Msgf("Processing release payload %v", pullspec)

	output, err := exec.CommandContext(ctx, "oc", "adm", "release", "info", pullspec, "-o=json").Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return Manifest{}, fmt.Errorf("failed introspecting payload %v: %v: %v", pullspec, err, string(exitErr.Stderr))
		}
		return Manifest{}, fmt.Errorf("failed introspecting payload %v: %w", pullspec, err)
	}

	return parseReleaseInfo(pullspec, output)
}

// releaseInfo mirrors the subset of the payload introspection json this tool consumes
type releaseInfo struct {
	References struct {
		Spec struct {
			Tags []struct {
				Name string `json:"name"`
				From struct {
					Name string `json:"name"`
				} `json:"from"`
			} `json:"tags"`
		} `json:"spec"`
	} `json:"references"`
	DisplayVersions map[string]struct {
		Version string `json:"Version"`
	} `json:"displayVersions"`
}

func parseReleaseInfo(pullspec string, data []byte) (Manifest, error) {

	var info releaseInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return Manifest{}, fmt.Errorf("failed parsing payload info for %v: %w", pullspec, err)
	}

	if len(info.References.Spec.Tags) == 0 {
		return Manifest{}, fmt.Errorf("could not find any imagestream tags in release %v", pullspec)
	}

	machineOS, ok := info.DisplayVersions["machine-os"]
	if !ok || machineOS.Version == "" {
		return Manifest{}, fmt.Errorf("could not find machine-os version in release %v", pullspec)
	}

	manifest := Manifest{
		MachineOSVersion: machineOS.Version,
		Tags:             make([]api.ComponentTag, 0, len(info.References.Spec.Tags)),
	}
	for _, tag := range info.References.Spec.Tags {
		manifest.Tags = append(manifest.Tags, api.ComponentTag{
			Name:     tag.Name,
			Pullspec: tag.From.Name,
		})
	}

	return manifest, nil
}

func (c *client) FetchOSBuildImages(ctx context.Context, metaURL string) (map[string]string, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "FetchOSBuildImages")
	defer span.Finish()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, metaURL, nil)
	if err != nil {
		return nil, err
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed fetching base os build metadata from %v: %w", metaURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("base os build metadata at %v returned status %v", metaURL, response.StatusCode)
	}

	body, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	// the metadata document mixes image entries with scalar build fields, so each
	// value is probed individually
	var meta map[string]json.RawMessage
	if err = json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("failed parsing base os build metadata at %v: %w", metaURL, err)
	}

	images := make(map[string]string, len(meta))
	for key, raw := range meta {
		var entry struct {
			Image  string `json:"image"`
			Digest string `json:"digest"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if entry.Image == "" || entry.Digest == "" {
			continue
		}
		images[key] = fmt.Sprintf("%v@%v", entry.Image, entry.Digest)
	}

	return images, nil
}
