package config

import (
	"fmt"
	"io/ioutil"
	"time"

	yaml "gopkg.in/yaml.v2"
)

const (
	defaultBasisMarginMinutes = 5
	defaultFetchConcurrency   = 500
	defaultBuildSystemQPS     = 20
)

// Config is the group metadata driving an assembly generation run
type Config struct {
	Group     GroupConfig     `yaml:"group"`
	Images    []ImageMeta     `yaml:"images"`
	RPMs      []RPMMeta       `yaml:"rpms"`
	Policy    PolicyConfig    `yaml:"policy"`
	Endpoints EndpointsConfig `yaml:"endpoints"`
}

// GroupConfig describes the release group the assembly belongs to
type GroupConfig struct {
	Name       string       `yaml:"name"`
	MajorMinor string       `yaml:"majorMinor"`
	Arches     []string     `yaml:"arches"`
	BaseOS     BaseOSConfig `yaml:"baseOS"`
}

// BaseOSConfig describes the base OS container images embedded in each payload
type BaseOSConfig struct {
	Tags        []BaseOSTag `yaml:"tags"`
	ELMajor     int         `yaml:"elMajor"`
	ELMinor     int         `yaml:"elMinor"`
	ReleasesURL string      `yaml:"releasesUrl"`
}

// BaseOSTag maps a payload tag name to the key under which the base OS build
// metadata publishes the matching image
type BaseOSTag struct {
	Name             string `yaml:"name"`
	BuildMetadataKey string `yaml:"buildMetadataKey"`
	Primary          bool   `yaml:"primary"`
}

// ImageMeta is the group metadata for one image component
type ImageMeta struct {
	DistgitKey string `yaml:"distgitKey"`
	Package    string `yaml:"package"`
	ForRelease bool   `yaml:"forRelease"`
	BaseOnly   bool   `yaml:"baseOnly"`
	IsPayload  bool   `yaml:"isPayload"`
	// PayloadName, when set, explicitly declares the payload tag this component owns;
	// it doubles as the cross-architecture conflict tie-break
	PayloadName string `yaml:"payloadName"`
	// When is an optional eligibility expression evaluated per architecture
	When string `yaml:"when"`
}

// ExplicitPayloadName returns the declared payload tag name and whether one was declared
func (m ImageMeta) ExplicitPayloadName() (string, bool) {
	return m.PayloadName, m.PayloadName != ""
}

// RPMMeta is the group metadata for one RPM package this group produces
type RPMMeta struct {
	DistgitKey string `yaml:"distgitKey"`
	Package    string `yaml:"package"`
}

// PolicyConfig holds the tunable policy knobs; zero values select the defaults
type PolicyConfig struct {
	BasisMarginMinutes int `yaml:"basisMarginMinutes"`
	FetchConcurrency   int `yaml:"fetchConcurrency"`
	BuildSystemQPS     int `yaml:"buildSystemQPS"`
}

// BasisMargin is the safety margin added to the latest build completion time; the build
// system tags a completed build into its target shortly after completion, so querying
// the raw completion instant risks missing that tagging
func (p PolicyConfig) BasisMargin() time.Duration {
	if p.BasisMarginMinutes <= 0 {
		return defaultBasisMarginMinutes * time.Minute
	}
	return time.Duration(p.BasisMarginMinutes) * time.Minute
}

// Concurrency is the global cap on simultaneous outstanding payload fetches
func (p PolicyConfig) Concurrency() int {
	if p.FetchConcurrency <= 0 {
		return defaultFetchConcurrency
	}
	return p.FetchConcurrency
}

// QPS is the rate limit applied to build system calls
func (p PolicyConfig) QPS() int {
	if p.BuildSystemQPS <= 0 {
		return defaultBuildSystemQPS
	}
	return p.BuildSystemQPS
}

// EndpointsConfig holds the upstream service locations
type EndpointsConfig struct {
	BuildSystemURL    string `yaml:"buildSystemUrl"`
	GraphURL          string `yaml:"graphUrl"`
	NightlyRegistry   string `yaml:"nightlyRegistry"`
	ReleaseRepository string `yaml:"releaseRepository"`
}

// NightlyRegistryOrDefault returns the registry hosting nightly release payloads
func (e EndpointsConfig) NightlyRegistryOrDefault() string {
	if e.NightlyRegistry == "" {
		return "registry.ci.openshift.org"
	}
	return e.NightlyRegistry
}

// ReleaseRepositoryOrDefault returns the repository hosting official release payloads
func (e EndpointsConfig) ReleaseRepositoryOrDefault() string {
	if e.ReleaseRepository == "" {
		return "quay.io/openshift-release-dev/ocp-release"
	}
	return e.ReleaseRepository
}

// ReadConfig unmarshals group metadata from yaml bytes
func ReadConfig(data []byte) (config Config, err error) {
	if err = yaml.UnmarshalStrict(data, &config); err != nil {
		return config, err
	}
	if config.Group.MajorMinor == "" {
		return config, fmt.Errorf("group config is missing majorMinor")
	}
	if len(config.Group.Arches) == 0 {
		return config, fmt.Errorf("group config declares no arches")
	}
	return config, nil
}

// ReadConfigFromFile reads group metadata from a yaml file
func ReadConfigFromFile(path string) (Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ReadConfig(data)
}

// ImagesByPackage indexes the image metadata by package name
func (c Config) ImagesByPackage() map[string]ImageMeta {
	images := make(map[string]ImageMeta, len(c.Images))
	for _, m := range c.Images {
		images[m.Package] = m
	}
	return images
}

// RPMsByPackage indexes the RPM roster by package name
func (c Config) RPMsByPackage() map[string]RPMMeta {
	rpms := make(map[string]RPMMeta, len(c.RPMs))
	for _, m := range c.RPMs {
		rpms[m.Package] = m
	}
	return rpms
}

// PrimaryBaseOSTag returns the tag name marked primary, falling back to the first tag
func (c Config) PrimaryBaseOSTag() string {
	for _, t := range c.Group.BaseOS.Tags {
		if t.Primary {
			return t.Name
		}
	}
	if len(c.Group.BaseOS.Tags) > 0 {
		return c.Group.BaseOS.Tags[0].Name
	}
	return ""
}

// BaseOSTagNames returns the payload tag names reserved for base OS containers
func (c Config) BaseOSTagNames() map[string]bool {
	names := make(map[string]bool, len(c.Group.BaseOS.Tags))
	for _, t := range c.Group.BaseOS.Tags {
		names[t.Name] = true
	}
	return names
}
