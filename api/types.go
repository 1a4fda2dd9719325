package api

import (
	"regexp"
	"time"
)

// Mode controls how strictly the observed payloads must conform to the group metadata
type Mode string

const (
	// ModeStrict requires every payload-bound component to be present in the observed payloads
	ModeStrict Mode = "strict"
	// ModeCustom applies weaker conformance criteria, e.g. a payload is not required for every arch
	ModeCustom Mode = "custom"
)

// AssemblyType classifies the assembly being generated
type AssemblyType string

const (
	AssemblyTypeStandard  AssemblyType = "standard"
	AssemblyTypeCustom    AssemblyType = "custom"
	AssemblyTypeCandidate AssemblyType = "candidate"
	AssemblyTypePreview   AssemblyType = "preview"
)

var (
	previewNameRegex   = regexp.MustCompile(`^ec\.\d+$`)
	candidateNameRegex = regexp.MustCompile(`^[fr]c\.\d+$`)
)

// InferAssemblyType determines the assembly type from the custom flag and the assembly name;
// preview assemblies are named ec.N, candidates fc.N / rc.N, everything else is standard
func InferAssemblyType(custom bool, assemblyName string) AssemblyType {
	if custom {
		return AssemblyTypeCustom
	}
	if previewNameRegex.MatchString(assemblyName) {
		return AssemblyTypePreview
	}
	if candidateNameRegex.MatchString(assemblyName) {
		return AssemblyTypeCandidate
	}
	return AssemblyTypeStandard
}

// ReleaseRef locates one architecture-specific release payload
type ReleaseRef struct {
	Arch     string
	Name     string
	Pullspec string
}

// ComponentTag is a single entry in a fetched payload manifest
type ComponentTag struct {
	Name     string `json:"name"`
	Pullspec string `json:"pullspec"`
}

// Build is a completed build-system record
type Build struct {
	ID             int64     `json:"id"`
	PackageName    string    `json:"package_name"`
	NVR            string    `json:"nvr"`
	Release        string    `json:"release"`
	CompletionTime time.Time `json:"completion_time"`
}

// ComponentBuild is a build observed through a payload tag
type ComponentBuild struct {
	Build
	// SourceTag is the payload tag through which the build was observed
	SourceTag string
	// SourceArch is the payload architecture the build was observed in
	SourceArch string
}

// BasisEvent is the estimated build-system event id the assembly is anchored to
type BasisEvent struct {
	ID      int64
	Instant time.Time
}

// ImageOverride pins an image component whose observed build the basis event cannot reproduce
type ImageOverride struct {
	DistgitKey string `yaml:"distgit_key"`
	Why        string `yaml:"why"`
	NVR        string `yaml:"nvr"`
}

// RPMOverride pins a package whose observed builds the basis event cannot reproduce,
// keyed by enterprise linux major version since one package may ship distinct builds per target
type RPMOverride struct {
	DistgitKey string         `yaml:"distgit_key"`
	Why        string         `yaml:"why"`
	NVRsByEl   map[int]string `yaml:"nvrs_by_el"`
}

// AssemblyResult aggregates everything the definition serializer needs
type AssemblyResult struct {
	Name              string
	Type              AssemblyType
	Basis             BasisEvent
	ReferenceReleases map[string]string            // arch -> release name
	ImagesByTag       map[string]map[string]string // non-component tag -> arch -> pullspec
	MachineOSVersion  string
	ImageOverrides    []ImageOverride
	RPMOverrides      []RPMOverride
	PreviousList      []string
	Warnings          []string
}
