package assembly

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/mod/semver"

	"github.com/relengfoundry/assembly-gen/api"
	"github.com/relengfoundry/assembly-gen/clients/releasepayload"
	"github.com/relengfoundry/assembly-gen/clients/upgradegraph"
	"github.com/relengfoundry/assembly-gen/config"
	"github.com/relengfoundry/assembly-gen/services/inspection"
	"github.com/relengfoundry/assembly-gen/services/reconciliation"
)

// Params are the run parameters taken from the command line
type Params struct {
	AssemblyName string
	Nightlies    []string
	Standards    []string
	Custom       bool
	InFlight     string
	PreviousList []string
	AutoPrevious bool
}

// Service generates an assembly definition from a set of release payloads
//go:generate mockgen -package=assembly -destination ./mock.go -source=service.go
type Service interface {
	Generate(ctx context.Context) (*api.AssemblyResult, error)
	WriteDefinition(result *api.AssemblyResult, writer io.Writer) error
	RenderSummary(result *api.AssemblyResult, writer io.Writer)
}

// estimationService is the narrow dependency taken from services/estimation
type estimationService interface {
	Estimate(ctx context.Context, builds []api.ComponentBuild) (api.BasisEvent, error)
}

// NewService returns a new assembly.Service
func NewService(cfg config.Config, params Params, inspectionService inspection.Service, estimator estimationService, reconciliationService reconciliation.Service, graphClient upgradegraph.Client, payloadClient releasepayload.Client) (Service, error) {

	mode := api.ModeStrict
	if params.Custom {
		mode = api.ModeCustom
	}

	return &service{
		config:                cfg,
		params:                params,
		inspectionService:     inspectionService,
		estimator:             estimator,
		reconciliationService: reconciliationService,
		graphClient:           graphClient,
		payloadClient:         payloadClient,
		mode:                  mode,
		assemblyType:          api.InferAssemblyType(params.Custom, params.AssemblyName),
	}, nil
}

type service struct {
	config                config.Config
	params                Params
	inspectionService     inspection.Service
	estimator             estimationService
	reconciliationService reconciliation.Service
	graphClient           upgradegraph.Client
	payloadClient         releasepayload.Client
	mode                  api.Mode
	assemblyType          api.AssemblyType
}

func (s *service) Generate(ctx context.Context) (*api.AssemblyResult, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "GenerateAssembly")
	defer span.Finish()
	span.SetTag("assembly", s.params.AssemblyName)

	if err := s.validateParams(); err != nil {
		return nil, err
	}

	refs, referenceReleases, err := s.resolveReleaseRefs()
	if err != nil {
		return nil, err
	}

	fetched, err := s.inspectionService.FetchPayloads(ctx, refs, s.config.BaseOSTagNames())
	if err != nil {
		return nil, err
	}

	basis, err := s.estimator.Estimate(ctx, s.participatingBuilds(fetched))
	if err != nil {
		return nil, err
	}

	imageResult, err := s.reconciliationService.ReconcileImages(ctx, basis, fetched.ComponentBuilds, s.mode, s.assemblyType)
	if err != nil {
		return nil, err
	}

	if err = s.collectBaseOSImages(ctx, fetched.ImagesByTag, fetched.MachineOSVersion); err != nil {
		return nil, err
	}

	// the RPM pass needs the finalized image build set, so the passes run sequentially
	rpmResult, err := s.reconciliationService.ReconcileRPMs(ctx, basis, imageResult.Selected)
	if err != nil {
		return nil, err
	}

	previousList, err := s.calculatePreviousList(ctx)
	if err != nil {
		return nil, err
	}

	result := &api.AssemblyResult{
		Name:              s.params.AssemblyName,
		Type:              s.assemblyType,
		Basis:             basis,
		ReferenceReleases: referenceReleases,
		ImagesByTag:       fetched.ImagesByTag,
		MachineOSVersion:  fetched.MachineOSVersion,
		PreviousList:      previousList,
		Warnings:          append(append([]string{}, fetched.Warnings...), imageResult.Warnings...),
	}

	imagesByPackage := s.config.ImagesByPackage()
	for _, packageName := range imageResult.Pinned {
		meta := imagesByPackage[packageName]
		result.ImageOverrides = append(result.ImageOverrides, api.ImageOverride{
			DistgitKey: meta.DistgitKey,
			Why:        overrideJustification,
			NVR:        imageResult.Selected[packageName].NVR,
		})
	}

	rpmsByPackage := s.config.RPMsByPackage()
	for _, packageName := range rpmResult.Pinned {
		meta := rpmsByPackage[packageName]
		nvrsByEl := map[int]string{}
		for elVersion, build := range rpmResult.Retained[packageName] {
			nvrsByEl[elVersion] = build.NVR
		}
		result.RPMOverrides = append(result.RPMOverrides, api.RPMOverride{
			DistgitKey: meta.DistgitKey,
			Why:        overrideJustification,
			NVRsByEl:   nvrsByEl,
		})
	}

	return result, nil
}

const overrideJustification = "Query from assembly basis event failed to replicate referenced payload content exactly. Pinning to replicate."

func (s *service) validateParams() error {

	if s.params.AssemblyName == "" {
		return fmt.Errorf("an assembly name is required")
	}
	if len(s.params.Nightlies) == 0 && len(s.params.Standards) == 0 {
		return fmt.Errorf("at least one release (nightly or standard) must be specified")
	}
	if s.params.AutoPrevious && len(s.params.PreviousList) > 0 {
		return fmt.Errorf("cannot use an explicit previous list and auto-previous at the same time")
	}
	if s.assemblyType == api.AssemblyTypeCustom {
		if s.params.AutoPrevious || len(s.params.PreviousList) > 0 || s.params.InFlight != "" {
			return fmt.Errorf("custom releases don't have a previous list")
		}
	}
	if s.assemblyType == api.AssemblyTypeStandard && !strings.HasPrefix(s.params.AssemblyName, s.config.Group.MajorMinor+".") {
		return fmt.Errorf("standard assembly name %v does not match group %v", s.params.AssemblyName, s.config.Group.MajorMinor)
	}

	return nil
}

var nightlyNameRegex = regexp.MustCompile(`^(\d+\.\d+)\.\d+-0\.nightly(?:-(arm64|ppc64le|s390x|multi))?(-priv)?-\d{4}-\d{2}-\d{2}-\d{6}$`)

// goArchToBrewArch maps payload architecture suffixes to build system architecture names
var goArchToBrewArch = map[string]string{
	"":        "x86_64",
	"arm64":   "aarch64",
	"ppc64le": "ppc64le",
	"s390x":   "s390x",
	"multi":   "multi",
}

func (s *service) resolveReleaseRefs() ([]api.ReleaseRef, map[string]string, error) {

	refs := make([]api.ReleaseRef, 0, len(s.params.Nightlies)+len(s.params.Standards))
	referenceReleases := map[string]string{}
	seenArches := map[string]bool{}

	for _, nightly := range s.params.Nightlies {
		match := nightlyNameRegex.FindStringSubmatch(nightly)
		if match == nil {
			return nil, nil, fmt.Errorf("unable to parse nightly name %v", nightly)
		}
		majorMinor, goArch, priv := match[1], match[2], match[3] != ""
		if majorMinor != s.config.Group.MajorMinor {
			return nil, nil, fmt.Errorf("specified nightly %v does not match group %v", nightly, s.config.Group.MajorMinor)
		}

		arch := goArchToBrewArch[goArch]
		if seenArches[arch] {
			return nil, nil, fmt.Errorf("cannot process %v since another release for %v is already included", nightly, arch)
		}
		seenArches[arch] = true

		suffix := ""
		if goArch != "" {
			suffix = "-" + goArch
		}
		if priv {
			suffix += "-priv"
		}

		referenceReleases[arch] = nightly
		refs = append(refs, api.ReleaseRef{
			Arch:     arch,
			Name:     nightly,
			Pullspec: fmt.Sprintf("%v/ocp%v/release%v:%v", s.config.Endpoints.NightlyRegistryOrDefault(), suffix, suffix, nightly),
		})
	}

	for _, standard := range s.params.Standards {
		// e.g. 4.7.22-s390x -> version 4.7.22, arch s390x
		separator := strings.LastIndex(standard, "-")
		if separator <= 0 || separator == len(standard)-1 {
			return nil, nil, fmt.Errorf("unable to parse release name %v", standard)
		}
		version, arch := standard[:separator], standard[separator+1:]

		versionFields := strings.SplitN(version, ".", 3)
		if len(versionFields) < 2 {
			return nil, nil, fmt.Errorf("unable to parse release version %v", version)
		}
		if strings.Join(versionFields[:2], ".") != s.config.Group.MajorMinor {
			return nil, nil, fmt.Errorf("specified release %v does not match group %v", standard, s.config.Group.MajorMinor)
		}

		if seenArches[arch] {
			return nil, nil, fmt.Errorf("cannot process %v since another release for %v is already included", standard, arch)
		}
		seenArches[arch] = true

		referenceReleases[arch] = standard
		refs = append(refs, api.ReleaseRef{
			Arch:     arch,
			Name:     standard,
			Pullspec: fmt.Sprintf("%v:%v", s.config.Endpoints.ReleaseRepositoryOrDefault(), standard),
		})
	}

	return refs, referenceReleases, nil
}

// participatingBuilds filters out components the group metadata marks as not part of
// the payload; their completion times must not move the basis estimate
func (s *service) participatingBuilds(fetched *inspection.Result) []api.ComponentBuild {

	imagesByPackage := s.config.ImagesByPackage()

	builds := make([]api.ComponentBuild, 0, len(fetched.ComponentBuilds))
	for packageName, build := range fetched.ComponentBuilds {
		if meta, ok := imagesByPackage[packageName]; ok && !meta.IsPayload {
			continue
		}
		builds = append(builds, build)
	}

	return builds
}

// collectBaseOSImages fills in base OS container images for group arches the payload
// set did not cover, from the published base OS build metadata
func (s *service) collectBaseOSImages(ctx context.Context, imagesByTag map[string]map[string]string, machineOSVersion string) error {

	primaryTag := s.config.PrimaryBaseOSTag()
	if primaryTag == "" {
		return nil
	}

	baseOS := s.config.Group.BaseOS

	for _, arch := range s.config.Group.Arches {
		if _, ok := imagesByTag[primaryTag][arch]; ok {
			continue
		}

		if s.mode == api.ModeCustom {
			// custom assemblies do not need to be assembled for every architecture
			log.Info().Msgf("Did not find base OS %v image for group architecture %v; ignoring for custom assembly", primaryTag, arch)
			continue
		}

		if machineOSVersion == "" {
			return fmt.Errorf("did not find base OS %v image for group architecture %v", primaryTag, arch)
		}

		metaURL := fmt.Sprintf("%v/%v/builds/%v/%v/meta.json", baseOS.ReleasesURL, s.config.Group.MajorMinor, machineOSVersion, arch)
		if baseOS.ELMajor > 8 {
			metaURL = fmt.Sprintf("%v/%v-%v.%v/builds/%v/%v/meta.json", baseOS.ReleasesURL, s.config.Group.MajorMinor, baseOS.ELMajor, baseOS.ELMinor, machineOSVersion, arch)
		}

		images, err := s.payloadClient.FetchOSBuildImages(ctx, metaURL)
		if err != nil {
			return err
		}

		for _, tag := range baseOS.Tags {
			pullspec, ok := images[tag.BuildMetadataKey]
			if !ok {
				return fmt.Errorf("did not find base OS %v image for group architecture %v", tag.Name, arch)
			}
			if imagesByTag[tag.Name] == nil {
				imagesByTag[tag.Name] = map[string]string{}
			}
			imagesByTag[tag.Name][arch] = pullspec
			log.Info().Msgf("Found base OS image %v for %v: %v", tag.Name, arch, pullspec)
		}
	}

	return nil
}

func (s *service) calculatePreviousList(ctx context.Context) ([]string, error) {

	seen := map[string]bool{}
	previous := []string{}

	add := func(version string) {
		if !seen[version] {
			seen[version] = true
			previous = append(previous, version)
		}
	}

	if s.params.InFlight != "" {
		add(s.params.InFlight)
	}
	for _, version := range s.params.PreviousList {
		add(version)
	}

	if len(s.params.PreviousList) == 0 && s.params.AutoPrevious {
		version := s.params.AssemblyName
		if s.assemblyType == api.AssemblyTypeCandidate || s.assemblyType == api.AssemblyTypePreview {
			version = fmt.Sprintf("%v.0-%v", s.config.Group.MajorMinor, s.params.AssemblyName)
		}
		for _, arch := range s.config.Group.Arches {
			log.Info().Msgf("Calculating previous list for %v", arch)
			archPrevious, err := s.graphClient.PreviousList(ctx, version, arch)
			if err != nil {
				return nil, err
			}
			for _, v := range archPrevious {
				add(v)
			}
		}
	}

	sort.Slice(previous, func(i, j int) bool {
		return semver.Compare("v"+previous[i], "v"+previous[j]) < 0
	})

	return previous, nil
}
