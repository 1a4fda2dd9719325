package reconciliation

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/opentracing/opentracing-go"
	"github.com/rs/zerolog/log"

	"github.com/relengfoundry/assembly-gen/api"
	"github.com/relengfoundry/assembly-gen/clients/buildsystem"
	"github.com/relengfoundry/assembly-gen/config"
	"github.com/relengfoundry/assembly-gen/services/evaluation"
)

// ImageResult is the outcome of the image pass: the final build per package plus
// the packages whose observed build the basis event could not reproduce
type ImageResult struct {
	Selected map[string]api.Build
	Pinned   []string
	Warnings []string
}

// RPMResult is the outcome of the RPM pass; retained builds are keyed by package
// and enterprise linux major version
type RPMResult struct {
	Retained map[string]map[int]api.Build
	Pinned   []string
}

// Service cross-checks what the basis event would select against what the payloads contain
//go:generate mockgen -package=reconciliation -destination ./mock.go -source=service.go
type Service interface {
	ReconcileImages(ctx context.Context, basis api.BasisEvent, observed map[string]api.ComponentBuild, mode api.Mode, assemblyType api.AssemblyType) (*ImageResult, error)
	ReconcileRPMs(ctx context.Context, basis api.BasisEvent, selected map[string]api.Build) (*RPMResult, error)
}

// NewService returns a new reconciliation.Service
func NewService(buildsystemClient buildsystem.Client, evaluationService evaluation.Service, images []config.ImageMeta, rpmsByPackage map[string]config.RPMMeta, arches []string) (Service, error) {
	return &service{
		buildsystemClient: buildsystemClient,
		evaluationService: evaluationService,
		images:            images,
		rpmsByPackage:     rpmsByPackage,
		arches:            arches,
	}, nil
}

type service struct {
	buildsystemClient buildsystem.Client
	evaluationService evaluation.Service
	images            []config.ImageMeta
	rpmsByPackage     map[string]config.RPMMeta
	arches            []string
}

func (s *service) ReconcileImages(ctx context.Context, basis api.BasisEvent, observed map[string]api.ComponentBuild, mode api.Mode, assemblyType api.AssemblyType) (*ImageResult, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "ReconcileImages")
	defer span.Finish()

	result := &ImageResult{
		Selected: map[string]api.Build{},
	}

	for _, meta := range s.images {

		if meta.BaseOnly || !meta.ForRelease {
			continue
		}

		if meta.When != "" {
			eligible, err := s.eligibleForAnyArch(meta, assemblyType, mode)
			if err != nil {
				return nil, fmt.Errorf("failed evaluating when clause for %v: %w", meta.DistgitKey, err)
			}
			if !eligible {
				log.Info().Msgf("%v is not eligible for any group arch, skipping", meta.DistgitKey)
				continue
			}
		}

		basisBuild, err := s.buildsystemClient.GetLatestBuildBefore(ctx, meta.Package, basis.ID, 0)
		if err != nil {
			return nil, err
		}
		if basisBuild == nil {
			return nil, fmt.Errorf("no image build was found for component %v at estimated event %v; no normal reason for this to happen",
				meta.DistgitKey, basis.ID)
		}

		if !meta.IsPayload {
			// the payloads cannot have informed this selection, so whatever the basis
			// event sweeps is accepted as-is
			log.Info().Msgf("%v non-payload build %v will be swept by estimated assembly basis event", meta.DistgitKey, basisBuild.NVR)
			result.Selected[meta.Package] = *basisBuild
			continue
		}

		observedBuild, ok := observed[meta.Package]
		if !ok {
			warning := fmt.Sprintf("Unable to find %v in releases despite it being marked as payload in group metadata; "+
				"choosing what the estimated basis event sweeps: %v", meta.DistgitKey, basisBuild.NVR)
			if mode == api.ModeCustom {
				log.Warn().Msg(warning)
			} else {
				log.Error().Msg(warning)
			}
			result.Warnings = append(result.Warnings, warning)
			result.Selected[meta.Package] = *basisBuild
			continue
		}

		if basisBuild.NVR != observedBuild.NVR {
			log.Info().Msgf("%v build %v was selected by estimated basis event; that is not what is in the specified releases, so this image will be pinned",
				meta.DistgitKey, basisBuild.NVR)
			result.Selected[meta.Package] = observedBuild.Build
			result.Pinned = append(result.Pinned, meta.Package)
			continue
		}

		result.Selected[meta.Package] = observedBuild.Build
	}

	return result, nil
}

// eligibleForAnyArch evaluates the component's when clause against each group arch
func (s *service) eligibleForAnyArch(meta config.ImageMeta, assemblyType api.AssemblyType, mode api.Mode) (bool, error) {
	for _, arch := range s.arches {
		parameters := s.evaluationService.GetParameters(arch, assemblyType, mode)
		eligible, err := s.evaluationService.Evaluate(meta.DistgitKey, meta.When, parameters)
		if err != nil {
			return false, err
		}
		if eligible {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) ReconcileRPMs(ctx context.Context, basis api.BasisEvent, selected map[string]api.Build) (*RPMResult, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "ReconcileRPMs")
	defer span.Finish()

	imageBuildIDs := make([]int64, 0, len(selected))
	for _, build := range selected {
		imageBuildIDs = append(imageBuildIDs, build.ID)
	}
	sort.Slice(imageBuildIDs, func(i, j int) bool { return imageBuildIDs[i] < imageBuildIDs[j] })

	rpmBuildIDs, err := s.buildsystemClient.ListImageRPMBuildIDs(ctx, imageBuildIDs)
	if err != nil {
		return nil, fmt.Errorf("failed listing rpm builds embedded in image builds: %w", err)
	}

	log.Info().Msgf("Querying build information for %v RPM builds...", len(rpmBuildIDs))
	rpmBuilds, err := s.buildsystemClient.GetBuildsByIDs(ctx, rpmBuildIDs)
	if err != nil {
		return nil, fmt.Errorf("failed fetching rpm build records: %w", err)
	}

	result := &RPMResult{
		Retained: map[string]map[int]api.Build{},
	}
	pinned := map[string]bool{}

	for _, rpmBuild := range rpmBuilds {
		meta, ok := s.rpmsByPackage[rpmBuild.PackageName]
		if !ok {
			// not a package this group produces
			continue
		}

		elVersion := IsolateELVersion(rpmBuild.Release)
		if elVersion == 0 {
			return nil, fmt.Errorf("unable to isolate el version in %v", rpmBuild.NVR)
		}

		if result.Retained[rpmBuild.PackageName] == nil {
			result.Retained[rpmBuild.PackageName] = map[int]api.Build{}
		}
		if _, exists := result.Retained[rpmBuild.PackageName][elVersion]; exists {
			// the same (package, el) pair is expected to be identical across arches
			continue
		}
		result.Retained[rpmBuild.PackageName][elVersion] = rpmBuild

		basisBuild, err := s.buildsystemClient.GetLatestBuildBefore(ctx, rpmBuild.PackageName, basis.ID, elVersion)
		if err != nil {
			return nil, err
		}
		if basisBuild == nil {
			return nil, fmt.Errorf("no RPM build was found for component %v (el%v) at estimated event %v; no normal reason for this to happen",
				meta.DistgitKey, elVersion, basis.ID)
		}

		log.Info().Msgf("%v build %v selected by scan against estimated basis event", meta.DistgitKey, basisBuild.NVR)

		if basisBuild.NVR != rpmBuild.NVR && !pinned[rpmBuild.PackageName] {
			log.Info().Msgf("%v build %v was selected by estimated basis event; that is not what is in the specified releases, so this RPM will be pinned",
				meta.DistgitKey, basisBuild.NVR)
			pinned[rpmBuild.PackageName] = true
			result.Pinned = append(result.Pinned, rpmBuild.PackageName)
		}
	}

	return result, nil
}

var elVersionRegex = regexp.MustCompile(`[.+]el(\d+)(?:[._+]|$)`)

// IsolateELVersion extracts the enterprise linux major version encoded in a
// release string, e.g. 1.el8_6 -> 8, 3.module+el9.2.0 -> 9; returns 0 when absent
func IsolateELVersion(release string) int {
	match := elVersionRegex.FindStringSubmatch(release)
	if match == nil {
		return 0
	}
	version, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return version
}
