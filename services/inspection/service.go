package inspection

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/relengfoundry/assembly-gen/api"
	"github.com/relengfoundry/assembly-gen/clients/buildsystem"
	"github.com/relengfoundry/assembly-gen/clients/releasepayload"
	"github.com/relengfoundry/assembly-gen/config"
)

// Result is the fully-materialized view of all fetched payloads
type Result struct {
	// ComponentBuilds holds at most one accepted build per package name
	ComponentBuilds map[string]api.ComponentBuild
	// ImagesByTag collects the non-component tags (base OS images) per tag and arch
	ImagesByTag map[string]map[string]string
	// MachineOSVersion is the distinguished machine-os version reported by the payloads
	MachineOSVersion string
	Warnings         []string
}

// Service fetches release payloads and resolves their tags to build-system records
//go:generate mockgen -package=inspection -destination ./mock.go -source=service.go
type Service interface {
	FetchPayloads(ctx context.Context, refs []api.ReleaseRef, excludedTags map[string]bool) (*Result, error)
}

// NewService returns a new inspection.Service
func NewService(buildsystemClient buildsystem.Client, payloadClient releasepayload.Client, imagesByPackage map[string]config.ImageMeta, concurrency int) (Service, error) {
	return &service{
		buildsystemClient: buildsystemClient,
		payloadClient:     payloadClient,
		imagesByPackage:   imagesByPackage,
		semaphore:         semaphore.NewWeighted(int64(concurrency)),
	}, nil
}

type service struct {
	buildsystemClient buildsystem.Client
	payloadClient     releasepayload.Client
	imagesByPackage   map[string]config.ImageMeta
	semaphore         *semaphore.Weighted
}

// payloadResult is the task-local outcome of fetching one payload; results are
// merged sequentially afterwards so no shared state is mutated concurrently
type payloadResult struct {
	ref              api.ReleaseRef
	machineOSVersion string
	builds           []api.ComponentBuild
	osImages         map[string]string
}

func (s *service) FetchPayloads(ctx context.Context, refs []api.ReleaseRef, excludedTags map[string]bool) (*Result, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "FetchPayloads")
	defer span.Finish()

	results := make([]*payloadResult, len(refs))

	g, ctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			if err := s.semaphore.Acquire(ctx, 1); err != nil {
				return err
			}
			defer s.semaphore.Release(1)

			result, err := s.fetchPayload(ctx, ref, excludedTags)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.merge(results)
}

func (s *service) fetchPayload(ctx context.Context, ref api.ReleaseRef, excludedTags map[string]bool) (*payloadResult, error) {

	manifest, err := s.payloadClient.FetchManifest(ctx, ref.Pullspec)
	if err != nil {
		return nil, err
	}

	result := &payloadResult{
		ref:              ref,
		machineOSVersion: manifest.MachineOSVersion,
		osImages:         map[string]string{},
	}

	for _, tag := range manifest.Tags {
		if excludedTags[tag.Name] {
			result.osImages[tag.Name] = tag.Pullspec
			continue
		}

		build, err := s.buildsystemClient.GetBuildForImage(ctx, tag.Pullspec)
		if err != nil {
			return nil, fmt.Errorf("failed resolving build for tag %v in %v: %w", tag.Name, ref.Pullspec, err)
		}

		result.builds = append(result.builds, api.ComponentBuild{
			Build:      *build,
			SourceTag:  tag.Name,
			SourceArch: ref.Arch,
		})
	}

	return result, nil
}

// merge folds the task-local results into one build per package, applying the
// explicit payload-name tie-break; it runs sequentially in caller payload order
// so the last-explicit-match-wins policy is deterministic
func (s *service) merge(results []*payloadResult) (*Result, error) {

	merged := &Result{
		ComponentBuilds: map[string]api.ComponentBuild{},
		ImagesByTag:     map[string]map[string]string{},
	}

	for _, result := range results {
		if result.machineOSVersion != "" {
			merged.MachineOSVersion = result.machineOSVersion
		}

		for tagName, pullspec := range result.osImages {
			if merged.ImagesByTag[tagName] == nil {
				merged.ImagesByTag[tagName] = map[string]string{}
			}
			merged.ImagesByTag[tagName][result.ref.Arch] = pullspec
		}

		for _, build := range result.builds {
			existing, ok := merged.ComponentBuilds[build.PackageName]
			if !ok {
				merged.ComponentBuilds[build.PackageName] = build
				continue
			}
			if existing.NVR == build.NVR {
				continue
			}

			// two payloads disagree on the build for this package; without an explicit
			// payload name declaration this release set is genuinely inconsistent
			meta, hasMeta := s.imagesByPackage[build.PackageName]
			payloadName, explicit := "", false
			if hasMeta {
				payloadName, explicit = meta.ExplicitPayloadName()
			}
			if !explicit {
				return nil, fmt.Errorf("found disparate nvrs between releases; %v in processed and %v in %v",
					existing.NVR, build.NVR, result.ref.Pullspec)
			}

			if payloadName != build.SourceTag {
				warning := fmt.Sprintf("Ignoring payload tag %v since payloadName=%v is explicitly declared for package %v",
					build.SourceTag, payloadName, build.PackageName)
				log.Warn().Msg(warning)
				merged.Warnings = append(merged.Warnings, warning)
				continue
			}

			warning := fmt.Sprintf("Selecting payload tag %v since payloadName=%v is explicitly declared for package %v",
				build.SourceTag, payloadName, build.PackageName)
			log.Warn().Msg(warning)
			merged.Warnings = append(merged.Warnings, warning)
			merged.ComponentBuilds[build.PackageName] = build
		}
	}

	packageNames := make([]string, 0, len(merged.ComponentBuilds))
	for name := range merged.ComponentBuilds {
		packageNames = append(packageNames, name)
	}
	log.Info().Msgf("The following image package names were detected in the specified releases: %v", packageNames)

	return merged, nil
}
