package assembly

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/relengfoundry/assembly-gen/api"
	"github.com/relengfoundry/assembly-gen/clients/releasepayload"
	"github.com/relengfoundry/assembly-gen/clients/upgradegraph"
	"github.com/relengfoundry/assembly-gen/config"
	"github.com/relengfoundry/assembly-gen/services/estimation"
	"github.com/relengfoundry/assembly-gen/services/inspection"
	"github.com/relengfoundry/assembly-gen/services/reconciliation"
)

func testGroupConfig() config.Config {
	return config.Config{
		Group: config.GroupConfig{
			Name:       "openshift-4.8",
			MajorMinor: "4.8",
			Arches:     []string{"x86_64", "s390x"},
			BaseOS: config.BaseOSConfig{
				Tags: []config.BaseOSTag{
					{Name: "machine-os-content", BuildMetadataKey: "machine-os-content", Primary: true},
				},
				ELMajor:     8,
				ELMinor:     4,
				ReleasesURL: "https://releases.example.com/storage",
			},
		},
		Images: []config.ImageMeta{
			{DistgitKey: "ose-etcd", Package: "etcd-container", ForRelease: true, IsPayload: true},
			{DistgitKey: "openshift-enterprise-cli", Package: "cli-container", ForRelease: true, IsPayload: true},
		},
		RPMs: []config.RPMMeta{
			{DistgitKey: "openshift-clients", Package: "openshift-clients"},
		},
	}
}

type serviceMocks struct {
	inspection     *inspection.MockService
	estimation     *estimation.MockService
	reconciliation *reconciliation.MockService
	graph          *upgradegraph.MockClient
	payload        *releasepayload.MockClient
}

func newServiceWithMocks(ctrl *gomock.Controller, cfg config.Config, params Params) (Service, serviceMocks) {
	mocks := serviceMocks{
		inspection:     inspection.NewMockService(ctrl),
		estimation:     estimation.NewMockService(ctrl),
		reconciliation: reconciliation.NewMockService(ctrl),
		graph:          upgradegraph.NewMockClient(ctrl),
		payload:        releasepayload.NewMockClient(ctrl),
	}
	svc, _ := NewService(cfg, params, mocks.inspection, mocks.estimation, mocks.reconciliation, mocks.graph, mocks.payload)
	return svc, mocks
}

func TestGenerateParamValidation(t *testing.T) {

	run := func(t *testing.T, params Params) error {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		svc, _ := newServiceWithMocks(ctrl, testGroupConfig(), params)

		// act
		_, err := svc.Generate(context.Background())
		return err
	}

	t.Run("ReturnsErrorIfAssemblyNameIsEmpty", func(t *testing.T) {
		err := run(t, Params{Nightlies: []string{"4.8.0-0.nightly-2021-07-07-123456"}})
		assert.NotNil(t, err)
	})

	t.Run("ReturnsErrorIfNoReleasesAreSpecified", func(t *testing.T) {
		err := run(t, Params{AssemblyName: "4.8.2"})
		assert.NotNil(t, err)
	})

	t.Run("ReturnsErrorIfAutoPreviousAndExplicitPreviousAreCombined", func(t *testing.T) {
		err := run(t, Params{
			AssemblyName: "4.8.2",
			Standards:    []string{"4.8.2-x86_64"},
			AutoPrevious: true,
			PreviousList: []string{"4.8.1"},
		})
		assert.NotNil(t, err)
	})

	t.Run("ReturnsErrorIfCustomAssemblyDeclaresAPreviousList", func(t *testing.T) {
		err := run(t, Params{
			AssemblyName: "sandbox",
			Custom:       true,
			Standards:    []string{"4.8.2-x86_64"},
			PreviousList: []string{"4.8.1"},
		})
		assert.NotNil(t, err)
		assert.Contains(t, err.Error(), "custom releases don't have a previous list")
	})

	t.Run("ReturnsErrorIfStandardAssemblyNameDoesNotMatchGroup", func(t *testing.T) {
		err := run(t, Params{
			AssemblyName: "4.9.1",
			Standards:    []string{"4.8.2-x86_64"},
		})
		assert.NotNil(t, err)
		assert.Contains(t, err.Error(), "does not match group 4.8")
	})
}

func TestResolveReleaseRefs(t *testing.T) {

	resolve := func(t *testing.T, params Params) ([]api.ReleaseRef, map[string]string, error) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		svc, _ := newServiceWithMocks(ctrl, testGroupConfig(), params)

		// act
		return svc.(*service).resolveReleaseRefs()
	}

	t.Run("ResolvesAmd64NightlyToCIRegistryPullspec", func(t *testing.T) {
		refs, references, err := resolve(t, Params{
			AssemblyName: "4.8.2",
			Nightlies:    []string{"4.8.0-0.nightly-2021-07-07-123456"},
		})

		assert.Nil(t, err)
		assert.Equal(t, 1, len(refs))
		assert.Equal(t, "x86_64", refs[0].Arch)
		assert.Equal(t, "registry.ci.openshift.org/ocp/release:4.8.0-0.nightly-2021-07-07-123456", refs[0].Pullspec)
		assert.Equal(t, "4.8.0-0.nightly-2021-07-07-123456", references["x86_64"])
	})

	t.Run("ResolvesArchSpecificAndPrivateNightlies", func(t *testing.T) {
		refs, _, err := resolve(t, Params{
			AssemblyName: "4.8.2",
			Nightlies: []string{
				"4.8.0-0.nightly-arm64-2021-07-07-123456",
				"4.8.0-0.nightly-s390x-priv-2021-07-07-123456",
			},
		})

		assert.Nil(t, err)
		assert.Equal(t, "aarch64", refs[0].Arch)
		assert.Equal(t, "registry.ci.openshift.org/ocp-arm64/release-arm64:4.8.0-0.nightly-arm64-2021-07-07-123456", refs[0].Pullspec)
		assert.Equal(t, "s390x", refs[1].Arch)
		assert.Equal(t, "registry.ci.openshift.org/ocp-s390x-priv/release-s390x-priv:4.8.0-0.nightly-s390x-priv-2021-07-07-123456", refs[1].Pullspec)
	})

	t.Run("ResolvesStandardReleaseToReleaseRepositoryPullspec", func(t *testing.T) {
		refs, references, err := resolve(t, Params{
			AssemblyName: "4.8.2",
			Standards:    []string{"4.8.2-s390x"},
		})

		assert.Nil(t, err)
		assert.Equal(t, "s390x", refs[0].Arch)
		assert.Equal(t, "quay.io/openshift-release-dev/ocp-release:4.8.2-s390x", refs[0].Pullspec)
		assert.Equal(t, "4.8.2-s390x", references["s390x"])
	})

	t.Run("ReturnsErrorForUnparseableNightlyName", func(t *testing.T) {
		_, _, err := resolve(t, Params{
			AssemblyName: "4.8.2",
			Nightlies:    []string{"4.8.0-0.ci-2021-07-07-123456"},
		})

		assert.NotNil(t, err)
		assert.Contains(t, err.Error(), "unable to parse nightly name")
	})

	t.Run("ReturnsErrorWhenNightlyBelongsToAnotherGroup", func(t *testing.T) {
		_, _, err := resolve(t, Params{
			AssemblyName: "4.8.2",
			Nightlies:    []string{"4.9.0-0.nightly-2021-07-07-123456"},
		})

		assert.NotNil(t, err)
		assert.Contains(t, err.Error(), "does not match group 4.8")
	})

	t.Run("ReturnsErrorWhenTwoReleasesCoverTheSameArch", func(t *testing.T) {
		_, _, err := resolve(t, Params{
			AssemblyName: "4.8.2",
			Nightlies:    []string{"4.8.0-0.nightly-2021-07-07-123456"},
			Standards:    []string{"4.8.2-x86_64"},
		})

		assert.NotNil(t, err)
		assert.Contains(t, err.Error(), "already included")
	})
}

func TestGenerate(t *testing.T) {

	basis := api.BasisEvent{ID: 42000000, Instant: time.Date(2021, 7, 7, 12, 15, 0, 0, time.UTC)}

	t.Run("AssemblesResultWithOverridesForPinnedComponents", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		cfg := testGroupConfig()
		svc, mocks := newServiceWithMocks(ctrl, cfg, Params{
			AssemblyName: "4.8.2",
			Standards:    []string{"4.8.2-x86_64", "4.8.2-s390x"},
			PreviousList: []string{"4.8.1", "4.8.0"},
			InFlight:     "4.7.22",
		})

		fetched := &inspection.Result{
			ComponentBuilds: map[string]api.ComponentBuild{
				"etcd-container": {Build: api.Build{ID: 9, PackageName: "etcd-container", NVR: "etcd-container-v4.8.2-5"}},
			},
			ImagesByTag: map[string]map[string]string{
				"machine-os-content": {
					"x86_64": "quay.io/payload@sha256:rhcos-amd64",
					"s390x":  "quay.io/payload@sha256:rhcos-s390x",
				},
			},
			MachineOSVersion: "48.84.202107070000-0",
		}

		mocks.inspection.EXPECT().FetchPayloads(gomock.Any(), gomock.Any(), cfg.BaseOSTagNames()).Return(fetched, nil)
		mocks.estimation.EXPECT().Estimate(gomock.Any(), gomock.Any()).Return(basis, nil)
		mocks.reconciliation.EXPECT().ReconcileImages(gomock.Any(), basis, fetched.ComponentBuilds, api.ModeStrict, api.AssemblyTypeStandard).
			Return(&reconciliation.ImageResult{
				Selected: map[string]api.Build{
					"etcd-container": {ID: 9, PackageName: "etcd-container", NVR: "etcd-container-v4.8.2-5"},
				},
				Pinned: []string{"etcd-container"},
			}, nil)
		mocks.reconciliation.EXPECT().ReconcileRPMs(gomock.Any(), basis, gomock.Any()).
			Return(&reconciliation.RPMResult{
				Retained: map[string]map[int]api.Build{
					"openshift-clients": {
						7: {NVR: "openshift-clients-4.8.0-202107070000.p0.el7"},
						8: {NVR: "openshift-clients-4.8.0-202107070000.p0.el8"},
					},
				},
				Pinned: []string{"openshift-clients"},
			}, nil)

		// act
		result, err := svc.Generate(context.Background())

		assert.Nil(t, err)
		assert.Equal(t, "4.8.2", result.Name)
		assert.Equal(t, api.AssemblyTypeStandard, result.Type)
		assert.Equal(t, basis, result.Basis)
		assert.Equal(t, "4.8.2-x86_64", result.ReferenceReleases["x86_64"])

		assert.Equal(t, 1, len(result.ImageOverrides))
		assert.Equal(t, "ose-etcd", result.ImageOverrides[0].DistgitKey)
		assert.Equal(t, "etcd-container-v4.8.2-5", result.ImageOverrides[0].NVR)
		assert.Contains(t, result.ImageOverrides[0].Why, "Pinning to replicate")

		assert.Equal(t, 1, len(result.RPMOverrides))
		assert.Equal(t, "openshift-clients", result.RPMOverrides[0].DistgitKey)
		assert.Equal(t, "openshift-clients-4.8.0-202107070000.p0.el8", result.RPMOverrides[0].NVRsByEl[8])

		// in-flight first, then the explicit list, semver sorted
		assert.Equal(t, []string{"4.7.22", "4.8.0", "4.8.1"}, result.PreviousList)
	})

	t.Run("ExcludesNonPayloadComponentsFromBasisEstimation", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		cfg := testGroupConfig()
		cfg.Images = append(cfg.Images, config.ImageMeta{
			DistgitKey: "ose-installer-artifacts", Package: "installer-artifacts-container", ForRelease: true, IsPayload: false,
		})

		svc, _ := newServiceWithMocks(ctrl, cfg, Params{})

		fetched := &inspection.Result{
			ComponentBuilds: map[string]api.ComponentBuild{
				"etcd-container":                {Build: api.Build{PackageName: "etcd-container"}},
				"installer-artifacts-container": {Build: api.Build{PackageName: "installer-artifacts-container"}},
			},
		}

		// act
		builds := svc.(*service).participatingBuilds(fetched)

		assert.Equal(t, 1, len(builds))
		assert.Equal(t, "etcd-container", builds[0].PackageName)
	})
}

func TestCollectBaseOSImages(t *testing.T) {

	t.Run("FetchesBaseOSImagesForArchesThePayloadsDidNotCover", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		cfg := testGroupConfig()
		svc, mocks := newServiceWithMocks(ctrl, cfg, Params{AssemblyName: "4.8.2"})

		imagesByTag := map[string]map[string]string{
			"machine-os-content": {"x86_64": "quay.io/payload@sha256:rhcos-amd64"},
		}

		mocks.payload.EXPECT().
			FetchOSBuildImages(gomock.Any(), "https://releases.example.com/storage/4.8/builds/48.84.202107070000-0/s390x/meta.json").
			Return(map[string]string{"machine-os-content": "quay.io/rhcos@sha256:s390x"}, nil)

		// act
		err := svc.(*service).collectBaseOSImages(context.Background(), imagesByTag, "48.84.202107070000-0")

		assert.Nil(t, err)
		assert.Equal(t, "quay.io/rhcos@sha256:s390x", imagesByTag["machine-os-content"]["s390x"])
	})

	t.Run("UsesELQualifiedMetaURLForNewerBaseOSStreams", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		cfg := testGroupConfig()
		cfg.Group.BaseOS.ELMajor = 9
		cfg.Group.BaseOS.ELMinor = 2
		svc, mocks := newServiceWithMocks(ctrl, cfg, Params{AssemblyName: "4.8.2"})

		imagesByTag := map[string]map[string]string{
			"machine-os-content": {"x86_64": "quay.io/payload@sha256:rhcos-amd64"},
		}

		mocks.payload.EXPECT().
			FetchOSBuildImages(gomock.Any(), "https://releases.example.com/storage/4.8-9.2/builds/48.84.202107070000-0/s390x/meta.json").
			Return(map[string]string{"machine-os-content": "quay.io/rhcos@sha256:s390x"}, nil)

		// act
		err := svc.(*service).collectBaseOSImages(context.Background(), imagesByTag, "48.84.202107070000-0")

		assert.Nil(t, err)
	})

	t.Run("SkipsUncoveredArchesForCustomAssemblies", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, _ := newServiceWithMocks(ctrl, testGroupConfig(), Params{AssemblyName: "sandbox", Custom: true})

		imagesByTag := map[string]map[string]string{
			"machine-os-content": {"x86_64": "quay.io/payload@sha256:rhcos-amd64"},
		}

		// act
		err := svc.(*service).collectBaseOSImages(context.Background(), imagesByTag, "48.84.202107070000-0")

		assert.Nil(t, err)
		_, ok := imagesByTag["machine-os-content"]["s390x"]
		assert.False(t, ok)
	})

	t.Run("ReturnsErrorWhenBuildMetadataLacksAConfiguredImage", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, mocks := newServiceWithMocks(ctrl, testGroupConfig(), Params{AssemblyName: "4.8.2"})

		imagesByTag := map[string]map[string]string{
			"machine-os-content": {"x86_64": "quay.io/payload@sha256:rhcos-amd64"},
		}

		mocks.payload.EXPECT().FetchOSBuildImages(gomock.Any(), gomock.Any()).Return(map[string]string{}, nil)

		// act
		err := svc.(*service).collectBaseOSImages(context.Background(), imagesByTag, "48.84.202107070000-0")

		assert.NotNil(t, err)
		assert.Contains(t, err.Error(), "did not find base OS machine-os-content image for group architecture s390x")
	})
}

func TestCalculatePreviousList(t *testing.T) {

	t.Run("QueriesUpgradeGraphPerArchAndDeduplicates", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, mocks := newServiceWithMocks(ctrl, testGroupConfig(), Params{
			AssemblyName: "4.8.2",
			AutoPrevious: true,
		})

		mocks.graph.EXPECT().PreviousList(gomock.Any(), "4.8.2", "x86_64").Return([]string{"4.8.1", "4.7.22"}, nil)
		mocks.graph.EXPECT().PreviousList(gomock.Any(), "4.8.2", "s390x").Return([]string{"4.8.1", "4.8.0"}, nil)

		// act
		previous, err := svc.(*service).calculatePreviousList(context.Background())

		assert.Nil(t, err)
		assert.Equal(t, []string{"4.7.22", "4.8.0", "4.8.1"}, previous)
	})

	t.Run("ExpandsCandidateNameToAFullVersionForGraphQueries", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, mocks := newServiceWithMocks(ctrl, testGroupConfig(), Params{
			AssemblyName: "rc.1",
			AutoPrevious: true,
		})

		mocks.graph.EXPECT().PreviousList(gomock.Any(), "4.8.0-rc.1", "x86_64").Return([]string{"4.8.0-rc.0"}, nil)
		mocks.graph.EXPECT().PreviousList(gomock.Any(), "4.8.0-rc.1", "s390x").Return([]string{}, nil)

		// act
		previous, err := svc.(*service).calculatePreviousList(context.Background())

		assert.Nil(t, err)
		assert.Equal(t, []string{"4.8.0-rc.0"}, previous)
	})
}

func TestWriteDefinition(t *testing.T) {

	t.Run("RendersStandardAssemblyDocument", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, _ := newServiceWithMocks(ctrl, testGroupConfig(), Params{AssemblyName: "4.8.2"})

		result := &api.AssemblyResult{
			Name:              "4.8.2",
			Type:              api.AssemblyTypeStandard,
			Basis:             api.BasisEvent{ID: 42000000},
			ReferenceReleases: map[string]string{"x86_64": "4.8.2-x86_64"},
			ImagesByTag: map[string]map[string]string{
				"machine-os-content": {"x86_64": "quay.io/payload@sha256:rhcos-amd64"},
			},
			ImageOverrides: []api.ImageOverride{
				{DistgitKey: "ose-etcd", Why: "pinned", NVR: "etcd-container-v4.8.2-5"},
			},
			RPMOverrides: []api.RPMOverride{
				{DistgitKey: "openshift-clients", Why: "pinned", NVRsByEl: map[int]string{8: "openshift-clients-4.8.0-202107070000.p0.el8"}},
			},
			PreviousList: []string{"4.8.0", "4.8.1"},
		}

		var buffer bytes.Buffer

		// act
		err := svc.WriteDefinition(result, &buffer)

		assert.Nil(t, err)
		document := buffer.String()
		assert.Contains(t, document, "releases:")
		assert.Contains(t, document, "4.8.2:")
		assert.Contains(t, document, "type: standard")
		assert.Contains(t, document, "event: 42000000")
		assert.Contains(t, document, "x86_64: 4.8.2-x86_64")
		assert.Contains(t, document, "release_ticket: REL-0")
		assert.Contains(t, document, "upgrades: 4.8.0,4.8.1")
		assert.Contains(t, document, "machine-os-content:")
		assert.Contains(t, document, "distgit_key: ose-etcd")
		assert.Contains(t, document, "nvr: etcd-container-v4.8.2-5")
		assert.Contains(t, document, "el8: openshift-clients-4.8.0-202107070000.p0.el8")
		assert.NotContains(t, document, "arches!")
	})

	t.Run("OverridesGroupArchesForCustomAssemblies", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, _ := newServiceWithMocks(ctrl, testGroupConfig(), Params{AssemblyName: "sandbox", Custom: true})

		result := &api.AssemblyResult{
			Name:  "sandbox",
			Type:  api.AssemblyTypeCustom,
			Basis: api.BasisEvent{ID: 42000000},
			ImagesByTag: map[string]map[string]string{
				"machine-os-content": {"s390x": "quay.io/payload@sha256:rhcos-s390x"},
			},
		}

		var buffer bytes.Buffer

		// act
		err := svc.WriteDefinition(result, &buffer)

		assert.Nil(t, err)
		document := buffer.String()
		assert.Contains(t, document, "type: custom")
		assert.Contains(t, document, "arches!")
		assert.Contains(t, document, "- s390x")
		assert.NotContains(t, document, "advisories")
	})
}

func TestRenderSummary(t *testing.T) {

	t.Run("ReportsPinnedComponentsAndWarnings", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, _ := newServiceWithMocks(ctrl, testGroupConfig(), Params{AssemblyName: "4.8.2"})

		result := &api.AssemblyResult{
			Name:  "4.8.2",
			Type:  api.AssemblyTypeStandard,
			Basis: api.BasisEvent{ID: 42000000},
			ImageOverrides: []api.ImageOverride{
				{DistgitKey: "ose-etcd", NVR: "etcd-container-v4.8.2-5"},
			},
			Warnings: []string{"something noteworthy happened"},
		}

		var buffer bytes.Buffer

		// act
		svc.RenderSummary(result, &buffer)

		output := buffer.String()
		assert.Contains(t, output, "42000000")
		assert.Contains(t, output, "ose-etcd")
		assert.Contains(t, output, "something noteworthy happened")
	})
}
