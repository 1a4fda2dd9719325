package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testConfig = `
group:
  name: ocp-test
  majorMinor: "4.9"
  arches:
  - x86_64
  - s390x
  baseOS:
    elMajor: 8
    elMinor: 4
    releasesUrl: https://releases.example.com/storage/releases
    tags:
    - name: machine-os-content
      buildMetadataKey: oscontainer
      primary: true
images:
- distgitKey: ose-installer
  package: ose-installer-container
  forRelease: true
  isPayload: true
- distgitKey: ose-build-scaffold
  package: ose-build-scaffold-container
  baseOnly: true
rpms:
- distgitKey: openshift
  package: openshift
endpoints:
  buildSystemUrl: https://buildsystem.example.com/hub
  graphUrl: https://graph.example.com/graph
`

func TestReadConfig(t *testing.T) {

	t.Run("ReturnsUnmarshalledGroupMetadata", func(t *testing.T) {

		// act
		config, err := ReadConfig([]byte(testConfig))

		assert.Nil(t, err)
		assert.Equal(t, "4.9", config.Group.MajorMinor)
		assert.Equal(t, []string{"x86_64", "s390x"}, config.Group.Arches)
		assert.Equal(t, 2, len(config.Images))
		assert.Equal(t, 1, len(config.RPMs))
		assert.Equal(t, "https://buildsystem.example.com/hub", config.Endpoints.BuildSystemURL)
	})

	t.Run("ReturnsErrorIfMajorMinorIsMissing", func(t *testing.T) {

		// act
		_, err := ReadConfig([]byte("group:\n  arches:\n  - x86_64\n"))

		assert.NotNil(t, err)
	})

	t.Run("ReturnsErrorIfNoArchesAreDeclared", func(t *testing.T) {

		// act
		_, err := ReadConfig([]byte("group:\n  majorMinor: \"4.9\"\n"))

		assert.NotNil(t, err)
	})

	t.Run("ReturnsErrorForUnknownFields", func(t *testing.T) {

		// act
		_, err := ReadConfig([]byte("group:\n  majorMinor: \"4.9\"\n  arches:\n  - x86_64\nunknown: true\n"))

		assert.NotNil(t, err)
	})
}

func TestPolicyConfig(t *testing.T) {

	t.Run("DefaultsBasisMarginToFiveMinutes", func(t *testing.T) {

		policy := PolicyConfig{}

		// act
		margin := policy.BasisMargin()

		assert.Equal(t, 5*time.Minute, margin)
	})

	t.Run("UsesConfiguredBasisMargin", func(t *testing.T) {

		policy := PolicyConfig{BasisMarginMinutes: 10}

		// act
		margin := policy.BasisMargin()

		assert.Equal(t, 10*time.Minute, margin)
	})

	t.Run("DefaultsConcurrencyToFiveHundred", func(t *testing.T) {

		policy := PolicyConfig{}

		// act
		concurrency := policy.Concurrency()

		assert.Equal(t, 500, concurrency)
	})
}

func TestConfigLookups(t *testing.T) {

	t.Run("IndexesImagesByPackage", func(t *testing.T) {

		config, err := ReadConfig([]byte(testConfig))
		assert.Nil(t, err)

		// act
		images := config.ImagesByPackage()

		assert.Equal(t, "ose-installer", images["ose-installer-container"].DistgitKey)
	})

	t.Run("ReturnsPrimaryBaseOSTag", func(t *testing.T) {

		config, err := ReadConfig([]byte(testConfig))
		assert.Nil(t, err)

		// act
		primary := config.PrimaryBaseOSTag()

		assert.Equal(t, "machine-os-content", primary)
	})

	t.Run("ReturnsBaseOSTagNames", func(t *testing.T) {

		config, err := ReadConfig([]byte(testConfig))
		assert.Nil(t, err)

		// act
		names := config.BaseOSTagNames()

		assert.True(t, names["machine-os-content"])
		assert.False(t, names["ose-installer"])
	})
}

func TestExplicitPayloadName(t *testing.T) {

	t.Run("ReturnsFalseWhenNoPayloadNameIsDeclared", func(t *testing.T) {

		meta := ImageMeta{}

		// act
		_, explicit := meta.ExplicitPayloadName()

		assert.False(t, explicit)
	})

	t.Run("ReturnsDeclaredPayloadName", func(t *testing.T) {

		meta := ImageMeta{PayloadName: "installer"}

		// act
		name, explicit := meta.ExplicitPayloadName()

		assert.True(t, explicit)
		assert.Equal(t, "installer", name)
	})
}
