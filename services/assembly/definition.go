package assembly

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/olekukonko/tablewriter"
	yaml "gopkg.in/yaml.v2"

	"github.com/relengfoundry/assembly-gen/api"
)

// WriteDefinition serializes the assembly definition document
func (s *service) WriteDefinition(result *api.AssemblyResult, writer io.Writer) error {

	data, err := yaml.Marshal(s.buildDefinition(result))
	if err != nil {
		return fmt.Errorf("failed serializing assembly definition: %w", err)
	}

	_, err = writer.Write(data)
	return err
}

// buildDefinition shapes the result into the declarative document consumed downstream;
// MapSlice keeps the section ordering stable across runs
func (s *service) buildDefinition(result *api.AssemblyResult) yaml.MapSlice {

	groupInfo := yaml.MapSlice{}
	if result.Type == api.AssemblyTypeCustom {
		// when fewer payloads than group arches were supplied, the group arches
		// are overridden to the set actually covered
		primaryTag := s.config.PrimaryBaseOSTag()
		arches := make([]string, 0, len(result.ImagesByTag[primaryTag]))
		for arch := range result.ImagesByTag[primaryTag] {
			arches = append(arches, arch)
		}
		sort.Strings(arches)
		groupInfo = append(groupInfo, yaml.MapItem{Key: "arches!", Value: arches})
	} else {
		// placeholder advisory ids and release ticket, replaced when preparing the release
		groupInfo = append(groupInfo, yaml.MapItem{Key: "advisories", Value: map[string]int{
			"image":    -1,
			"rpm":      -1,
			"extras":   -1,
			"metadata": -1,
		}})
		groupInfo = append(groupInfo, yaml.MapItem{Key: "release_ticket", Value: "REL-0"})
	}
	if len(result.PreviousList) > 0 {
		groupInfo = append(groupInfo, yaml.MapItem{Key: "upgrades", Value: strings.Join(result.PreviousList, ",")})
	}

	machineOS := yaml.MapSlice{}
	for _, tag := range s.config.Group.BaseOS.Tags {
		specsByArch, ok := result.ImagesByTag[tag.Name]
		if !ok {
			continue
		}
		machineOS = append(machineOS, yaml.MapItem{
			Key:   tag.Name,
			Value: yaml.MapSlice{{Key: "images", Value: specsByArch}},
		})
	}

	imageMembers := make([]yaml.MapSlice, 0, len(result.ImageOverrides))
	for _, override := range result.ImageOverrides {
		imageMembers = append(imageMembers, yaml.MapSlice{
			{Key: "distgit_key", Value: override.DistgitKey},
			{Key: "why", Value: override.Why},
			{Key: "metadata", Value: yaml.MapSlice{
				{Key: "is", Value: yaml.MapSlice{{Key: "nvr", Value: override.NVR}}},
			}},
		})
	}

	rpmMembers := make([]yaml.MapSlice, 0, len(result.RPMOverrides))
	for _, override := range result.RPMOverrides {
		elVersions := make([]int, 0, len(override.NVRsByEl))
		for elVersion := range override.NVRsByEl {
			elVersions = append(elVersions, elVersion)
		}
		sort.Ints(elVersions)

		is := yaml.MapSlice{}
		for _, elVersion := range elVersions {
			is = append(is, yaml.MapItem{Key: fmt.Sprintf("el%v", elVersion), Value: override.NVRsByEl[elVersion]})
		}

		rpmMembers = append(rpmMembers, yaml.MapSlice{
			{Key: "distgit_key", Value: override.DistgitKey},
			{Key: "why", Value: override.Why},
			{Key: "metadata", Value: yaml.MapSlice{{Key: "is", Value: is}}},
		})
	}

	return yaml.MapSlice{
		{Key: "releases", Value: yaml.MapSlice{
			{Key: result.Name, Value: yaml.MapSlice{
				{Key: "assembly", Value: yaml.MapSlice{
					{Key: "type", Value: string(result.Type)},
					{Key: "basis", Value: yaml.MapSlice{
						{Key: "event", Value: result.Basis.ID},
						{Key: "reference_releases", Value: result.ReferenceReleases},
					}},
					{Key: "group", Value: groupInfo},
					{Key: "machine_os", Value: machineOS},
					{Key: "members", Value: yaml.MapSlice{
						{Key: "rpms", Value: rpmMembers},
						{Key: "images", Value: imageMembers},
					}},
				}},
			}},
		}},
	}
}

// RenderSummary prints a human-readable recap of the run
func (s *service) RenderSummary(result *api.AssemblyResult, writer io.Writer) {

	fmt.Fprintf(writer, "Assembly %v (%v) anchored to basis event %v\n", result.Name, result.Type, aurora.Green(result.Basis.ID))

	if len(result.ImageOverrides) == 0 && len(result.RPMOverrides) == 0 {
		fmt.Fprintf(writer, "%v\n", aurora.Green("All components are reproduced by the basis event; no overrides required"))
	} else {
		data := make([][]string, 0, len(result.ImageOverrides)+len(result.RPMOverrides))
		for _, override := range result.ImageOverrides {
			data = append(data, []string{"image", override.DistgitKey, override.NVR})
		}
		for _, override := range result.RPMOverrides {
			nvrs := make([]string, 0, len(override.NVRsByEl))
			elVersions := make([]int, 0, len(override.NVRsByEl))
			for elVersion := range override.NVRsByEl {
				elVersions = append(elVersions, elVersion)
			}
			sort.Ints(elVersions)
			for _, elVersion := range elVersions {
				nvrs = append(nvrs, fmt.Sprintf("el%v: %v", elVersion, override.NVRsByEl[elVersion]))
			}
			data = append(data, []string{"rpm", override.DistgitKey, strings.Join(nvrs, ", ")})
		}

		fmt.Fprintf(writer, "%v\n", aurora.Red(fmt.Sprintf("%v component(s) pinned to their observed builds:", len(data))))

		table := tablewriter.NewWriter(writer)
		table.SetHeader([]string{"Kind", "Component", "Pinned NVRs"})
		table.SetBorder(false)
		table.AppendBulk(data)
		table.Render()
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(writer, "%v\n", aurora.Yellow("warning: "+warning))
	}
}
