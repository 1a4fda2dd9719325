package main

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kingpin"
	foundation "github.com/estafette/estafette-foundation"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"

	"github.com/relengfoundry/assembly-gen/clients/buildsystem"
	"github.com/relengfoundry/assembly-gen/clients/releasepayload"
	"github.com/relengfoundry/assembly-gen/clients/upgradegraph"
	"github.com/relengfoundry/assembly-gen/config"
	"github.com/relengfoundry/assembly-gen/services/assembly"
	"github.com/relengfoundry/assembly-gen/services/estimation"
	"github.com/relengfoundry/assembly-gen/services/evaluation"
	"github.com/relengfoundry/assembly-gen/services/inspection"
	"github.com/relengfoundry/assembly-gen/services/reconciliation"
)

var (
	appgroup  string
	app       string
	version   string
	branch    string
	revision  string
	buildDate string
)

var (
	assemblyNameFlag = kingpin.Flag("name", "The name of the assembly (e.g. 4.9.99, art1234) to scaffold.").Envar("ASSEMBLY_NAME").Required().String()
	nightliesFlag    = kingpin.Flag("nightly", "A nightly release name for each architecture (e.g. 4.7.0-0.nightly-2021-07-07-214918).").Envar("ASSEMBLY_NIGHTLIES").Strings()
	standardsFlag    = kingpin.Flag("standard", "The name and arch of an official release (e.g. 4.8.3-x86_64).").Envar("ASSEMBLY_STANDARDS").Strings()
	customFlag       = kingpin.Flag("custom", "Apply weaker conformance criteria (e.g. a payload is not required for every arch).").Envar("ASSEMBLY_CUSTOM").Bool()
	inFlightFlag     = kingpin.Flag("in-flight", "An in-flight release that can upgrade to this release.").Envar("ASSEMBLY_IN_FLIGHT").String()
	previousFlag     = kingpin.Flag("previous", "A release that can upgrade to this release; repeatable.").Envar("ASSEMBLY_PREVIOUS").Strings()
	autoPreviousFlag = kingpin.Flag("auto-previous", "Calculate the previous list from the upgrade graph.").Envar("ASSEMBLY_AUTO_PREVIOUS").Bool()
	graphURLFlag     = kingpin.Flag("graph-url", "Override the upgrade graph url from the group config.").Envar("ASSEMBLY_GRAPH_URL").String()
	groupConfigFlag  = kingpin.Flag("group-config", "Path to the group metadata yaml file.").Envar("ASSEMBLY_GROUP_CONFIG").Default("group.yaml").String()
	outputFileFlag   = kingpin.Flag("output-file", "File path to write the generated assembly definition to, next to stdout.").Envar("ASSEMBLY_OUTPUT_FILE").String()
)

func main() {

	kingpin.Parse()

	applicationInfo := foundation.NewApplicationInfo(appgroup, app, version, branch, revision, buildDate)
	foundation.InitLoggingFromEnv(applicationInfo)

	// tag all logs of this run for correlation
	log.Logger = log.Logger.With().Str("runId", uuid.New().String()).Logger()

	closer := initJaeger(app)
	defer closer.Close()

	ctx := context.Background()

	cfg, err := config.ReadConfigFromFile(*groupConfigFlag)
	if err != nil {
		log.Fatal().Err(err).Msgf("Failed reading group config from %v", *groupConfigFlag)
	}
	if *graphURLFlag != "" {
		cfg.Endpoints.GraphURL = *graphURLFlag
	}

	buildsystemClient, err := buildsystem.NewClient(cfg.Endpoints.BuildSystemURL, cfg.Policy.QPS(), cfg.Policy.Concurrency())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed creating buildsystem client")
	}

	payloadClient, err := releasepayload.NewClient()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed creating releasepayload client")
	}

	graphClient, err := upgradegraph.NewClient(cfg.Endpoints.GraphURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed creating upgradegraph client")
	}

	evaluationService, err := evaluation.NewService()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed creating evaluation service")
	}

	inspectionService, err := inspection.NewService(buildsystemClient, payloadClient, cfg.ImagesByPackage(), cfg.Policy.Concurrency())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed creating inspection service")
	}

	estimationService, err := estimation.NewService(buildsystemClient, cfg.Policy.BasisMargin())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed creating estimation service")
	}

	reconciliationService, err := reconciliation.NewService(buildsystemClient, evaluationService, cfg.Images, cfg.RPMsByPackage(), cfg.Group.Arches)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed creating reconciliation service")
	}

	assemblyService, err := assembly.NewService(cfg, assembly.Params{
		AssemblyName: *assemblyNameFlag,
		Nightlies:    *nightliesFlag,
		Standards:    *standardsFlag,
		Custom:       *customFlag,
		InFlight:     *inFlightFlag,
		PreviousList: *previousFlag,
		AutoPrevious: *autoPreviousFlag,
	}, inspectionService, estimationService, reconciliationService, graphClient, payloadClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed creating assembly service")
	}

	result, err := assemblyService.Generate(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed generating assembly definition")
	}

	if err = assemblyService.WriteDefinition(result, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("Failed writing assembly definition")
	}

	if *outputFileFlag != "" {
		file, err := os.Create(*outputFileFlag)
		if err != nil {
			log.Fatal().Err(err).Msgf("Failed creating output file %v", *outputFileFlag)
		}
		defer file.Close()
		if err = assemblyService.WriteDefinition(result, file); err != nil {
			log.Fatal().Err(err).Msgf("Failed writing assembly definition to %v", *outputFileFlag)
		}
	}

	assemblyService.RenderSummary(result, os.Stderr)
}

// initJaeger returns an instance of Jaeger Tracer that can be configured with environment variables
// https://github.com/jaegertracing/jaeger-client-go#environment-variables
func initJaeger(service string) io.Closer {

	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Generating Jaeger config from environment variables failed")
	}

	// disable jaeger if service name is empty
	if cfg.ServiceName == "" {
		cfg.Disabled = true
	}

	closer, err := cfg.InitGlobalTracer(service, jaegercfg.Logger(jaeger.StdLogger))
	if err != nil {
		log.Fatal().Err(err).Msg("Generating Jaeger tracer failed")
	}

	return closer
}
