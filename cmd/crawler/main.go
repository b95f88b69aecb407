package main

import (
	"encoding/json"
	"errors"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/agentrail/agent-registry-backend/cmd/flags"
	"github.com/agentrail/agent-registry-backend/crawler"
	"github.com/agentrail/agent-registry-backend/interfaces"
	"github.com/agentrail/agent-registry-backend/serviceresolver"
)

var crawlFlags = append([]cli.Flag{
	&cli.StringFlag{
		Name:  "endpoint",
		Usage: "endpoint URL to probe",
	},
	&cli.StringFlag{
		Name:  "domain",
		Usage: "agent domain to resolve via DNS SRV instead of --endpoint",
	},
	&cli.StringFlag{
		Name:  "resolver",
		Value: "",
		Usage: "DNS resolver address for --domain lookups",
	},
	&cli.DurationFlag{
		Name:  "probe-timeout",
		Value: crawler.DefaultProbeTimeout,
		Usage: "timeout per probe request",
	},
}, flags.LogFlags...)

func main() {
	app := &cli.App{
		Name:  "capability-crawler",
		Usage: "Probe an agent endpoint for advertised capabilities",
		Flags: crawlFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			var endpoints []string
			if endpoint := cCtx.String("endpoint"); endpoint != "" {
				endpoints = append(endpoints, endpoint)
			}

			if domain := cCtx.String("domain"); domain != "" {
				resolved, err := serviceresolver.ResolveEndpoints(domain, cCtx.String("resolver"))
				if err != nil {
					return err
				}
				logger.Info("Resolved agent endpoints", "domain", domain, "count", len(resolved))
				endpoints = append(endpoints, resolved...)
			}

			if len(endpoints) == 0 {
				return errors.New("either --endpoint or --domain is required")
			}

			probe := crawler.New(cCtx.Duration("probe-timeout"), logger)

			results := make(map[string]interfaces.CapabilitySet, len(endpoints))
			for _, endpoint := range endpoints {
				results[endpoint] = probe.Crawl(cCtx.Context, endpoint)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
