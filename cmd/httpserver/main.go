package main

import (
	"context"
	"errors"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/urfave/cli/v2"

	"github.com/agentrail/agent-registry-backend/attest"
	"github.com/agentrail/agent-registry-backend/cmd/flags"
	"github.com/agentrail/agent-registry-backend/crawler"
	"github.com/agentrail/agent-registry-backend/httpserver"
	"github.com/agentrail/agent-registry-backend/interfaces"
	"github.com/agentrail/agent-registry-backend/keysource"
	"github.com/agentrail/agent-registry-backend/registry"
	"github.com/agentrail/agent-registry-backend/storage"
)

var serveFlags = append([]cli.Flag{
	&cli.StringFlag{
		Name:  "listen-addr",
		Value: "127.0.0.1:8080",
		Usage: "address to listen on for API",
	},
	&cli.DurationFlag{
		Name:  "probe-timeout",
		Value: crawler.DefaultProbeTimeout,
		Usage: "timeout per capability probe request",
	},
	flags.ChainFlag,
	flags.SignerKeyFlag,
	flags.StoreFlag,
	flags.MetricsAddrFlag,
	flags.PprofFlag,
	flags.DrainSecondsFlag,
}, flags.LogFlags...)

func main() {
	app := &cli.App{
		Name:  "agent-registry-server",
		Usage: "Serve the agent feedback and capability discovery API",
		Flags: serveFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			chains, err := flags.ParseChains(cCtx.StringSlice(flags.ChainFlag.Name))
			if err != nil {
				logger.Error("Invalid chain configuration", "err", err)
				return err
			}
			if len(chains) == 0 {
				return errors.New("at least one --chain is required")
			}

			keyLocator := cCtx.String(flags.SignerKeyFlag.Name)
			if keyLocator == "" {
				return errors.New("--signer-key is required")
			}
			key, err := keysource.Load(context.Background(), keyLocator)
			if err != nil {
				logger.Error("Failed to load signer key", "err", err)
				return err
			}
			logger.Info("Signer key loaded", "address", key.Address.Hex())

			registryFactory := registry.NewFactory(chains, func(chainID uint64) (*bind.TransactOpts, error) {
				return bind.NewKeyedTransactorWithChainID(key.PrivateKey, new(big.Int).SetUint64(chainID))
			})

			var store interfaces.ContentStore
			if storeURI := cCtx.String(flags.StoreFlag.Name); storeURI != "" {
				store, err = storage.StoreFor(storeURI, logger)
				if err != nil {
					logger.Error("Failed to create content store", "err", err)
					return err
				}
			}

			pipeline := attest.NewPipeline(registryFactory, store, attest.NewSigner(key.PrivateKey), logger)
			probe := crawler.New(cCtx.Duration("probe-timeout"), logger)

			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String("listen-addr"))

			server, err := httpserver.New(cfg, nil)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}
			// The handler needs the server's metrics counters.
			handler := httpserver.NewHandler(pipeline, store, probe, server.Metrics(), logger)
			server.SetHandler(handler)

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			// Give the drain goroutine a moment when shutting down right
			// after a drain request.
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
