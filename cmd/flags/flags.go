// Package flags holds the flag definitions and configuration helpers
// shared by the agent registry binaries.
package flags

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	appcommon "github.com/agentrail/agent-registry-backend/common"
	"github.com/agentrail/agent-registry-backend/httpserver"
	"github.com/agentrail/agent-registry-backend/registry"
)

var (
	LogJSONFlag = &cli.BoolFlag{
		Name:  "log-json",
		Value: false,
		Usage: "log in JSON format",
	}
	LogDebugFlag = &cli.BoolFlag{
		Name:  "log-debug",
		Value: false,
		Usage: "log debug messages",
	}
	LogUIDFlag = &cli.BoolFlag{
		Name:  "log-uid",
		Value: false,
		Usage: "generate a uuid and add to all log messages",
	}
	LogServiceFlag = &cli.StringFlag{
		Name:  "log-service",
		Value: "agent-registry",
		Usage: "add 'service' tag to logs",
	}

	ChainFlag = &cli.StringSliceFlag{
		Name:  "chain",
		Usage: "supported chain as <chainId>=<registryAddress>=<rpcUrl>; repeatable",
	}
	SignerKeyFlag = &cli.StringFlag{
		Name:  "signer-key",
		Usage: "signer key source: hex:<key>, file:<path>, vault:<mount>/<path>#<field>, passphrase:<phrase>",
	}
	StoreFlag = &cli.StringFlag{
		Name:  "store",
		Value: "",
		Usage: "content store location, e.g. ipfs://127.0.0.1:5001/?gateway=https://ipfs.io",
	}

	MetricsAddrFlag = &cli.StringFlag{
		Name:  "metrics-addr",
		Value: "",
		Usage: "address to listen on for Prometheus metrics",
	}
	PprofFlag = &cli.BoolFlag{
		Name:  "pprof",
		Value: false,
		Usage: "enable pprof debug endpoint",
	}
	DrainSecondsFlag = &cli.Int64Flag{
		Name:  "drain-seconds",
		Value: 45,
		Usage: "seconds to wait in drain HTTP request",
	}
)

// LogFlags is the flag set every binary carries.
var LogFlags = []cli.Flag{LogJSONFlag, LogDebugFlag, LogUIDFlag, LogServiceFlag}

// SetupLogger builds the process logger from the log flags.
func SetupLogger(cCtx *cli.Context) *slog.Logger {
	logger := appcommon.SetupLogger(&appcommon.LoggingOpts{
		Debug:   cCtx.Bool(LogDebugFlag.Name),
		JSON:    cCtx.Bool(LogJSONFlag.Name),
		Service: cCtx.String(LogServiceFlag.Name),
		Version: appcommon.Version,
	})

	if cCtx.Bool(LogUIDFlag.Name) {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

// ConfigureServer assembles the HTTP server config from flags.
func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *httpserver.HTTPServerConfig {
	return &httpserver.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              cCtx.String(MetricsAddrFlag.Name),
		Log:                      logger,
		EnablePprof:              cCtx.Bool(PprofFlag.Name),
		DrainDuration:            time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

// ParseChains decodes repeated --chain values into a registry chain map.
func ParseChains(values []string) (map[uint64]registry.ChainConfig, error) {
	chains := make(map[uint64]registry.ChainConfig, len(values))
	for _, value := range values {
		parts := strings.SplitN(value, "=", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid --chain %q: want <chainId>=<registryAddress>=<rpcUrl>", value)
		}

		chainID, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chain id in --chain %q: %w", value, err)
		}
		if !common.IsHexAddress(parts[1]) {
			return nil, fmt.Errorf("invalid registry address in --chain %q", value)
		}

		chains[chainID] = registry.ChainConfig{
			RPCURL:   parts[2],
			Registry: common.HexToAddress(parts[1]),
		}
	}
	return chains, nil
}
