package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/urfave/cli/v2"

	"github.com/agentrail/agent-registry-backend/attest"
	"github.com/agentrail/agent-registry-backend/cmd/flags"
	"github.com/agentrail/agent-registry-backend/interfaces"
	"github.com/agentrail/agent-registry-backend/keysource"
	"github.com/agentrail/agent-registry-backend/registry"
	"github.com/agentrail/agent-registry-backend/storage"
)

var clientFlags = append([]cli.Flag{
	&cli.StringFlag{
		Name:     "agent-id",
		Usage:    "agent identifier as <chainId>:<tokenId>",
		Required: true,
	},
	&cli.Float64Flag{
		Name:     "score",
		Usage:    "feedback score, 0-100",
		Required: true,
	},
	&cli.StringSliceFlag{
		Name:  "tag",
		Usage: "feedback tag; at most two are used",
	},
	&cli.StringFlag{Name: "skill", Usage: "skill the feedback refers to"},
	&cli.StringFlag{Name: "task-id", Usage: "task reference"},
	&cli.StringFlag{Name: "capability", Usage: "capability the feedback refers to"},
	&cli.StringFlag{Name: "name", Usage: "display name for the feedback"},
	&cli.StringFlag{Name: "context", Usage: "JSON context object"},
	&cli.StringFlag{Name: "proof-of-payment", Usage: "proof-of-payment reference"},
	&cli.StringFlag{Name: "extra", Usage: "JSON object merged into the record last"},
	&cli.Uint64Flag{Name: "expiry-hours", Usage: "authorization validity in hours", Value: attest.DefaultExpiryHours},
	&cli.DurationFlag{Name: "confirm-timeout", Usage: "how long to wait for confirmation", Value: 5 * time.Minute},
	flags.ChainFlag,
	flags.SignerKeyFlag,
	flags.StoreFlag,
}, flags.LogFlags...)

func main() {
	app := &cli.App{
		Name:  "feedback-client",
		Usage: "Submit one verifiable feedback record for an agent",
		Flags: clientFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			chains, err := flags.ParseChains(cCtx.StringSlice(flags.ChainFlag.Name))
			if err != nil {
				return err
			}
			if len(chains) == 0 {
				return errors.New("at least one --chain is required")
			}

			key, err := keysource.Load(cCtx.Context, cCtx.String(flags.SignerKeyFlag.Name))
			if err != nil {
				return fmt.Errorf("loading signer key: %w", err)
			}

			var contextObj, extra map[string]any
			if raw := cCtx.String("context"); raw != "" {
				if err := json.Unmarshal([]byte(raw), &contextObj); err != nil {
					return fmt.Errorf("invalid --context: %w", err)
				}
			}
			if raw := cCtx.String("extra"); raw != "" {
				if err := json.Unmarshal([]byte(raw), &extra); err != nil {
					return fmt.Errorf("invalid --extra: %w", err)
				}
			}

			registryFactory := registry.NewFactory(chains, func(chainID uint64) (*bind.TransactOpts, error) {
				return bind.NewKeyedTransactorWithChainID(key.PrivateKey, new(big.Int).SetUint64(chainID))
			})

			var store interfaces.ContentStore
			if storeURI := cCtx.String(flags.StoreFlag.Name); storeURI != "" {
				store, err = storage.StoreFor(storeURI, logger)
				if err != nil {
					return err
				}
			}

			pipeline := attest.NewPipeline(registryFactory, store, attest.NewSigner(key.PrivateKey), logger)

			ctx, cancel := context.WithTimeout(cCtx.Context, cCtx.Duration("confirm-timeout"))
			defer cancel()

			result, err := pipeline.Submit(ctx, attest.SubmitRequest{
				AgentID:        cCtx.String("agent-id"),
				Score:          cCtx.Float64("score"),
				Tags:           cCtx.StringSlice("tag"),
				Skill:          cCtx.String("skill"),
				TaskID:         cCtx.String("task-id"),
				Capability:     cCtx.String("capability"),
				Name:           cCtx.String("name"),
				Context:        contextObj,
				ProofOfPayment: cCtx.String("proof-of-payment"),
				Extra:          extra,
				ExpiryHours:    cCtx.Uint64("expiry-hours"),
			})
			if err != nil {
				return err
			}

			out := map[string]any{
				"txHash":      result.TxHash.Hex(),
				"blockNumber": result.BlockNumber.String(),
				"index":       result.Index,
				"contentUri":  result.ContentURI.String(),
				"record":      result.Record,
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
