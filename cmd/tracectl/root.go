/*
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/textrace/traceability-chaincode/internal/config"
	"github.com/textrace/traceability-chaincode/internal/engine"
	"github.com/textrace/traceability-chaincode/internal/gateway"
	"github.com/textrace/traceability-chaincode/internal/identity"
	"github.com/textrace/traceability-chaincode/internal/ledger"
	"github.com/textrace/traceability-chaincode/internal/logger"
)

// app carries the flags shared by every command.
type app struct {
	stateDir  string
	channel   string
	chaincode string
	contract  string
	client    string
	msp       string
	enrolled  bool

	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}
	root := &cobra.Command{
		Use:   "tracectl",
		Short: "Textile traceability ledger, local edition",
		Long: `tracectl runs traceability activities against a local Pebble world state.

Requests go through the same gateway decoding as the network deployment:
a "<contract>:<function>" method and positional string arguments.

Examples:
  tracectl invoke CreateRegistration rg-1 pu-1 b-1 FIBER lot-1 sup-1 KG 100 5 '{"cotton":100}'
  tracectl batches
  tracectl batch b-1
  tracectl trace lot-1`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return errors.Wrap(err, "failed to load configuration")
			}
			if !cmd.Flags().Changed("state-dir") {
				a.stateDir = cfg.State.Dir
			}
			log, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
			if err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}
			a.log = log
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.stateDir, "state-dir", "", "world state directory (defaults to STATE_DIR)")
	flags.StringVar(&a.channel, "channel", "mychannel", "channel name")
	flags.StringVar(&a.chaincode, "chaincode", "traceability", "chaincode name")
	flags.StringVar(&a.contract, "contract", gateway.DefaultContract, "contract name served by the gateway")
	flags.StringVar(&a.client, "client", "x509::CN=admin", "submitter client id")
	flags.StringVar(&a.msp, "msp", "Org1MSP", "submitter MSP id")
	flags.BoolVar(&a.enrolled, "enrolled", true, "whether the submitter is enrolled")

	root.AddCommand(newInvokeCmd(a), newBatchesCmd(a), newBatchCmd(a), newTraceCmd(a))
	return root
}

func (a *app) identity() identity.Identity {
	return identity.Static{Client: a.client, MSP: a.msp, Enrolled: a.enrolled}
}

// withGateway opens the world state for the duration of fn.
func (a *app) withGateway(fn func(*gateway.Gateway) error) error {
	store, err := ledger.OpenPebbleStore(a.stateDir)
	if err != nil {
		return err
	}
	defer store.Close()

	eng := engine.New(engine.WithLogger(a.log))
	return fn(gateway.New(store, eng, gateway.WithLogger(a.log), gateway.WithContract(a.contract)))
}

// method qualifies fn with the served contract.
func (a *app) method(fn string) string {
	if strings.Contains(fn, ":") {
		return fn
	}
	return a.contract + ":" + fn
}

// call sends one request and prints the response.
func (a *app) call(out io.Writer, method string, args []string, transient map[string]string) error {
	body, err := json.Marshal(map[string]interface{}{
		"method":    method,
		"args":      args,
		"transient": transient,
	})
	if err != nil {
		return err
	}
	return a.withGateway(func(gw *gateway.Gateway) error {
		resp := gw.Handle(a.identity(), a.channel, a.chaincode, body)
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
		if !resp.OK() {
			return errors.Newf("request failed with status %d", resp.Status)
		}
		return nil
	})
}
