/*
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func newInvokeCmd(a *app) *cobra.Command {
	var transient []string
	cmd := &cobra.Command{
		Use:   "invoke <function> [args...]",
		Short: "Submit or evaluate a contract function",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTransient(transient)
			if err != nil {
				return err
			}
			return a.call(cmd.OutOrStdout(), a.method(args[0]), args[1:], t)
		},
	}
	cmd.Flags().StringArrayVar(&transient, "transient", nil, "transient entry as key=value (repeatable)")
	return cmd
}

func newBatchesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "batches",
		Short: "List every batch in the world state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.call(cmd.OutOrStdout(), a.method("GetAvailableBatches"), []string{}, nil)
		},
	}
}

func newBatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <batch-id>",
		Short: "Show one batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.call(cmd.OutOrStdout(), a.method("ReadBatch"), args, nil)
		},
	}
}

func newTraceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <batch-internal-id>",
		Short: "List the batches carrying a producer-assigned id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.call(cmd.OutOrStdout(), a.method("TraceBatchByInternalID"), args, nil)
		},
	}
}

func parseTransient(entries []string) (map[string]string, error) {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		if !ok || k == "" {
			return nil, errors.Newf("invalid transient entry %q, expected key=value", e)
		}
		out[k] = v
	}
	return out, nil
}
