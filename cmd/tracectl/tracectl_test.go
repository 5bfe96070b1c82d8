/*
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textrace/traceability-chaincode/internal/domain"
	"github.com/textrace/traceability-chaincode/internal/gateway"
)

func run(t *testing.T, args ...string) (gateway.Response, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()

	var resp gateway.Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp), out.String())
	return resp, err
}

func TestInvokeAndRead(t *testing.T) {
	dir := t.TempDir()

	resp, err := run(t, "--state-dir", dir, "invoke", "CreateRegistration",
		"rg-1", "pu-1", "b-1", "FIBER", "lot-1", "sup-1", "KG", "100", "5", `{"cotton":100}`)
	require.NoError(t, err)
	assert.Equal(t, "registration [rg-1] & batch [b-1] were successfully added to the ledger", resp.Message)
	assert.NotEmpty(t, resp.TxID)

	resp, err = run(t, "--state-dir", dir, "batch", "b-1")
	require.NoError(t, err)
	var batch domain.Batch
	require.NoError(t, json.Unmarshal(resp.Data, &batch))
	assert.Equal(t, "Org1MSP:pu-1", batch.LatestOwner)

	resp, err = run(t, "--state-dir", dir, "trace", "lot-1")
	require.NoError(t, err)
	var traced []domain.Batch
	require.NoError(t, json.Unmarshal(resp.Data, &traced))
	require.Len(t, traced, 1)

	resp, err = run(t, "--state-dir", dir, "--enrolled=false", "batches")
	require.Error(t, err)
	assert.Equal(t, 403, resp.Status)
}

func TestInvokeUnknownContract(t *testing.T) {
	resp, err := run(t, "--state-dir", t.TempDir(), "invoke", "Other:ReadBatch", "b-1")
	require.Error(t, err)
	assert.Equal(t, "Contract not found with name Other", resp.Message)
}

func TestServedContractName(t *testing.T) {
	dir := t.TempDir()

	resp, err := run(t, "--state-dir", dir, "--contract", "TextileContract", "invoke", "CreateRegistration",
		"rg-1", "pu-1", "b-1", "FIBER", "lot-1", "sup-1", "KG", "100", "5", `{"cotton":100}`)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)

	resp, err = run(t, "--state-dir", dir, "--contract", "TextileContract", "batch", "b-1")
	require.NoError(t, err)
	var batch domain.Batch
	require.NoError(t, json.Unmarshal(resp.Data, &batch))
	assert.Equal(t, "lot-1", batch.BatchInternalID)

	resp, err = run(t, "--state-dir", dir, "--contract", "TextileContract", "invoke", gateway.DefaultContract+":ReadBatch", "b-1")
	require.Error(t, err)
	assert.Equal(t, "Contract not found with name "+gateway.DefaultContract, resp.Message)
}

func TestParseTransient(t *testing.T) {
	got, err := parseTransient([]string{"price=10", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"price": "10", "note": "a=b"}, got)

	_, err = parseTransient([]string{"novalue"})
	assert.Error(t, err)
}
