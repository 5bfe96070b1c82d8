/*
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/textrace/traceability-chaincode/internal/config"
	"github.com/textrace/traceability-chaincode/internal/domain"
	"github.com/textrace/traceability-chaincode/internal/gateway"
	"github.com/textrace/traceability-chaincode/internal/identity"
)

type fakeIdentity struct {
	id       string
	msp      string
	enrolled bool
}

func (f *fakeIdentity) GetID() (string, error) {
	return base64.StdEncoding.EncodeToString([]byte(f.id)), nil
}

func (f *fakeIdentity) GetMSPID() (string, error) { return f.msp, nil }

func (f *fakeIdentity) GetAttributeValue(name string) (string, bool, error) {
	if name == identity.EnrollmentAttribute && f.enrolled {
		return f.id, true, nil
	}
	return "", false, nil
}

func (f *fakeIdentity) AssertAttributeValue(name, value string) error {
	v, found, _ := f.GetAttributeValue(name)
	if !found || v != value {
		return errors.Newf("attribute %s is not %s", name, value)
	}
	return nil
}

func (f *fakeIdentity) GetX509Certificate() (*x509.Certificate, error) { return nil, nil }

var (
	spinner = &fakeIdentity{id: "x509::CN=spinner::CN=ca.org1", msp: "Org1MSP", enrolled: true}
	weaver  = &fakeIdentity{id: "x509::CN=weaver::CN=ca.org2", msp: "Org2MSP", enrolled: true}
)

func setupStub(t *testing.T) (*shimtest.MockStub, *contractapi.TransactionContext, *TraceabilityContract) {
	t.Helper()
	stub := shimtest.NewMockStub("traceability", nil)
	ctx := new(contractapi.TransactionContext)
	ctx.SetStub(stub)
	ctx.SetClientIdentity(spinner)
	return stub, ctx, newContract(nil, nil, "test")
}

// inTx runs fn inside a mock transaction.
func inTx(stub *shimtest.MockStub, txID string, fn func()) {
	stub.MockTransactionStart(txID)
	defer stub.MockTransactionEnd(txID)
	fn()
}

func register(t *testing.T, stub *shimtest.MockStub, ctx *contractapi.TransactionContext, c *TraceabilityContract, id, batchID string) {
	t.Helper()
	inTx(stub, "tx-"+id, func() {
		_, err := c.CreateRegistration(ctx, id, "pu-1", batchID, "FIBER", "lot-"+batchID, "sup-1", "KG",
			100, 5, map[string]float64{"cotton": 60, "wool": 40})
		require.NoError(t, err)
	})
}

func nextEvent(t *testing.T, stub *shimtest.MockStub) (string, []byte) {
	t.Helper()
	select {
	case ev := <-stub.ChaincodeEventsChannel:
		return ev.EventName, ev.Payload
	default:
		t.Fatal("no chaincode event was set")
		return "", nil
	}
}

func TestCreateRegistration(t *testing.T) {
	stub, ctx, c := setupStub(t)

	inTx(stub, "tx-1", func() {
		msg, err := c.CreateRegistration(ctx, "rg-1", "pu-1", "b-1", "FIBER", "lot-1", "sup-1", "KG",
			100, 5, map[string]float64{"cotton": 60, "wool": 40})
		require.NoError(t, err)
		assert.Equal(t, "registration [rg-1] & batch [b-1] were successfully added to the ledger", msg)
	})

	name, payload := nextEvent(t, stub)
	assert.Equal(t, "RegistrationCreated", name)
	var rg domain.Registration
	require.NoError(t, json.Unmarshal(payload, &rg))
	assert.Equal(t, "tx-1", rg.TxID)
	assert.Equal(t, "Org1MSP:pu-1", rg.ProductionUnitID)
	assert.Equal(t, spinner.id, rg.Issuer)

	batch, err := c.ReadBatch(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, "Org1MSP:pu-1", batch.LatestOwner)
	assert.Equal(t, []string{"rg-1"}, batch.Traceability)

	inTx(stub, "tx-2", func() {
		_, err := c.CreateRegistration(ctx, "rg-1", "pu-1", "b-2", "FIBER", "lot-2", "sup-1", "KG",
			100, 5, map[string]float64{"cotton": 100})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "registration [rg-1] already exists")
	})
	assert.Nil(t, stub.State["b-2"])
}

func TestNotEnrolledSubmitterIsRejected(t *testing.T) {
	stub, ctx, c := setupStub(t)
	ctx.SetClientIdentity(&fakeIdentity{id: "x509::CN=guest", msp: "Org1MSP"})

	inTx(stub, "tx-1", func() {
		_, err := c.CreateRegistration(ctx, "rg-1", "pu-1", "b-1", "FIBER", "lot-1", "sup-1", "KG",
			100, 5, map[string]float64{"cotton": 100})
		require.Error(t, err)
		assert.Equal(t, domain.NotEnrolledMessage, err.Error())
	})
	assert.Empty(t, stub.State)
	assert.Len(t, stub.ChaincodeEventsChannel, 0)
}

func TestSupplyChainOverStub(t *testing.T) {
	stub, ctx, c := setupStub(t)
	register(t, stub, ctx, c, "rg-1", "b-1")
	nextEvent(t, stub)

	inTx(stub, "tx-p-1", func() {
		msg, err := c.CreateProduction(ctx, "p-1", "pu-1", "SPINNING", "2024-04-30T08:00:00Z",
			"b-2", "YARN", "yarn-1", "sup-1", "KG",
			map[string]float64{"b-1": 100}, map[string]float64{"cotton": 60, "wool": 40},
			95, 4, 3, 2)
		require.NoError(t, err)
		assert.Equal(t, "production activity [p-1] & batch [b-2] were successfully added to the ledger", msg)
	})
	name, _ := nextEvent(t, stub)
	assert.Equal(t, "ProductionCreated", name)
	assert.Nil(t, stub.State["b-1"], "depleted input should be removed")

	inTx(stub, "tx-t-1", func() {
		_, err := c.CreateTransport(ctx, "t-1", "pu-1", "Org2MSP:pu-7", "ROAD", "2024-04-30T09:00:00Z",
			map[string]float64{"b-2": 95}, false)
		require.NoError(t, err)
	})
	name, _ = nextEvent(t, stub)
	assert.Equal(t, "TransportCreated", name)

	batch, err := c.ReadBatch(ctx, "b-2")
	require.NoError(t, err)
	assert.True(t, batch.IsInTransit)
	assert.Equal(t, "Org2MSP:pu-7", batch.Destination)

	ctx.SetClientIdentity(weaver)
	inTx(stub, "tx-rc-1", func() {
		msg, err := c.CreateReception(ctx, "rc-1", "pu-7", "2024-05-01T10:00:00Z", "b-2", "b-3", "in-3",
			true, 1, 1, 120, 300)
		require.NoError(t, err)
		assert.Contains(t, msg, "batch [b-2] was deleted successfully")
	})
	name, _ = nextEvent(t, stub)
	assert.Equal(t, "ReceptionCreated", name)

	batches, err := c.GetAvailableBatches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "b-3", batches[0].ID)
	assert.Equal(t, "Org2MSP:pu-7", batches[0].LatestOwner)
	assert.Equal(t, []string{"rg-1", "p-1", "t-1", "rc-1"}, batches[0].Traceability)

	traced, err := c.TraceBatchByInternalID(ctx, "in-3")
	require.NoError(t, err)
	require.Len(t, traced, 1)

	exists, err := c.BatchExists(ctx, "b-2")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = c.ActivityExists(ctx, "t-1")
	require.NoError(t, err)
	assert.True(t, exists)

	raw, err := c.ReadTransport(ctx, "t-1")
	require.NoError(t, err)
	var tr domain.Transport
	require.NoError(t, json.Unmarshal([]byte(raw), &tr))
	assert.Equal(t, "tx-t-1", tr.TxID)
	assert.Equal(t, "b-2", tr.InputBatchID)

	raw, err = c.ReadReception(ctx, "rc-1")
	require.NoError(t, err)
	assert.Contains(t, raw, `"newBatchID":"b-3"`)

	raw, err = c.GetAllProductions(ctx)
	require.NoError(t, err)
	var productions []domain.Production
	require.NoError(t, json.Unmarshal([]byte(raw), &productions))
	require.Len(t, productions, 1)
	assert.Equal(t, map[string]float64{"b-1": 100}, productions[0].InputBatches)

	for _, list := range []func(contractapi.TransactionContextInterface) (string, error){
		c.GetAllRegistrations, c.GetAllReceptions, c.GetAllTransports,
	} {
		raw, err = list(ctx)
		require.NoError(t, err)
		var records []json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(raw), &records))
		assert.Len(t, records, 1)
	}

	_, err = c.ReadProduction(ctx, "rg-1")
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindInvalidID, domain.KindOf(err))

	_, err = c.ReadRegistration(ctx, "rg-9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registration [rg-9] does not exist")
}

func TestRejectedActivityLeavesStateUntouched(t *testing.T) {
	stub, ctx, c := setupStub(t)
	register(t, stub, ctx, c, "rg-1", "b-1")
	nextEvent(t, stub)
	before, ok := stub.State["b-1"]
	require.True(t, ok)

	inTx(stub, "tx-p-1", func() {
		_, err := c.CreateProduction(ctx, "p-1", "pu-1", "SPINNING", "2024-04-30T08:00:00Z",
			"b-2", "YARN", "yarn-1", "sup-1", "KG",
			map[string]float64{"b-1": 150}, map[string]float64{"cotton": 100},
			95, 4, 3, 2)
		require.Error(t, err)
		assert.Equal(t, domain.ErrKindQuantityExceedsAvailable, domain.KindOf(err))
	})
	assert.Equal(t, before, stub.State["b-1"])
	assert.Nil(t, stub.State["p-1"])
	assert.Nil(t, stub.State["b-2"])
	assert.Len(t, stub.ChaincodeEventsChannel, 0)
}

func TestNewChaincode(t *testing.T) {
	cfg := &config.Config{Chaincode: config.ChaincodeConfig{Version: "2.1.0"}}
	cc, err := newChaincode(cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", cc.Info.Version)
	assert.Equal(t, chaincodeTitle, cc.Info.Title)
	assert.Equal(t, gateway.DefaultContract, cc.DefaultContract)
}
