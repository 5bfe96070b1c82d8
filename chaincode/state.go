/*
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/textrace/traceability-chaincode/internal/engine"
	"github.com/textrace/traceability-chaincode/internal/identity"
)

// stubState exposes the chaincode stub as a ledger.State and ledger.Ranger.
type stubState struct {
	stub shim.ChaincodeStubInterface
}

func (s stubState) Get(key string) ([]byte, error) { return s.stub.GetState(key) }

func (s stubState) Put(key string, value []byte) error { return s.stub.PutState(key, value) }

func (s stubState) Delete(key string) error { return s.stub.DelState(key) }

func (s stubState) Range(start, end string, fn func(key string, value []byte) error) error {
	it, err := s.stub.GetStateByRange(start, end)
	if err != nil {
		return err
	}
	defer it.Close()
	for it.HasNext() {
		kv, err := it.Next()
		if err != nil {
			return err
		}
		if err := fn(kv.Key, kv.Value); err != nil {
			return err
		}
	}
	return nil
}

// txInfo reads the transaction id and timestamp from the stub.
func txInfo(stub shim.ChaincodeStubInterface) (engine.TxInfo, error) {
	ts, err := stub.GetTxTimestamp()
	if err != nil {
		return engine.TxInfo{}, err
	}
	return engine.TxInfo{
		ID:        stub.GetTxID(),
		Timestamp: time.Unix(ts.Seconds, int64(ts.Nanos)).UTC(),
	}, nil
}

func submitter(ctx contractapi.TransactionContextInterface) identity.Identity {
	return identity.FromClientIdentity(ctx.GetClientIdentity())
}
