/*
SPDX-License-Identifier: Apache-2.0
*/

// Package gateway decodes gateway-style chaincode requests, a method string
// "<contract>:<function>" with positional string arguments, into typed engine
// requests and runs them against a local world state.
package gateway

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/textrace/traceability-chaincode/internal/domain"
)

// Rejection texts. Gateway clients match on these.
const (
	MsgMissingChannel   = "Missing channel name in path"
	MsgMissingChaincode = "Missing chaincode name in path"
	MsgMissingMethod    = "Missing chaincode method in request body"
	MsgBlankFunction    = "Blank function name passed"
	MsgInvalidArgs      = "Invalid chaincode args. It must be an array of strings"
	MsgInvalidTransient = "Invalid transient parameter. It must be an object with string keys and string values"
)

// Call is a decoded chaincode request.
type Call struct {
	Channel   string
	Chaincode string
	// Contract is empty when the method names no contract; the default one is used.
	Contract  string
	Function  string
	Args      []string
	Transient map[string]string
}

type envelope struct {
	Method    string          `json:"method"`
	Args      json.RawMessage `json:"args"`
	Transient json.RawMessage `json:"transient"`
}

// Decode validates the path parameters and the request body.
func Decode(channel, chaincode string, body []byte) (*Call, error) {
	if strings.TrimSpace(channel) == "" {
		return nil, domain.NewError(domain.ErrKindMalformedRequest, MsgMissingChannel)
	}
	if strings.TrimSpace(chaincode) == "" {
		return nil, domain.NewError(domain.ErrKindMalformedRequest, MsgMissingChaincode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, domain.WrapError(domain.ErrKindMalformedRequest, err, "Invalid request body")
	}
	if strings.TrimSpace(env.Method) == "" {
		return nil, domain.NewError(domain.ErrKindMalformedRequest, MsgMissingMethod)
	}
	contract, function := splitMethod(env.Method)
	if function == "" {
		return nil, domain.NewError(domain.ErrKindMalformedRequest, MsgBlankFunction)
	}

	call := &Call{
		Channel:   channel,
		Chaincode: chaincode,
		Contract:  contract,
		Function:  function,
		Args:      []string{},
		Transient: map[string]string{},
	}
	if present(env.Args) {
		if err := json.Unmarshal(env.Args, &call.Args); err != nil {
			return nil, domain.NewError(domain.ErrKindMalformedRequest, MsgInvalidArgs)
		}
	}
	if present(env.Transient) {
		if err := json.Unmarshal(env.Transient, &call.Transient); err != nil || call.Transient == nil {
			return nil, domain.NewError(domain.ErrKindMalformedRequest, MsgInvalidTransient)
		}
	}
	return call, nil
}

// splitMethod splits "<contract>:<function>". A method without a colon names
// a function of the default contract.
func splitMethod(method string) (contract, function string) {
	method = strings.TrimSpace(method)
	if i := strings.LastIndex(method, ":"); i >= 0 {
		return strings.TrimSpace(method[:i]), strings.TrimSpace(method[i+1:])
	}
	return "", method
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
