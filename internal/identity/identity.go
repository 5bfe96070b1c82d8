/*
SPDX-License-Identifier: Apache-2.0
*/

// Package identity exposes the facts about the submitting client that the
// traceability engine depends on.
package identity

import (
	"encoding/base64"

	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"

	"github.com/textrace/traceability-chaincode/internal/domain"
)

// EnrollmentAttribute is set by the Fabric CA on every enrolled certificate.
const EnrollmentAttribute = "hf.EnrollmentID"

// Identity describes the submitter of a transaction.
type Identity interface {
	// ClientID is the decoded x509 subject/issuer string of the submitter.
	ClientID() (string, error)
	MSPID() (string, error)
	IsEnrolled() bool
}

// Static is a fixed identity for local submissions and tests.
type Static struct {
	Client   string
	MSP      string
	Enrolled bool
}

func (s Static) ClientID() (string, error) { return s.Client, nil }
func (s Static) MSPID() (string, error)    { return s.MSP, nil }
func (s Static) IsEnrolled() bool          { return s.Enrolled }

// Fabric reads the submitter from the chaincode client identity.
type Fabric struct {
	ci cid.ClientIdentity
}

// FromClientIdentity wraps a chaincode client identity.
func FromClientIdentity(ci cid.ClientIdentity) *Fabric {
	return &Fabric{ci: ci}
}

// ClientID returns the base64 decoded client id.
func (f *Fabric) ClientID() (string, error) {
	b64ID, err := f.ci.GetID()
	if err != nil {
		return "", domain.WrapError(domain.ErrKindIdentityResolution, err, "could not get issuer's client ID")
	}
	decoded, err := base64.StdEncoding.DecodeString(b64ID)
	if err != nil {
		return "", domain.WrapError(domain.ErrKindIdentityResolution, err, "could not get issuer's client ID")
	}
	return string(decoded), nil
}

// MSPID returns the submitter's MSP id.
func (f *Fabric) MSPID() (string, error) {
	msp, err := f.ci.GetMSPID()
	if err != nil {
		return "", domain.WrapError(domain.ErrKindIdentityResolution, err, "could not get MSP ID")
	}
	return msp, nil
}

// IsEnrolled reports whether the certificate carries a CA enrollment id.
func (f *Fabric) IsEnrolled() bool {
	v, found, err := f.ci.GetAttributeValue(EnrollmentAttribute)
	return err == nil && found && v != ""
}

// Resolve returns the submitter's client and MSP ids, rejecting callers that
// are not enrolled before touching anything else.
func Resolve(who Identity) (clientID, mspID string, err error) {
	if who == nil || !who.IsEnrolled() {
		return "", "", domain.ErrNotEnrolled()
	}
	if clientID, err = who.ClientID(); err != nil {
		return "", "", err
	}
	if mspID, err = who.MSPID(); err != nil {
		return "", "", err
	}
	if mspID == "" {
		return "", "", domain.NewError(domain.ErrKindIdentityResolution, "could not get MSP ID: empty MSP ID")
	}
	return clientID, mspID, nil
}
