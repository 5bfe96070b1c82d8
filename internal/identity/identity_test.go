/*
SPDX-License-Identifier: Apache-2.0
*/

package identity

import (
	"crypto/x509"
	"encoding/base64"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textrace/traceability-chaincode/internal/domain"
)

type fakeClientIdentity struct {
	id      string
	msp     string
	attrs   map[string]string
	idErr   error
	mspErr  error
	attrErr error
}

func (f *fakeClientIdentity) GetID() (string, error) { return f.id, f.idErr }
func (f *fakeClientIdentity) GetMSPID() (string, error) {
	return f.msp, f.mspErr
}
func (f *fakeClientIdentity) GetAttributeValue(name string) (string, bool, error) {
	if f.attrErr != nil {
		return "", false, f.attrErr
	}
	v, ok := f.attrs[name]
	return v, ok, nil
}
func (f *fakeClientIdentity) AssertAttributeValue(name, value string) error {
	if f.attrs[name] != value {
		return errors.Newf("attribute %s is not %s", name, value)
	}
	return nil
}
func (f *fakeClientIdentity) GetX509Certificate() (*x509.Certificate, error) { return nil, nil }

func TestFabricIdentity(t *testing.T) {
	ci := &fakeClientIdentity{
		id:    base64.StdEncoding.EncodeToString([]byte("x509::CN=user1::CN=ca.org1")),
		msp:   "Org1MSP",
		attrs: map[string]string{EnrollmentAttribute: "user1"},
	}
	who := FromClientIdentity(ci)

	client, msp, err := Resolve(who)
	require.NoError(t, err)
	assert.Equal(t, "x509::CN=user1::CN=ca.org1", client)
	assert.Equal(t, "Org1MSP", msp)
}

func TestResolveRejectsUnenrolledFirst(t *testing.T) {
	ci := &fakeClientIdentity{idErr: errors.New("no cert"), msp: "Org1MSP"}
	_, _, err := Resolve(FromClientIdentity(ci))
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindUnauthorized, domain.KindOf(err))
	assert.Equal(t, domain.NotEnrolledMessage, err.Error())

	_, _, err = Resolve(nil)
	assert.Equal(t, domain.ErrKindUnauthorized, domain.KindOf(err))
}

func TestResolveIdentityFailures(t *testing.T) {
	attrs := map[string]string{EnrollmentAttribute: "user1"}

	_, _, err := Resolve(FromClientIdentity(&fakeClientIdentity{attrs: attrs, id: "%%%"}))
	assert.Equal(t, domain.ErrKindIdentityResolution, domain.KindOf(err))
	assert.Contains(t, err.Error(), "could not get issuer's client ID")

	ci := &fakeClientIdentity{attrs: attrs, id: base64.StdEncoding.EncodeToString([]byte("u")), mspErr: errors.New("boom")}
	_, _, err = Resolve(FromClientIdentity(ci))
	assert.Equal(t, domain.ErrKindIdentityResolution, domain.KindOf(err))
	assert.Contains(t, err.Error(), "could not get MSP ID")
}

func TestStatic(t *testing.T) {
	client, msp, err := Resolve(Static{Client: "admin", MSP: "Org2MSP", Enrolled: true})
	require.NoError(t, err)
	assert.Equal(t, "admin", client)
	assert.Equal(t, "Org2MSP", msp)

	_, _, err = Resolve(Static{Client: "admin", MSP: "Org2MSP"})
	assert.Equal(t, domain.ErrKindUnauthorized, domain.KindOf(err))
}
