/*
SPDX-License-Identifier: Apache-2.0
*/

package domain

import (
	"strings"
	"time"
)

// ActivityKind identifies one of the four traceability activities.
type ActivityKind string

const (
	KindRegistration ActivityKind = "rg"
	KindProduction   ActivityKind = "p"
	KindReception    ActivityKind = "rc"
	KindTransport    ActivityKind = "t"
)

// Prefix is the id prefix of the activity kind, e.g. "rg-".
func (k ActivityKind) Prefix() string { return string(k) + "-" }

// Name is the human readable activity name used in messages and events.
func (k ActivityKind) Name() string {
	switch k {
	case KindRegistration:
		return "registration"
	case KindProduction:
		return "production"
	case KindReception:
		return "reception"
	case KindTransport:
		return "transport"
	}
	return string(k)
}

// EventName is the chaincode event emitted when an activity is committed.
func (k ActivityKind) EventName() string {
	name := k.Name()
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:] + "Created"
}

// ParseActivityID resolves the activity kind from an id prefix.
func ParseActivityID(id string) (ActivityKind, bool) {
	for _, k := range []ActivityKind{KindRegistration, KindReception, KindProduction, KindTransport} {
		if strings.HasPrefix(id, k.Prefix()) {
			return k, true
		}
	}
	return "", false
}

// Registration records the creation of a raw batch.
type Registration struct {
	DocType                  string    `json:"docType"`
	ID                       string    `json:"ID"`
	ProductionUnitID         string    `json:"productionUnitID"`
	ProductionUnitInternalID string    `json:"productionUnitInternalID"`
	Issuer                   string    `json:"issuer"`
	IssuerMSPID              string    `json:"issuerMSPID"`
	TxID                     string    `json:"txID"`
	Timestamp                time.Time `json:"timestamp"`
	NewBatchID               string    `json:"newBatchID"`
	FinalScore               float64   `json:"finalScore"`
}

// Production records the transformation of input batches into one output batch.
type Production struct {
	DocType                  string             `json:"docType"`
	ID                       string             `json:"ID"`
	ProductionUnitID         string             `json:"productionUnitID"`
	ProductionUnitInternalID string             `json:"productionUnitInternalID"`
	Issuer                   string             `json:"issuer"`
	IssuerMSPID              string             `json:"issuerMSPID"`
	TxID                     string             `json:"txID"`
	Timestamp                time.Time          `json:"timestamp"`
	ProductionType           ProductionType     `json:"productionType"`
	ActivityStartDate        time.Time          `json:"activityStartDate"`
	ActivityEndDate          time.Time          `json:"activityEndDate"`
	InputBatches             map[string]float64 `json:"inputBatches"` // consumed quantity per input batch
	OutputBatchID            string             `json:"outputBatchID"`
	ProductionScore          float64            `json:"productionScore"`
	SES                      float64            `json:"ses"` // social-economic score
	FinalScore               float64            `json:"finalScore"`
}

// Reception records the arrival of an in-transit batch at its destination.
type Reception struct {
	DocType                  string    `json:"docType"`
	ID                       string    `json:"ID"`
	ProductionUnitID         string    `json:"productionUnitID"`
	ProductionUnitInternalID string    `json:"productionUnitInternalID"`
	Issuer                   string    `json:"issuer"`
	IssuerMSPID              string    `json:"issuerMSPID"`
	TxID                     string    `json:"txID"`
	Timestamp                time.Time `json:"timestamp"`
	ActivityDate             time.Time `json:"activityDate"`
	ReceivedBatchID          string    `json:"receivedBatchID"`
	ReceivedQuantity         float64   `json:"receivedQuantity"`
	NewBatchID               string    `json:"newBatchID,omitempty"`
	IsAccepted               bool      `json:"isAccepted"`
	TransportScore           float64   `json:"transportScore"`
	SES                      float64   `json:"ses"`
	Distance                 float64   `json:"distance"` // km
	Cost                     float64   `json:"cost"`
}

// Transport records the shipment of one batch between production units.
type Transport struct {
	DocType                     string        `json:"docType"`
	ID                          string        `json:"ID"`
	ProductionUnitID            string        `json:"productionUnitID"` // origin
	ProductionUnitInternalID    string        `json:"productionUnitInternalID"`
	Issuer                      string        `json:"issuer"`
	IssuerMSPID                 string        `json:"issuerMSPID"`
	TxID                        string        `json:"txID"`
	Timestamp                   time.Time     `json:"timestamp"`
	DestinationProductionUnitID string        `json:"destinationProductionUnitID"`
	TransportType               TransportType `json:"transportType"`
	ActivityStartDate           time.Time     `json:"activityStartDate"`
	ActivityEndDate             time.Time     `json:"activityEndDate"`
	InputBatchID                string        `json:"inputBatchID"`
	Quantity                    float64       `json:"quantity"`
	TransitBatchID              string        `json:"transitBatchID"`
	IsReturn                    bool          `json:"isReturn"`
}
