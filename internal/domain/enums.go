/*
SPDX-License-Identifier: Apache-2.0
*/

package domain

// BatchType is the kind of material held by a batch.
type BatchType string

const (
	Fiber          BatchType = "FIBER"
	Yarn           BatchType = "YARN"
	Mesh           BatchType = "MESH"
	Fabric         BatchType = "FABRIC"
	DyedMesh       BatchType = "DYED_MESH"
	FinishedMesh   BatchType = "FINISHED_MESH"
	DyedFabric     BatchType = "DYED_FABRIC"
	FinishedFabric BatchType = "FINISHED_FABRIC"
	Cut            BatchType = "CUT"
	FinishedPiece  BatchType = "FINISHED_PIECE"
	Other          BatchType = "OTHER"
)

var batchTypes = map[BatchType]struct{}{
	Fiber: {}, Yarn: {}, Mesh: {}, Fabric: {}, DyedMesh: {}, FinishedMesh: {},
	DyedFabric: {}, FinishedFabric: {}, Cut: {}, FinishedPiece: {}, Other: {},
}

// Valid reports whether t is one of the known batch types.
func (t BatchType) Valid() bool {
	_, ok := batchTypes[t]
	return ok
}

// Unit is the measurement unit of a batch quantity.
type Unit string

const (
	Kilograms     Unit = "KG"
	Liters        Unit = "L"
	Meters        Unit = "M"
	SquaredMeters Unit = "M2"
)

func (u Unit) Valid() bool {
	switch u {
	case Kilograms, Liters, Meters, SquaredMeters:
		return true
	}
	return false
}

// ProductionType is the transformation performed by a production activity.
type ProductionType string

const (
	Spinning        ProductionType = "SPINNING"
	Weaving         ProductionType = "WEAVING"
	Knitting        ProductionType = "KNITTING"
	DyeingFinishing ProductionType = "DYEING_FINISHING"
	Confection      ProductionType = "CONFECTION"
)

func (p ProductionType) Valid() bool {
	switch p {
	case Spinning, Weaving, Knitting, DyeingFinishing, Confection:
		return true
	}
	return false
}

// TransportType is the carrier mode of a transport activity.
type TransportType string

const (
	Road       TransportType = "ROAD"
	Maritime   TransportType = "MARITIME"
	Air        TransportType = "AIR"
	Rail       TransportType = "RAIL"
	Intermodal TransportType = "INTERMODAL"
)

func (t TransportType) Valid() bool {
	switch t {
	case Road, Maritime, Air, Rail, Intermodal:
		return true
	}
	return false
}
