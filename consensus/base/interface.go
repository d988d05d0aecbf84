package base

import (
	netBase "github.com/gurrpi/codechain/network/base"
)

// Header is the sealed part of a block the engine verifies
type Header struct {
	Number int64
	Hash   string
	Seal   [][]byte
}

// Seal is the engine's answer to a seal request: either nothing, or the
// seal fields to close the block with.
type Seal struct {
	Regular bool
	Fields  [][]byte
}

// SealNone the engine declines to seal
var SealNone = Seal{}

// NewRegularSeal seal the block with the given fields
func NewRegularSeal(fields [][]byte) Seal {
	return Seal{Regular: true, Fields: fields}
}

// Sealable is the view of a live block an engine needs to decide sealing
type Sealable interface {
	TxCount() int
}

// ConsensusEngine drives block sealing and verification. An engine may
// also ship its own network extension for engine-to-engine messaging.
type ConsensusEngine interface {
	Name() string
	// SealsInternally reports whether the engine seals without external
	// input (true for development engines, false for PoW style engines).
	SealsInternally() bool
	GenerateSeal(block Sealable, parent *Header) Seal
	VerifyLocalSeal(header *Header) error
	// NetworkExtension returns nil when the engine needs no networking
	NetworkExtension() netBase.Extension
}
