// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package precompileconfig defines the configuration surface shared by all
// stateful precompiles: a JSON-serializable Config keyed by precompile, and
// the Upgrade activation/deactivation envelope embedded in each one.
package precompileconfig

import "math/big"

// Config is implemented by the configuration struct of each stateful
// precompile. Configs are parsed from the chain config JSON under the
// precompile's ConfigKey.
type Config interface {
	// Key returns the unique config key of this precompile.
	Key() string
	// Timestamp returns the activation timestamp, nil if never activated.
	Timestamp() *uint64
	// IsDisabled returns true if this upgrade deactivates the precompile.
	IsDisabled() bool
	// Equal reports deep equality with another config.
	Equal(Config) bool
	// Verify checks the config is self-consistent against the chain config.
	Verify(ChainConfig) error
}

// ChainConfig exposes the chain-level parameters a precompile config may
// need to validate itself against.
type ChainConfig interface {
	ChainID() *big.Int
}

// Upgrade carries the activation state shared by every precompile config.
type Upgrade struct {
	BlockTimestamp *uint64 `json:"blockTimestamp,omitempty"`
	Disable        bool    `json:"disable,omitempty"`
}

// Timestamp returns the activation timestamp, nil if unset.
func (u *Upgrade) Timestamp() *uint64 {
	return u.BlockTimestamp
}

// Equal reports whether two upgrades describe the same activation.
func (u *Upgrade) Equal(other *Upgrade) bool {
	if other == nil {
		return false
	}
	if u.Disable != other.Disable {
		return false
	}
	if (u.BlockTimestamp == nil) != (other.BlockTimestamp == nil) {
		return false
	}
	if u.BlockTimestamp != nil && *u.BlockTimestamp != *other.BlockTimestamp {
		return false
	}
	return true
}
