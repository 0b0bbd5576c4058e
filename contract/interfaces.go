// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package contract defines the interfaces between the embedding EVM and
// stateful precompiled contracts: the state access surface, the execution
// entry point, and the configuration hooks invoked at network upgrades.
package contract

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	ethtypes "github.com/luxfi/geth/core/types"

	"github.com/luxfi/autolp/precompileconfig"
)

// StateDB is the subset of EVM state a stateful precompile may touch.
type StateDB interface {
	GetState(addr common.Address, key common.Hash) common.Hash
	SetState(addr common.Address, key common.Hash, value common.Hash) common.Hash

	GetBalance(addr common.Address) *uint256.Int
	AddBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) uint256.Int
	SubBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) uint256.Int

	GetNonce(addr common.Address) uint64
	SetNonce(addr common.Address, nonce uint64, reason tracing.NonceChangeReason)

	CreateAccount(addr common.Address)
	Exist(addr common.Address) bool

	AddLog(log *ethtypes.Log)
	Logs() []*ethtypes.Log

	TxHash() common.Hash
	Snapshot() int
	RevertToSnapshot(int)
}

// ConfigurationBlockContext exposes the block against which a precompile is
// being configured.
type ConfigurationBlockContext interface {
	Number() *big.Int
	Timestamp() uint64
}

// BlockContext exposes the block during precompile execution.
type BlockContext interface {
	ConfigurationBlockContext
}

// AccessibleState is the execution environment handed to a precompile's Run.
type AccessibleState interface {
	GetStateDB() StateDB
	GetBlockContext() BlockContext
}

// StatefulPrecompiledContract is the execution interface of a precompile.
type StatefulPrecompiledContract interface {
	// Run executes the precompiled contract.
	Run(
		accessibleState AccessibleState,
		caller common.Address,
		addr common.Address,
		input []byte,
		suppliedGas uint64,
		readOnly bool,
	) (ret []byte, remainingGas uint64, err error)

	// RequiredGas returns the gas required to execute the precompile with
	// the given input.
	RequiredGas(input []byte) uint64
}

// Configurator is implemented by each precompile module to parse its config
// and apply it to state at the activation boundary.
type Configurator interface {
	MakeConfig() precompileconfig.Config
	Configure(
		chainConfig precompileconfig.ChainConfig,
		precompileConfig precompileconfig.Config,
		state StateDB,
		blockContext ConfigurationBlockContext,
	) error
}
