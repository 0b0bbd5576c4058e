// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package position implements the automated liquidity-position management
// precompile. It administers concentrated-liquidity positions held by the
// contract on behalf of their owners, driven either by direct owner calls or
// by verified command reports relayed from the off-chain computation network.
// The heavy lifting of moving tokens and liquidity is delegated to an
// external position router executing atomic action sequences.
package position

import (
	"encoding/binary"
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/zeebo/blake3"
)

// Precompile addresses (LP-aligned format: 0x0000...0000LPNUM)
const (
	// AutoLPAddress is the position automation precompile (LP-9090).
	AutoLPAddress = "0x0000000000000000000000000000000000009090"
	// DefaultRouterAddress is the position router the action sequences are
	// executed against unless overridden by config (LP-9012).
	DefaultRouterAddress = "0x0000000000000000000000000000000000009012"
)

// ContractAddress is the resolved precompile address.
var ContractAddress = common.HexToAddress(AutoLPAddress)

// Gas costs per operation
const (
	GasMint             uint64 = 25_000 // Mint a new position
	GasIncreaseLiq      uint64 = 20_000 // Increase liquidity
	GasDecreaseLiq      uint64 = 20_000 // Decrease liquidity
	GasBurn             uint64 = 20_000 // Burn a position
	GasRequestRebalance uint64 = 5_000  // Emit a rebalance request
	GasReport           uint64 = 30_000 // Execute a verified report
	GasQuery            uint64 = 100    // Ledger lookup
)

// DefaultDeadlineWindow is the number of seconds past the current block
// timestamp the router is given to land an action sequence.
const DefaultDeadlineWindow uint64 = 600

// uint24 type alias for fees
type uint24 = uint32

// int24 type alias for ticks
type int24 = int32

// Tick bounds of the router's price space.
var (
	MinTick int24 = -887272
	MaxTick int24 = 887272
)

// Currency represents a token (native or ERC20).
// Address(0) represents the native currency.
type Currency struct {
	Address common.Address
}

// IsNative returns true if this currency is the native coin.
func (c Currency) IsNative() bool {
	return c.Address == common.Address{}
}

// ToBytes serializes currency for storage
func (c Currency) ToBytes() []byte {
	return c.Address.Bytes()
}

// CurrencyFromBytes deserializes currency from storage
func CurrencyFromBytes(data []byte) Currency {
	return Currency{Address: common.BytesToAddress(data)}
}

// PoolKey identifies the pool a position lives in.
// Sorted by currency address (currency0 < currency1).
type PoolKey struct {
	Currency0   Currency       // Lower address token
	Currency1   Currency       // Higher address token
	Fee         uint24         // Fee in hundredths of a bip
	TickSpacing int24          // Tick spacing for concentrated liquidity
	Hooks       common.Address // Hook contract address (zero = no hooks)
}

// ID computes the unique pool identifier
func (pk PoolKey) ID() [32]byte {
	h := blake3.New()
	h.Write(pk.Currency0.ToBytes())
	h.Write(pk.Currency1.ToBytes())

	var feeBytes [4]byte
	binary.BigEndian.PutUint32(feeBytes[:], uint32(pk.Fee))
	h.Write(feeBytes[1:]) // uint24

	var tickBytes [4]byte
	binary.BigEndian.PutUint32(tickBytes[:], uint32(pk.TickSpacing))
	h.Write(tickBytes[1:]) // int24

	h.Write(pk.Hooks.Bytes())

	var id [32]byte
	h.Digest().Read(id[:])
	return id
}

// ToBytes serializes pool key for storage (66 bytes)
func (pk PoolKey) ToBytes() []byte {
	data := make([]byte, 66)
	copy(data[0:20], pk.Currency0.ToBytes())
	copy(data[20:40], pk.Currency1.ToBytes())
	data[40] = byte(pk.Fee >> 16)
	data[41] = byte(pk.Fee >> 8)
	data[42] = byte(pk.Fee)
	data[43] = byte(uint32(pk.TickSpacing) >> 16)
	data[44] = byte(uint32(pk.TickSpacing) >> 8)
	data[45] = byte(uint32(pk.TickSpacing))
	copy(data[46:66], pk.Hooks.Bytes())
	return data
}

// PoolKeyFromBytes deserializes pool key from storage
func PoolKeyFromBytes(data []byte) (PoolKey, error) {
	if len(data) < 66 {
		return PoolKey{}, errors.New("invalid pool key data length")
	}
	pk := PoolKey{}
	pk.Currency0 = CurrencyFromBytes(data[0:20])
	pk.Currency1 = CurrencyFromBytes(data[20:40])
	pk.Fee = uint24(data[40])<<16 | uint24(data[41])<<8 | uint24(data[42])
	raw := uint32(data[43])<<16 | uint32(data[44])<<8 | uint32(data[45])
	pk.TickSpacing = int32(raw<<8) >> 8 // sign-extend 24 bits
	pk.Hooks = common.BytesToAddress(data[46:66])
	return pk, nil
}

// =========================================================================
// Commands
// =========================================================================

// Report payload discriminants (first byte of a verified report).
const (
	ReportRebalance       byte = 0x01
	ReportAdjustLiquidity byte = 0x02
	ReportMintNew         byte = 0x03
)

// Command is the closed set of actions a verified report can request.
// Decoding produces exactly one variant before any business logic runs.
type Command interface {
	isCommand()
}

// RebalanceCommand moves a managed position to a new tick range.
type RebalanceCommand struct {
	TokenID      *uint256.Int
	NewTickLower int24
	NewTickUpper int24
}

// AdjustLiquidityCommand grows or shrinks a managed position in place.
type AdjustLiquidityCommand struct {
	TokenID        *uint256.Int
	Increase       bool
	LiquidityDelta *uint256.Int
}

// MintNewCommand creates a fresh contract-owned position.
type MintNewCommand struct {
	Pool      PoolKey
	TickLower int24
	TickUpper int24
	Liquidity *uint256.Int
}

func (RebalanceCommand) isCommand()       {}
func (AdjustLiquidityCommand) isCommand() {}
func (MintNewCommand) isCommand()         {}

// =========================================================================
// Caller identity
// =========================================================================

type callerKind uint8

const (
	callerHuman callerKind = iota
	callerWorkflow
)

// Caller identifies who is asking for a mutation: an external account, or
// the contract's own workflow acting on contract-held positions. The
// explicit variant avoids comparing against the execution context address.
type Caller struct {
	kind callerKind
	addr common.Address
}

// HumanCaller identifies an external account.
func HumanCaller(addr common.Address) Caller {
	return Caller{kind: callerHuman, addr: addr}
}

// WorkflowCaller identifies the contract's internal workflow.
func WorkflowCaller() Caller {
	return Caller{kind: callerWorkflow}
}

// IsWorkflow returns true for the internal workflow identity.
func (c Caller) IsWorkflow() bool {
	return c.kind == callerWorkflow
}

// Address returns the external account, zero for the workflow identity.
func (c Caller) Address() common.Address {
	return c.addr
}

// =========================================================================
// Errors
// =========================================================================

var (
	ErrInvalidReportPrefix   = errors.New("invalid report prefix")
	ErrInvalidLiquidity      = errors.New("invalid liquidity")
	ErrInvalidTickRange      = errors.New("invalid tick range")
	ErrInvalidOwner          = errors.New("invalid owner address")
	ErrDuplicateRegistration = errors.New("position already registered")
	ErrPositionNotOwned      = errors.New("position not owned by contract")
	ErrNotPositionOwner      = errors.New("caller is not the position owner")
	ErrRouterNotConfigured   = errors.New("position router not configured")
	ErrNoTokenID             = errors.New("router returned no token id")
)

// StateDB is the EVM state surface the position precompile needs. It is a
// strict subset of contract.StateDB, so the embedding state implementation
// satisfies it directly.
type StateDB interface {
	GetState(addr common.Address, key common.Hash) common.Hash
	SetState(addr common.Address, key common.Hash, value common.Hash) common.Hash
	AddLog(log *ethtypes.Log)
	Snapshot() int
	RevertToSnapshot(int)
}

// makeStorageKey creates a storage key from prefix and identifier
func makeStorageKey(prefix []byte, id []byte) common.Hash {
	h := blake3.New()
	h.Write(prefix)
	h.Write(id)
	var key common.Hash
	h.Digest().Read(key[:])
	return key
}
