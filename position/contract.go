// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package position

import (
	"encoding/binary"
	"fmt"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/autolp/contract"
)

var _ contract.StatefulPrecompiledContract = (*Contract)(nil)

// Method selectors
const (
	SelectorMint                 uint32 = 0x01000000 // mint(PoolKey,int24,int24,uint256,uint256,uint256)
	SelectorIncreaseLiquidity    uint32 = 0x02000000 // increaseLiquidity(uint256,uint256,uint256,uint256)
	SelectorDecreaseLiquidity    uint32 = 0x03000000 // decreaseLiquidity(uint256,uint256,uint256,uint256)
	SelectorBurn                 uint32 = 0x04000000 // burn(uint256,uint256,uint256)
	SelectorRequestRebalance     uint32 = 0x05000000 // requestRebalance(uint256,int24)
	SelectorOnReport             uint32 = 0x06000000 // onReport(bytes)
	SelectorGetUserPositions     uint32 = 0x07000000 // getUserPositions(address)
	SelectorGetUserPositionCount uint32 = 0x08000000 // getUserPositionCount(address)
	SelectorHasPosition          uint32 = 0x09000000 // hasPosition(address,uint256)
	SelectorGetPositionOwner     uint32 = 0x0A000000 // getPositionOwner(uint256)
)

// Contract is the position automation precompile.
type Contract struct {
	manager *Manager
}

// NewContract creates the precompile around [manager].
func NewContract(manager *Manager) *Contract {
	return &Contract{manager: manager}
}

// Manager returns the underlying dispatcher.
func (c *Contract) Manager() *Manager {
	return c.manager
}

// Run executes the precompile
func (c *Contract) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) (ret []byte, remainingGas uint64, err error) {
	if len(input) < 4 {
		return nil, suppliedGas, fmt.Errorf("input too short")
	}

	selector := binary.BigEndian.Uint32(input[:4])
	data := input[4:]

	switch selector {
	case SelectorMint:
		return c.runMint(accessibleState, caller, data, suppliedGas, readOnly)
	case SelectorIncreaseLiquidity:
		return c.runIncreaseLiquidity(accessibleState, caller, data, suppliedGas, readOnly)
	case SelectorDecreaseLiquidity:
		return c.runDecreaseLiquidity(accessibleState, caller, data, suppliedGas, readOnly)
	case SelectorBurn:
		return c.runBurn(accessibleState, caller, data, suppliedGas, readOnly)
	case SelectorRequestRebalance:
		return c.runRequestRebalance(accessibleState, caller, data, suppliedGas, readOnly)
	case SelectorOnReport:
		return c.runOnReport(accessibleState, data, suppliedGas, readOnly)
	case SelectorGetUserPositions:
		return c.runGetUserPositions(accessibleState, data, suppliedGas)
	case SelectorGetUserPositionCount:
		return c.runGetUserPositionCount(accessibleState, data, suppliedGas)
	case SelectorHasPosition:
		return c.runHasPosition(accessibleState, data, suppliedGas)
	case SelectorGetPositionOwner:
		return c.runGetPositionOwner(accessibleState, data, suppliedGas)
	default:
		return nil, suppliedGas, fmt.Errorf("unknown method selector: %x", selector)
	}
}

func (c *Contract) runMint(
	state contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, fmt.Errorf("cannot write in read-only mode")
	}
	if suppliedGas < GasMint {
		return nil, 0, fmt.Errorf("out of gas")
	}
	remaining := suppliedGas - GasMint

	// PoolKey (5 words), tickLower, tickUpper, liquidity,
	// amount0Max, amount1Max
	if len(input) != 10*wordSize {
		return nil, remaining, fmt.Errorf("input length %d, want %d", len(input), 10*wordSize)
	}

	pool, err := decodePoolKeyWords(input)
	if err != nil {
		return nil, remaining, err
	}
	tickLower, err := wordInt24(wordAt(input, 5))
	if err != nil {
		return nil, remaining, fmt.Errorf("tickLower: %v", err)
	}
	tickUpper, err := wordInt24(wordAt(input, 6))
	if err != nil {
		return nil, remaining, fmt.Errorf("tickUpper: %v", err)
	}
	liquidity := wordUint256(wordAt(input, 7))
	amount0Max := wordUint256(wordAt(input, 8))
	amount1Max := wordUint256(wordAt(input, 9))

	stateDB := state.GetStateDB()
	tokenID, err := c.manager.Mint(
		stateDB, caller, pool, tickLower, tickUpper,
		liquidity, amount0Max, amount1Max,
		state.GetBlockContext().Timestamp(),
	)
	if err != nil {
		return nil, remaining, err
	}

	b := tokenID.Bytes32()
	return b[:], remaining, nil
}

func (c *Contract) runIncreaseLiquidity(
	state contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, fmt.Errorf("cannot write in read-only mode")
	}
	if suppliedGas < GasIncreaseLiq {
		return nil, 0, fmt.Errorf("out of gas")
	}
	remaining := suppliedGas - GasIncreaseLiq

	if len(input) != 4*wordSize {
		return nil, remaining, fmt.Errorf("input length %d, want %d", len(input), 4*wordSize)
	}

	tokenID := wordUint256(wordAt(input, 0))
	liquidity := wordUint256(wordAt(input, 1))
	amount0Max := wordUint256(wordAt(input, 2))
	amount1Max := wordUint256(wordAt(input, 3))

	stateDB := state.GetStateDB()
	err := c.manager.IncreaseLiquidity(
		stateDB, HumanCaller(caller), tokenID, liquidity, amount0Max, amount1Max,
		state.GetBlockContext().Timestamp(),
	)
	if err != nil {
		return nil, remaining, err
	}
	return nil, remaining, nil
}

func (c *Contract) runDecreaseLiquidity(
	state contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, fmt.Errorf("cannot write in read-only mode")
	}
	if suppliedGas < GasDecreaseLiq {
		return nil, 0, fmt.Errorf("out of gas")
	}
	remaining := suppliedGas - GasDecreaseLiq

	if len(input) != 4*wordSize {
		return nil, remaining, fmt.Errorf("input length %d, want %d", len(input), 4*wordSize)
	}

	tokenID := wordUint256(wordAt(input, 0))
	liquidity := wordUint256(wordAt(input, 1))
	amount0Min := wordUint256(wordAt(input, 2))
	amount1Min := wordUint256(wordAt(input, 3))

	stateDB := state.GetStateDB()
	err := c.manager.DecreaseLiquidity(
		stateDB, HumanCaller(caller), tokenID, liquidity, amount0Min, amount1Min,
		state.GetBlockContext().Timestamp(),
	)
	if err != nil {
		return nil, remaining, err
	}
	return nil, remaining, nil
}

func (c *Contract) runBurn(
	state contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, fmt.Errorf("cannot write in read-only mode")
	}
	if suppliedGas < GasBurn {
		return nil, 0, fmt.Errorf("out of gas")
	}
	remaining := suppliedGas - GasBurn

	if len(input) != 3*wordSize {
		return nil, remaining, fmt.Errorf("input length %d, want %d", len(input), 3*wordSize)
	}

	tokenID := wordUint256(wordAt(input, 0))
	amount0Min := wordUint256(wordAt(input, 1))
	amount1Min := wordUint256(wordAt(input, 2))

	stateDB := state.GetStateDB()
	err := c.manager.Burn(
		stateDB, HumanCaller(caller), tokenID, amount0Min, amount1Min,
		state.GetBlockContext().Timestamp(),
	)
	if err != nil {
		return nil, remaining, err
	}
	return nil, remaining, nil
}

func (c *Contract) runRequestRebalance(
	state contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, fmt.Errorf("cannot write in read-only mode")
	}
	if suppliedGas < GasRequestRebalance {
		return nil, 0, fmt.Errorf("out of gas")
	}
	remaining := suppliedGas - GasRequestRebalance

	if len(input) != 2*wordSize {
		return nil, remaining, fmt.Errorf("input length %d, want %d", len(input), 2*wordSize)
	}

	tokenID := wordUint256(wordAt(input, 0))
	currentTick, err := wordInt24(wordAt(input, 1))
	if err != nil {
		return nil, remaining, fmt.Errorf("currentTick: %v", err)
	}

	stateDB := state.GetStateDB()
	if err := c.manager.RequestRebalance(stateDB, HumanCaller(caller), tokenID, currentTick); err != nil {
		return nil, remaining, err
	}
	return nil, remaining, nil
}

func (c *Contract) runOnReport(
	state contract.AccessibleState,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, fmt.Errorf("cannot write in read-only mode")
	}
	if suppliedGas < GasReport {
		return nil, 0, fmt.Errorf("out of gas")
	}
	remaining := suppliedGas - GasReport

	stateDB := state.GetStateDB()
	if err := c.manager.OnReport(stateDB, input, state.GetBlockContext().Timestamp()); err != nil {
		return nil, remaining, err
	}
	return nil, remaining, nil
}

func (c *Contract) runGetUserPositions(
	state contract.AccessibleState,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	if suppliedGas < GasQuery {
		return nil, 0, fmt.Errorf("out of gas")
	}
	remaining := suppliedGas - GasQuery

	if len(input) != wordSize {
		return nil, remaining, fmt.Errorf("input length %d, want %d", len(input), wordSize)
	}
	owner, err := wordAddress(wordAt(input, 0))
	if err != nil {
		return nil, remaining, fmt.Errorf("owner: %v", err)
	}

	stateDB := state.GetStateDB()
	ids := c.manager.UserPositions(stateDB, owner)

	result := make([]byte, 0, (1+len(ids))*wordSize)
	result = putUint64Word(result, uint64(len(ids)))
	for _, id := range ids {
		result = putUint256Word(result, id)
	}
	return result, remaining, nil
}

func (c *Contract) runGetUserPositionCount(
	state contract.AccessibleState,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	if suppliedGas < GasQuery {
		return nil, 0, fmt.Errorf("out of gas")
	}
	remaining := suppliedGas - GasQuery

	if len(input) != wordSize {
		return nil, remaining, fmt.Errorf("input length %d, want %d", len(input), wordSize)
	}
	owner, err := wordAddress(wordAt(input, 0))
	if err != nil {
		return nil, remaining, fmt.Errorf("owner: %v", err)
	}

	stateDB := state.GetStateDB()
	var result []byte
	result = putUint64Word(result, c.manager.UserPositionCount(stateDB, owner))
	return result, remaining, nil
}

func (c *Contract) runHasPosition(
	state contract.AccessibleState,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	if suppliedGas < GasQuery {
		return nil, 0, fmt.Errorf("out of gas")
	}
	remaining := suppliedGas - GasQuery

	if len(input) != 2*wordSize {
		return nil, remaining, fmt.Errorf("input length %d, want %d", len(input), 2*wordSize)
	}
	owner, err := wordAddress(wordAt(input, 0))
	if err != nil {
		return nil, remaining, fmt.Errorf("owner: %v", err)
	}
	tokenID := wordUint256(wordAt(input, 1))

	stateDB := state.GetStateDB()
	var result []byte
	result = putBoolWord(result, c.manager.HasPosition(stateDB, owner, tokenID))
	return result, remaining, nil
}

func (c *Contract) runGetPositionOwner(
	state contract.AccessibleState,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	if suppliedGas < GasQuery {
		return nil, 0, fmt.Errorf("out of gas")
	}
	remaining := suppliedGas - GasQuery

	if len(input) != wordSize {
		return nil, remaining, fmt.Errorf("input length %d, want %d", len(input), wordSize)
	}
	tokenID := wordUint256(wordAt(input, 0))

	stateDB := state.GetStateDB()
	var result []byte
	result = putAddressWord(result, c.manager.PositionOwner(stateDB, tokenID))
	return result, remaining, nil
}

// RequiredGas returns the gas required for the precompile input
func (c *Contract) RequiredGas(input []byte) uint64 {
	if len(input) < 4 {
		return GasQuery
	}

	selector := binary.BigEndian.Uint32(input[:4])
	switch selector {
	case SelectorMint:
		return GasMint
	case SelectorIncreaseLiquidity:
		return GasIncreaseLiq
	case SelectorDecreaseLiquidity:
		return GasDecreaseLiq
	case SelectorBurn:
		return GasBurn
	case SelectorRequestRebalance:
		return GasRequestRebalance
	case SelectorOnReport:
		return GasReport
	case SelectorGetUserPositions, SelectorGetUserPositionCount,
		SelectorHasPosition, SelectorGetPositionOwner:
		return GasQuery
	default:
		return GasQuery
	}
}

// decodePoolKeyWords decodes a PoolKey from five calldata words.
func decodePoolKeyWords(input []byte) (PoolKey, error) {
	currency0, err := wordAddress(wordAt(input, 0))
	if err != nil {
		return PoolKey{}, fmt.Errorf("currency0: %v", err)
	}
	currency1, err := wordAddress(wordAt(input, 1))
	if err != nil {
		return PoolKey{}, fmt.Errorf("currency1: %v", err)
	}
	fee, err := wordUint24(wordAt(input, 2))
	if err != nil {
		return PoolKey{}, fmt.Errorf("fee: %v", err)
	}
	tickSpacing, err := wordInt24(wordAt(input, 3))
	if err != nil {
		return PoolKey{}, fmt.Errorf("tickSpacing: %v", err)
	}
	hooks, err := wordAddress(wordAt(input, 4))
	if err != nil {
		return PoolKey{}, fmt.Errorf("hooks: %v", err)
	}
	return PoolKey{
		Currency0:   Currency{Address: currency0},
		Currency1:   Currency{Address: currency1},
		Fee:         fee,
		TickSpacing: tickSpacing,
		Hooks:       hooks,
	}, nil
}
