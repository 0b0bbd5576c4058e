// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package position

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
	"golang.org/x/crypto/sha3"
)

// eventTopic hashes a canonical event signature with keccak-256.
func eventTopic(signature string) common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	var topic common.Hash
	h.Sum(topic[:0])
	return topic
}

// Event topics, keccak of the canonical signatures.
var (
	TopicPositionMinted     = eventTopic("PositionMinted(uint256,address,int24,int24,uint256)")
	TopicLiquidityAdjusted  = eventTopic("LiquidityAdjusted(uint256,bool,uint256)")
	TopicPositionBurned     = eventTopic("PositionBurned(uint256,address)")
	TopicRebalanceRequested = eventTopic("RebalanceRequested(uint256,int24)")
	TopicPositionRebalanced = eventTopic("PositionRebalanced(uint256,uint256,int24,int24)")
)

func tokenTopic(id *uint256.Int) common.Hash {
	return common.Hash(id.Bytes32())
}

func addressTopic(addr common.Address) common.Hash {
	var h common.Hash
	copy(h[12:], addr.Bytes())
	return h
}

func emitPositionMinted(state StateDB, tokenID *uint256.Int, owner common.Address, tickLower, tickUpper int24, liquidity *uint256.Int) {
	var data []byte
	data = putInt24Word(data, tickLower)
	data = putInt24Word(data, tickUpper)
	data = putUint256Word(data, liquidity)
	state.AddLog(&ethtypes.Log{
		Address: ContractAddress,
		Topics:  []common.Hash{TopicPositionMinted, tokenTopic(tokenID), addressTopic(owner)},
		Data:    data,
	})
}

func emitLiquidityAdjusted(state StateDB, tokenID *uint256.Int, increase bool, delta *uint256.Int) {
	var data []byte
	data = putBoolWord(data, increase)
	data = putUint256Word(data, delta)
	state.AddLog(&ethtypes.Log{
		Address: ContractAddress,
		Topics:  []common.Hash{TopicLiquidityAdjusted, tokenTopic(tokenID)},
		Data:    data,
	})
}

func emitPositionBurned(state StateDB, tokenID *uint256.Int, owner common.Address) {
	state.AddLog(&ethtypes.Log{
		Address: ContractAddress,
		Topics:  []common.Hash{TopicPositionBurned, tokenTopic(tokenID), addressTopic(owner)},
	})
}

func emitRebalanceRequested(state StateDB, tokenID *uint256.Int, currentTick int24) {
	var data []byte
	data = putInt24Word(data, currentTick)
	state.AddLog(&ethtypes.Log{
		Address: ContractAddress,
		Topics:  []common.Hash{TopicRebalanceRequested, tokenTopic(tokenID)},
		Data:    data,
	})
}

func emitPositionRebalanced(state StateDB, oldTokenID, newTokenID *uint256.Int, newTickLower, newTickUpper int24) {
	var data []byte
	data = putInt24Word(data, newTickLower)
	data = putInt24Word(data, newTickUpper)
	state.AddLog(&ethtypes.Log{
		Address: ContractAddress,
		Topics:  []common.Hash{TopicPositionRebalanced, tokenTopic(oldTokenID), tokenTopic(newTokenID)},
		Data:    data,
	})
}
