// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package position

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func TestEventTopicKeccak(t *testing.T) {
	// Known keccak-256 vector: the ERC-20 Transfer topic.
	require.Equal(t,
		common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"),
		eventTopic("Transfer(address,address,uint256)"))
}

func TestEventTopicsDistinct(t *testing.T) {
	topics := []common.Hash{
		TopicPositionMinted,
		TopicLiquidityAdjusted,
		TopicPositionBurned,
		TopicRebalanceRequested,
		TopicPositionRebalanced,
	}
	seen := make(map[common.Hash]bool, len(topics))
	for _, topic := range topics {
		require.NotEqual(t, common.Hash{}, topic)
		require.False(t, seen[topic])
		seen[topic] = true
	}
}

func TestEmitPositionMinted(t *testing.T) {
	state := NewMockStateDB()
	id := uint256.NewInt(42)

	emitPositionMinted(state, id, testOwner, -600, 600, uint256.NewInt(500))

	require.Len(t, state.Logs(), 1)
	got := state.Logs()[0]
	require.Equal(t, ContractAddress, got.Address)
	require.Equal(t, []common.Hash{
		TopicPositionMinted, tokenTopic(id), addressTopic(testOwner),
	}, got.Topics)
	require.Len(t, got.Data, 3*wordSize)

	lower, err := wordInt24(wordAt(got.Data, 0))
	require.NoError(t, err)
	require.Equal(t, int24(-600), lower)
	require.Equal(t, uint64(500), wordUint256(wordAt(got.Data, 2)).Uint64())
}

func TestAddressTopicPadding(t *testing.T) {
	topic := addressTopic(testOwner)
	for _, b := range topic[:12] {
		require.Zero(t, b)
	}
	require.Equal(t, testOwner, common.BytesToAddress(topic[12:]))
}
