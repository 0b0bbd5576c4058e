// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package position

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestMintPlanSequence(t *testing.T) {
	pool := testPool()
	plan := MintPlan(pool, -600, 600, uint256.NewInt(500),
		uint256.NewInt(100), uint256.NewInt(200), ContractAddress)

	require.Equal(t, []byte{ActionMintPosition, ActionSettlePair, ActionSweep}, plan.Actions())
	require.Len(t, plan.Params(), 3)

	mint := plan.Params()[0]
	require.Len(t, mint, 11*wordSize)

	c0, err := wordAddress(wordAt(mint, 0))
	require.NoError(t, err)
	require.Equal(t, pool.Currency0.Address, c0)

	fee, err := wordUint24(wordAt(mint, 2))
	require.NoError(t, err)
	require.Equal(t, pool.Fee, fee)

	lower, err := wordInt24(wordAt(mint, 5))
	require.NoError(t, err)
	require.Equal(t, int24(-600), lower)

	require.Equal(t, uint64(500), wordUint256(wordAt(mint, 7)).Uint64())
	require.Equal(t, uint64(100), wordUint256(wordAt(mint, 8)).Uint64())
	require.Equal(t, uint64(200), wordUint256(wordAt(mint, 9)).Uint64())

	recipient, err := wordAddress(wordAt(mint, 10))
	require.NoError(t, err)
	require.Equal(t, ContractAddress, recipient)

	settle := plan.Params()[1]
	require.Len(t, settle, 2*wordSize)
}

func TestMintPlanDefaultsToUnboundedMaxima(t *testing.T) {
	plan := MintPlan(testPool(), -600, 600, uint256.NewInt(500), nil, nil, ContractAddress)

	mint := plan.Params()[0]
	require.Equal(t, UnboundedAmount(), wordUint256(wordAt(mint, 8)))
	require.Equal(t, UnboundedAmount(), wordUint256(wordAt(mint, 9)))
}

func TestIncreasePlanSequence(t *testing.T) {
	plan := IncreasePlan(uint256.NewInt(42), testPool(), uint256.NewInt(10),
		nil, nil, ContractAddress)

	require.Equal(t, []byte{
		ActionIncreaseLiquidity, ActionCloseCurrency, ActionCloseCurrency, ActionSweep,
	}, plan.Actions())

	inc := plan.Params()[0]
	require.Len(t, inc, 4*wordSize)
	require.Equal(t, uint64(42), wordUint256(wordAt(inc, 0)).Uint64())
	require.Equal(t, uint64(10), wordUint256(wordAt(inc, 1)).Uint64())
	require.Equal(t, UnboundedAmount(), wordUint256(wordAt(inc, 2)))
}

func TestDecreasePlanSequence(t *testing.T) {
	pool := testPool()
	plan := DecreasePlan(uint256.NewInt(42), pool, uint256.NewInt(10),
		nil, nil, ContractAddress)

	require.Equal(t, []byte{ActionDecreaseLiquidity, ActionTakePair}, plan.Actions())

	// Nil minima default to zero, not unbounded: a decrease with no floor
	// accepts any settlement.
	dec := plan.Params()[0]
	require.True(t, wordUint256(wordAt(dec, 2)).IsZero())
	require.True(t, wordUint256(wordAt(dec, 3)).IsZero())

	take := plan.Params()[1]
	require.Len(t, take, 3*wordSize)
	recipient, err := wordAddress(wordAt(take, 2))
	require.NoError(t, err)
	require.Equal(t, ContractAddress, recipient)
}

func TestBurnPlanSequence(t *testing.T) {
	plan := BurnPlan(uint256.NewInt(42), testPool(),
		uint256.NewInt(3), uint256.NewInt(4), ContractAddress)

	require.Equal(t, []byte{ActionBurnPosition, ActionTakePair}, plan.Actions())

	burn := plan.Params()[0]
	require.Len(t, burn, 3*wordSize)
	require.Equal(t, uint64(42), wordUint256(wordAt(burn, 0)).Uint64())
	require.Equal(t, uint64(3), wordUint256(wordAt(burn, 1)).Uint64())
	require.Equal(t, uint64(4), wordUint256(wordAt(burn, 2)).Uint64())
}

func TestPlanAppend(t *testing.T) {
	pool := testPool()
	plan := BurnPlan(uint256.NewInt(42), pool, nil, nil, ContractAddress)
	plan.Append(MintPlan(pool, -600, 600, uint256.NewInt(500), nil, nil, ContractAddress))

	require.Equal(t, []byte{
		ActionBurnPosition, ActionTakePair,
		ActionMintPosition, ActionSettlePair, ActionSweep,
	}, plan.Actions())
	require.Len(t, plan.Params(), 5)
}

func TestEncodeUnlockData(t *testing.T) {
	plan := BurnPlan(uint256.NewInt(42), testPool(), nil, nil, ContractAddress)
	data := EncodeUnlockData(plan)

	// Layout: actions length word, actions, param count word, then each
	// param prefixed by its own length word.
	n := wordUint256(wordAt(data, 0)).Uint64()
	require.Equal(t, uint64(2), n)
	require.Equal(t, []byte{ActionBurnPosition, ActionTakePair}, data[wordSize:wordSize+2])

	off := int(wordSize + n)
	count := wordUint256(data[off : off+wordSize]).Uint64()
	require.Equal(t, uint64(2), count)
	off += wordSize

	for i := uint64(0); i < count; i++ {
		plen := wordUint256(data[off : off+wordSize]).Uint64()
		off += wordSize
		require.Equal(t, plan.Params()[i], data[off:off+int(plen)])
		off += int(plen)
	}
	require.Equal(t, len(data), off)
}

func TestUnboundedAmountSentinel(t *testing.T) {
	u := UnboundedAmount()
	require.True(t, u.Eq(new(uint256.Int).SetAllOne()))
	// Each call yields a fresh value.
	u.Clear()
	require.True(t, UnboundedAmount().Eq(new(uint256.Int).SetAllOne()))
}
