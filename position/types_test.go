// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package position

import (
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func TestPoolKeyStorageRoundTrip(t *testing.T) {
	pk := testPool()
	// Negative tick spacing exercises the 24-bit sign extension.
	pk.TickSpacing = -60

	got, err := PoolKeyFromBytes(pk.ToBytes())
	require.NoError(t, err)
	require.Equal(t, pk, got)

	_, err = PoolKeyFromBytes(make([]byte, 65))
	require.Error(t, err)
}

func TestPoolKeyID(t *testing.T) {
	a := testPool()
	b := testPool()
	require.Equal(t, a.ID(), b.ID())

	b.Fee = 500
	require.NotEqual(t, a.ID(), b.ID())

	c := testPool()
	c.Hooks = common.Address{}
	require.NotEqual(t, a.ID(), c.ID())
}

func TestCurrencyNative(t *testing.T) {
	require.True(t, Currency{}.IsNative())
	require.False(t, Currency{Address: testTokenA}.IsNative())
}

func TestCallerIdentity(t *testing.T) {
	h := HumanCaller(testOwner)
	require.False(t, h.IsWorkflow())
	require.Equal(t, testOwner, h.Address())

	w := WorkflowCaller()
	require.True(t, w.IsWorkflow())
	require.Equal(t, common.Address{}, w.Address())
}

func TestStorageKeyDomainSeparation(t *testing.T) {
	id := common.Hash{0x01}
	require.NotEqual(t,
		makeStorageKey(ownerPrefix, id[:]),
		makeStorageKey(slotPrefix, id[:]))
	require.NotEqual(t,
		makeStorageKey(ownerPrefix, id[:]),
		makeStorageKey(ownerPrefix, common.Hash{0x02}.Bytes()))
}
