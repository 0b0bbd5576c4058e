// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package position

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Router action discriminants. The router executes an ordered sequence of
// these as one atomic unit: every action applies or the whole sequence
// reverts.
const (
	ActionIncreaseLiquidity byte = 0x00
	ActionDecreaseLiquidity byte = 0x01
	ActionMintPosition      byte = 0x02
	ActionBurnPosition      byte = 0x03
	ActionSettlePair        byte = 0x0d
	ActionTakePair          byte = 0x11
	ActionCloseCurrency     byte = 0x12
	ActionSweep             byte = 0x14
)

// UnboundedAmount is the sentinel for "no bound": the maximum representable
// amount. Mint and increase default to it unless the caller supplies
// tighter maxima.
func UnboundedAmount() *uint256.Int {
	return new(uint256.Int).SetAllOne()
}

// ActionPlan is an ordered (action, encoded-params) sequence for the router.
type ActionPlan struct {
	actions []byte
	params  [][]byte
}

func (p *ActionPlan) add(action byte, params []byte) {
	p.actions = append(p.actions, action)
	p.params = append(p.params, params)
}

// Actions returns the action discriminants in execution order.
func (p *ActionPlan) Actions() []byte {
	return p.actions
}

// Params returns the encoded parameter blob for each action.
func (p *ActionPlan) Params() [][]byte {
	return p.params
}

// Append concatenates another plan onto this one, preserving order. Used by
// the rebalance workflow to run burn and mint in a single router call.
func (p *ActionPlan) Append(other *ActionPlan) {
	p.actions = append(p.actions, other.actions...)
	p.params = append(p.params, other.params...)
}

// MintPlan builds the mint sequence: MINT_POSITION, SETTLE_PAIR, SWEEP.
// The sweep returns any native-currency change to [recipient]. Nil maxima
// default to the unbounded sentinel.
func MintPlan(
	pool PoolKey,
	tickLower, tickUpper int24,
	liquidity *uint256.Int,
	amount0Max, amount1Max *uint256.Int,
	recipient common.Address,
) *ActionPlan {
	if amount0Max == nil {
		amount0Max = UnboundedAmount()
	}
	if amount1Max == nil {
		amount1Max = UnboundedAmount()
	}

	var mint []byte
	mint = putAddressWord(mint, pool.Currency0.Address)
	mint = putAddressWord(mint, pool.Currency1.Address)
	mint = putUint24Word(mint, pool.Fee)
	mint = putInt24Word(mint, pool.TickSpacing)
	mint = putAddressWord(mint, pool.Hooks)
	mint = putInt24Word(mint, tickLower)
	mint = putInt24Word(mint, tickUpper)
	mint = putUint256Word(mint, liquidity)
	mint = putUint256Word(mint, amount0Max)
	mint = putUint256Word(mint, amount1Max)
	mint = putAddressWord(mint, recipient)

	var settle []byte
	settle = putAddressWord(settle, pool.Currency0.Address)
	settle = putAddressWord(settle, pool.Currency1.Address)

	var sweep []byte
	sweep = putAddressWord(sweep, pool.Currency0.Address)
	sweep = putAddressWord(sweep, recipient)

	plan := &ActionPlan{}
	plan.add(ActionMintPosition, mint)
	plan.add(ActionSettlePair, settle)
	plan.add(ActionSweep, sweep)
	return plan
}

// IncreasePlan builds the increase sequence: INCREASE_LIQUIDITY,
// CLOSE_CURRENCY(0), CLOSE_CURRENCY(1), SWEEP.
func IncreasePlan(
	tokenID *uint256.Int,
	pool PoolKey,
	liquidity *uint256.Int,
	amount0Max, amount1Max *uint256.Int,
	recipient common.Address,
) *ActionPlan {
	if amount0Max == nil {
		amount0Max = UnboundedAmount()
	}
	if amount1Max == nil {
		amount1Max = UnboundedAmount()
	}

	var inc []byte
	inc = putUint256Word(inc, tokenID)
	inc = putUint256Word(inc, liquidity)
	inc = putUint256Word(inc, amount0Max)
	inc = putUint256Word(inc, amount1Max)

	var close0 []byte
	close0 = putAddressWord(close0, pool.Currency0.Address)
	var close1 []byte
	close1 = putAddressWord(close1, pool.Currency1.Address)

	var sweep []byte
	sweep = putAddressWord(sweep, pool.Currency0.Address)
	sweep = putAddressWord(sweep, recipient)

	plan := &ActionPlan{}
	plan.add(ActionIncreaseLiquidity, inc)
	plan.add(ActionCloseCurrency, close0)
	plan.add(ActionCloseCurrency, close1)
	plan.add(ActionSweep, sweep)
	return plan
}

// DecreasePlan builds the decrease sequence: DECREASE_LIQUIDITY, TAKE_PAIR.
// The minima are slippage protection enforced by the router at settlement.
func DecreasePlan(
	tokenID *uint256.Int,
	pool PoolKey,
	liquidity *uint256.Int,
	amount0Min, amount1Min *uint256.Int,
	recipient common.Address,
) *ActionPlan {
	if amount0Min == nil {
		amount0Min = new(uint256.Int)
	}
	if amount1Min == nil {
		amount1Min = new(uint256.Int)
	}

	var dec []byte
	dec = putUint256Word(dec, tokenID)
	dec = putUint256Word(dec, liquidity)
	dec = putUint256Word(dec, amount0Min)
	dec = putUint256Word(dec, amount1Min)

	plan := &ActionPlan{}
	plan.add(ActionDecreaseLiquidity, dec)
	plan.add(ActionTakePair, takePairParams(pool, recipient))
	return plan
}

// BurnPlan builds the burn sequence: BURN_POSITION, TAKE_PAIR.
func BurnPlan(
	tokenID *uint256.Int,
	pool PoolKey,
	amount0Min, amount1Min *uint256.Int,
	recipient common.Address,
) *ActionPlan {
	if amount0Min == nil {
		amount0Min = new(uint256.Int)
	}
	if amount1Min == nil {
		amount1Min = new(uint256.Int)
	}

	var burn []byte
	burn = putUint256Word(burn, tokenID)
	burn = putUint256Word(burn, amount0Min)
	burn = putUint256Word(burn, amount1Min)

	plan := &ActionPlan{}
	plan.add(ActionBurnPosition, burn)
	plan.add(ActionTakePair, takePairParams(pool, recipient))
	return plan
}

func takePairParams(pool PoolKey, recipient common.Address) []byte {
	var take []byte
	take = putAddressWord(take, pool.Currency0.Address)
	take = putAddressWord(take, pool.Currency1.Address)
	take = putAddressWord(take, recipient)
	return take
}

// EncodeUnlockData packs a plan into the router's unlock payload:
// actions length word, raw action bytes, then each param blob prefixed by
// its length word.
func EncodeUnlockData(plan *ActionPlan) []byte {
	var out []byte
	out = putUint64Word(out, uint64(len(plan.actions)))
	out = append(out, plan.actions...)
	out = putUint64Word(out, uint64(len(plan.params)))
	for _, p := range plan.params {
		out = putUint64Word(out, uint64(len(p)))
		out = append(out, p...)
	}
	return out
}
