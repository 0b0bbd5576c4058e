// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package position

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Body lengths in words for each report discriminant.
const (
	rebalanceWords = 3 // tokenId, newTickLower, newTickUpper
	adjustWords    = 3 // tokenId, increase, liquidityDelta
	mintWords      = 8 // currency0, currency1, fee, tickSpacing, hooks, tickLower, tickUpper, liquidity
)

// DecodeReport parses a verified report payload into exactly one command
// variant. The first byte discriminates the command; the remainder is its
// fixed word layout. Decoding is total and touches no state: any structural
// defect (empty payload, unknown discriminant, wrong body length, a narrow
// field not validly extended through its word) fails with
// ErrInvalidReportPrefix.
func DecodeReport(payload []byte) (Command, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidReportPrefix)
	}

	prefix := payload[0]
	body := payload[1:]

	switch prefix {
	case ReportRebalance:
		return decodeRebalance(body)
	case ReportAdjustLiquidity:
		return decodeAdjustLiquidity(body)
	case ReportMintNew:
		return decodeMintNew(body)
	default:
		return nil, fmt.Errorf("%w: unknown discriminant 0x%02x", ErrInvalidReportPrefix, prefix)
	}
}

func decodeRebalance(body []byte) (Command, error) {
	if len(body) != rebalanceWords*wordSize {
		return nil, fmt.Errorf("%w: rebalance body is %d bytes, want %d",
			ErrInvalidReportPrefix, len(body), rebalanceWords*wordSize)
	}

	tokenID := wordUint256(wordAt(body, 0))
	tickLower, err := wordInt24(wordAt(body, 1))
	if err != nil {
		return nil, fmt.Errorf("%w: newTickLower: %v", ErrInvalidReportPrefix, err)
	}
	tickUpper, err := wordInt24(wordAt(body, 2))
	if err != nil {
		return nil, fmt.Errorf("%w: newTickUpper: %v", ErrInvalidReportPrefix, err)
	}

	return RebalanceCommand{
		TokenID:      tokenID,
		NewTickLower: tickLower,
		NewTickUpper: tickUpper,
	}, nil
}

func decodeAdjustLiquidity(body []byte) (Command, error) {
	if len(body) != adjustWords*wordSize {
		return nil, fmt.Errorf("%w: adjust body is %d bytes, want %d",
			ErrInvalidReportPrefix, len(body), adjustWords*wordSize)
	}

	tokenID := wordUint256(wordAt(body, 0))
	increase, err := wordBool(wordAt(body, 1))
	if err != nil {
		return nil, fmt.Errorf("%w: increase: %v", ErrInvalidReportPrefix, err)
	}
	delta := wordUint256(wordAt(body, 2))

	return AdjustLiquidityCommand{
		TokenID:        tokenID,
		Increase:       increase,
		LiquidityDelta: delta,
	}, nil
}

func decodeMintNew(body []byte) (Command, error) {
	if len(body) != mintWords*wordSize {
		return nil, fmt.Errorf("%w: mint body is %d bytes, want %d",
			ErrInvalidReportPrefix, len(body), mintWords*wordSize)
	}

	currency0, err := wordAddress(wordAt(body, 0))
	if err != nil {
		return nil, fmt.Errorf("%w: currency0: %v", ErrInvalidReportPrefix, err)
	}
	currency1, err := wordAddress(wordAt(body, 1))
	if err != nil {
		return nil, fmt.Errorf("%w: currency1: %v", ErrInvalidReportPrefix, err)
	}
	fee, err := wordUint24(wordAt(body, 2))
	if err != nil {
		return nil, fmt.Errorf("%w: fee: %v", ErrInvalidReportPrefix, err)
	}
	tickSpacing, err := wordInt24(wordAt(body, 3))
	if err != nil {
		return nil, fmt.Errorf("%w: tickSpacing: %v", ErrInvalidReportPrefix, err)
	}
	hooks, err := wordAddress(wordAt(body, 4))
	if err != nil {
		return nil, fmt.Errorf("%w: hooks: %v", ErrInvalidReportPrefix, err)
	}
	tickLower, err := wordInt24(wordAt(body, 5))
	if err != nil {
		return nil, fmt.Errorf("%w: tickLower: %v", ErrInvalidReportPrefix, err)
	}
	tickUpper, err := wordInt24(wordAt(body, 6))
	if err != nil {
		return nil, fmt.Errorf("%w: tickUpper: %v", ErrInvalidReportPrefix, err)
	}
	liquidity := wordUint256(wordAt(body, 7))

	return MintNewCommand{
		Pool: PoolKey{
			Currency0:   Currency{Address: currency0},
			Currency1:   Currency{Address: currency1},
			Fee:         fee,
			TickSpacing: tickSpacing,
			Hooks:       hooks,
		},
		TickLower: tickLower,
		TickUpper: tickUpper,
		Liquidity: liquidity,
	}, nil
}

// EncodeRebalanceReport builds a rebalance report payload. Used by tests and
// by off-chain tooling that mirrors the workflow's wire format.
func EncodeRebalanceReport(tokenID *uint256.Int, newTickLower, newTickUpper int24) []byte {
	out := make([]byte, 1, 1+rebalanceWords*wordSize)
	out[0] = ReportRebalance
	out = putUint256Word(out, tokenID)
	out = putInt24Word(out, newTickLower)
	out = putInt24Word(out, newTickUpper)
	return out
}

// EncodeAdjustLiquidityReport builds an adjust-liquidity report payload.
func EncodeAdjustLiquidityReport(tokenID *uint256.Int, increase bool, delta *uint256.Int) []byte {
	out := make([]byte, 1, 1+adjustWords*wordSize)
	out[0] = ReportAdjustLiquidity
	out = putUint256Word(out, tokenID)
	out = putBoolWord(out, increase)
	out = putUint256Word(out, delta)
	return out
}

// EncodeMintNewReport builds a mint-new report payload.
func EncodeMintNewReport(pool PoolKey, tickLower, tickUpper int24, liquidity *uint256.Int) []byte {
	out := make([]byte, 1, 1+mintWords*wordSize)
	out[0] = ReportMintNew
	out = putAddressWord(out, pool.Currency0.Address)
	out = putAddressWord(out, pool.Currency1.Address)
	out = putUint24Word(out, pool.Fee)
	out = putInt24Word(out, pool.TickSpacing)
	out = putAddressWord(out, pool.Hooks)
	out = putInt24Word(out, tickLower)
	out = putInt24Word(out, tickUpper)
	out = putUint256Word(out, liquidity)
	return out
}
