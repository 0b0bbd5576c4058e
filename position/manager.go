// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package position

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	log "github.com/luxfi/log"
)

// Storage key prefixes for per-position records kept by the manager
// (separate from the ownership ledger).
var (
	poolKeyPrefix   = []byte("pkey") // token id || slot -> pool key chunk
	liquidityPrefix = []byte("pliq") // token id -> recorded liquidity
)

// PositionRouter is the external position manager boundary. It executes the
// encoded action sequence as one atomic unit: every action applies or the
// whole call reverts with no partial effect. When the sequence contains a
// mint action the router returns the freshly allocated token id, nil
// otherwise. Failures propagate verbatim and are never retried here.
type PositionRouter interface {
	ModifyLiquidities(state StateDB, unlockData []byte, deadline uint64) (*uint256.Int, error)
}

// Manager is the command dispatcher and position-lifecycle state machine.
// It authorizes each mutation against the ledger, translates it into an
// action plan for the router, and keeps the ledger plus per-position
// records consistent with the router's NFT-style ownership.
//
// Execution is serialized by the embedding VM; the mutex only guards
// against an embedder that runs read-only calls concurrently.
type Manager struct {
	mu sync.RWMutex

	log    log.Logger
	ledger *Ledger
	router PositionRouter

	// routerAddr is where the embedding VM dials the router. The manager
	// never calls it directly; the PositionRouter binding does.
	routerAddr common.Address

	// deadlineWindow is added to the block timestamp to form the router
	// deadline for every action sequence.
	deadlineWindow uint64
}

// NewManager creates a manager dispatching to [router]. A nil router leaves
// the manager read-only until SetRouter is called.
func NewManager(router PositionRouter) *Manager {
	return &Manager{
		log:            log.NewTestLogger(log.InfoLevel),
		ledger:         NewLedger(ContractAddress),
		router:         router,
		routerAddr:     common.HexToAddress(DefaultRouterAddress),
		deadlineWindow: DefaultDeadlineWindow,
	}
}

// SetRouter installs the router binding. Called by the configurator when
// the embedding VM wires the precompile up.
func (m *Manager) SetRouter(router PositionRouter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.router = router
}

// SetRouterAddress overrides the address the embedding VM binds the router
// at. A zero address is ignored.
func (m *Manager) SetRouterAddress(addr common.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if addr != (common.Address{}) {
		m.routerAddr = addr
	}
}

// RouterAddress returns the configured router address.
func (m *Manager) RouterAddress() common.Address {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.routerAddr
}

// SetDeadlineWindow overrides the deadline window in seconds.
func (m *Manager) SetDeadlineWindow(seconds uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seconds > 0 {
		m.deadlineWindow = seconds
	}
}

// Ledger exposes the ownership ledger for read paths.
func (m *Manager) Ledger() *Ledger {
	return m.ledger
}

// checkTickRange validates ordering and the router's price-space bounds.
func checkTickRange(tickLower, tickUpper int24) error {
	if tickLower >= tickUpper || tickLower < MinTick || tickUpper > MaxTick {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidTickRange, tickLower, tickUpper)
	}
	return nil
}

// =========================================================================
// Owner-facing operations
// =========================================================================

// Mint creates a new position at [tickLower, tickUpper] and registers it to
// [owner]. The router custodies the position NFT under this contract; the
// ledger records the human owner. Returns the router-issued token id.
func (m *Manager) Mint(
	state StateDB,
	owner common.Address,
	pool PoolKey,
	tickLower, tickUpper int24,
	liquidity *uint256.Int,
	amount0Max, amount1Max *uint256.Int,
	timestamp uint64,
) (*uint256.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mint(state, owner, pool, tickLower, tickUpper, liquidity, amount0Max, amount1Max, timestamp)
}

func (m *Manager) mint(
	state StateDB,
	owner common.Address,
	pool PoolKey,
	tickLower, tickUpper int24,
	liquidity *uint256.Int,
	amount0Max, amount1Max *uint256.Int,
	timestamp uint64,
) (*uint256.Int, error) {
	if m.router == nil {
		return nil, ErrRouterNotConfigured
	}
	if err := checkTickRange(tickLower, tickUpper); err != nil {
		return nil, err
	}
	if liquidity == nil || liquidity.IsZero() {
		return nil, ErrInvalidLiquidity
	}

	snap := state.Snapshot()

	plan := MintPlan(pool, tickLower, tickUpper, liquidity, amount0Max, amount1Max, ContractAddress)
	tokenID, err := m.router.ModifyLiquidities(state, EncodeUnlockData(plan), timestamp+m.deadlineWindow)
	if err != nil {
		state.RevertToSnapshot(snap)
		return nil, err
	}
	if tokenID == nil {
		state.RevertToSnapshot(snap)
		return nil, ErrNoTokenID
	}

	if err := m.ledger.Register(state, tokenID, owner); err != nil {
		state.RevertToSnapshot(snap)
		return nil, err
	}
	m.storePoolKey(state, tokenID, pool)
	m.storeLiquidity(state, tokenID, liquidity)

	emitPositionMinted(state, tokenID, owner, tickLower, tickUpper, liquidity)
	m.log.Debug("position minted",
		"tokenId", tokenID.String(),
		"owner", owner.Hex(),
		"pool", common.Hash(pool.ID()).Hex(),
	)
	return tokenID, nil
}

// IncreaseLiquidity grows a managed position in place.
func (m *Manager) IncreaseLiquidity(
	state StateDB,
	caller Caller,
	tokenID *uint256.Int,
	liquidity *uint256.Int,
	amount0Max, amount1Max *uint256.Int,
	timestamp uint64,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adjust(state, caller, tokenID, true, liquidity, amount0Max, amount1Max, timestamp)
}

// DecreaseLiquidity shrinks a managed position in place. The minima are
// slippage protection: the router rejects settlement below them.
func (m *Manager) DecreaseLiquidity(
	state StateDB,
	caller Caller,
	tokenID *uint256.Int,
	liquidity *uint256.Int,
	amount0Min, amount1Min *uint256.Int,
	timestamp uint64,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adjust(state, caller, tokenID, false, liquidity, amount0Min, amount1Min, timestamp)
}

func (m *Manager) adjust(
	state StateDB,
	caller Caller,
	tokenID *uint256.Int,
	increase bool,
	liquidity *uint256.Int,
	bound0, bound1 *uint256.Int,
	timestamp uint64,
) error {
	if m.router == nil {
		return ErrRouterNotConfigured
	}
	if err := m.ledger.Authorize(state, tokenID, caller); err != nil {
		return err
	}
	if liquidity == nil || liquidity.IsZero() {
		return ErrInvalidLiquidity
	}

	pool, err := m.loadPoolKey(state, tokenID)
	if err != nil {
		return err
	}

	snap := state.Snapshot()

	var plan *ActionPlan
	if increase {
		plan = IncreasePlan(tokenID, pool, liquidity, bound0, bound1, ContractAddress)
	} else {
		plan = DecreasePlan(tokenID, pool, liquidity, bound0, bound1, ContractAddress)
	}
	if _, err := m.router.ModifyLiquidities(state, EncodeUnlockData(plan), timestamp+m.deadlineWindow); err != nil {
		state.RevertToSnapshot(snap)
		return err
	}

	// The recorded liquidity mirrors the router's accounting; the router
	// rejects over-withdrawal before this point is reached.
	rec := m.loadLiquidity(state, tokenID)
	if increase {
		rec.Add(rec, liquidity)
	} else if rec.Lt(liquidity) {
		rec.Clear()
	} else {
		rec.Sub(rec, liquidity)
	}
	m.storeLiquidity(state, tokenID, rec)

	emitLiquidityAdjusted(state, tokenID, increase, liquidity)
	return nil
}

// Burn withdraws a position entirely and retires its id. The id can never
// be resurrected: the ledger entry and index membership are removed.
func (m *Manager) Burn(
	state StateDB,
	caller Caller,
	tokenID *uint256.Int,
	amount0Min, amount1Min *uint256.Int,
	timestamp uint64,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.burn(state, caller, tokenID, amount0Min, amount1Min, timestamp)
}

func (m *Manager) burn(
	state StateDB,
	caller Caller,
	tokenID *uint256.Int,
	amount0Min, amount1Min *uint256.Int,
	timestamp uint64,
) error {
	if m.router == nil {
		return ErrRouterNotConfigured
	}
	if err := m.ledger.Authorize(state, tokenID, caller); err != nil {
		return err
	}

	owner := m.ledger.OwnerOf(state, tokenID)
	pool, err := m.loadPoolKey(state, tokenID)
	if err != nil {
		return err
	}

	snap := state.Snapshot()

	plan := BurnPlan(tokenID, pool, amount0Min, amount1Min, ContractAddress)
	if _, err := m.router.ModifyLiquidities(state, EncodeUnlockData(plan), timestamp+m.deadlineWindow); err != nil {
		state.RevertToSnapshot(snap)
		return err
	}

	if err := m.ledger.Deregister(state, tokenID); err != nil {
		state.RevertToSnapshot(snap)
		return err
	}
	m.clearRecords(state, tokenID)

	emitPositionBurned(state, tokenID, owner)
	m.log.Debug("position burned", "tokenId", tokenID.String(), "owner", owner.Hex())
	return nil
}

// RequestRebalance emits a rebalance request event for off-chain pickup.
// No state is mutated; the actual rebalance arrives later as a verified
// report.
func (m *Manager) RequestRebalance(
	state StateDB,
	caller Caller,
	tokenID *uint256.Int,
	currentTick int24,
) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.ledger.Authorize(state, tokenID, caller); err != nil {
		return err
	}
	emitRebalanceRequested(state, tokenID, currentTick)
	return nil
}

// =========================================================================
// Verified report dispatch
// =========================================================================

// OnReport decodes and executes one verified report. Authenticity is the
// relayer's concern: any payload reaching this point is trusted to have
// passed verification. Any failure aborts the whole unit with no partial
// ledger mutation and no event.
func (m *Manager) OnReport(state StateDB, payload []byte, timestamp uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd, err := DecodeReport(payload)
	if err != nil {
		return err
	}

	switch c := cmd.(type) {
	case AdjustLiquidityCommand:
		return m.adjust(state, WorkflowCaller(), c.TokenID, c.Increase, c.LiquidityDelta, nil, nil, timestamp)
	case MintNewCommand:
		_, err := m.mint(state, ContractAddress, c.Pool, c.TickLower, c.TickUpper, c.Liquidity, nil, nil, timestamp)
		return err
	case RebalanceCommand:
		return m.rebalance(state, c, timestamp)
	default:
		return fmt.Errorf("%w: unhandled command %T", ErrInvalidReportPrefix, cmd)
	}
}

// rebalance retires the old position and re-mints at the new range in one
// atomic router call: burn with zero minimums (the proceeds fund the mint
// immediately, so any withdrawal result is acceptable), then mint the
// recorded liquidity at the new range with unbounded maxima. The new id is
// registered to the old position's owner; the old id is gone for good.
func (m *Manager) rebalance(state StateDB, cmd RebalanceCommand, timestamp uint64) error {
	if m.router == nil {
		return ErrRouterNotConfigured
	}
	if err := checkTickRange(cmd.NewTickLower, cmd.NewTickUpper); err != nil {
		return err
	}
	if !m.ledger.IsManaged(state, cmd.TokenID) {
		return ErrPositionNotOwned
	}

	owner := m.ledger.OwnerOf(state, cmd.TokenID)
	pool, err := m.loadPoolKey(state, cmd.TokenID)
	if err != nil {
		return err
	}
	liquidity := m.loadLiquidity(state, cmd.TokenID)

	snap := state.Snapshot()

	plan := BurnPlan(cmd.TokenID, pool, nil, nil, ContractAddress)
	plan.Append(MintPlan(pool, cmd.NewTickLower, cmd.NewTickUpper, liquidity, nil, nil, ContractAddress))

	newTokenID, err := m.router.ModifyLiquidities(state, EncodeUnlockData(plan), timestamp+m.deadlineWindow)
	if err != nil {
		state.RevertToSnapshot(snap)
		return err
	}
	if newTokenID == nil {
		state.RevertToSnapshot(snap)
		return ErrNoTokenID
	}

	if err := m.ledger.Deregister(state, cmd.TokenID); err != nil {
		state.RevertToSnapshot(snap)
		return err
	}
	m.clearRecords(state, cmd.TokenID)

	if err := m.ledger.Register(state, newTokenID, owner); err != nil {
		state.RevertToSnapshot(snap)
		return err
	}
	m.storePoolKey(state, newTokenID, pool)
	m.storeLiquidity(state, newTokenID, liquidity)

	emitPositionRebalanced(state, cmd.TokenID, newTokenID, cmd.NewTickLower, cmd.NewTickUpper)
	m.log.Info("position rebalanced",
		"oldTokenId", cmd.TokenID.String(),
		"newTokenId", newTokenID.String(),
		"newTickLower", cmd.NewTickLower,
		"newTickUpper", cmd.NewTickUpper,
	)
	return nil
}

// =========================================================================
// Per-position records
// =========================================================================

// Pool keys are 66 bytes, stored across three words.
const poolKeyChunks = 3

func poolKeyChunkKey(id [32]byte, chunk byte) common.Hash {
	return makeStorageKey(poolKeyPrefix, append(id[:], chunk))
}

func (m *Manager) storePoolKey(state StateDB, tokenID *uint256.Int, pool PoolKey) {
	id := tokenID.Bytes32()
	data := pool.ToBytes()
	for i := 0; i < poolKeyChunks; i++ {
		var v common.Hash
		start := i * 32
		end := start + 32
		if end > len(data) {
			end = len(data)
		}
		copy(v[:], data[start:end])
		state.SetState(ContractAddress, poolKeyChunkKey(id, byte(i)), v)
	}
}

func (m *Manager) loadPoolKey(state StateDB, tokenID *uint256.Int) (PoolKey, error) {
	id := tokenID.Bytes32()
	data := make([]byte, poolKeyChunks*32)
	for i := 0; i < poolKeyChunks; i++ {
		v := state.GetState(ContractAddress, poolKeyChunkKey(id, byte(i)))
		copy(data[i*32:], v[:])
	}
	return PoolKeyFromBytes(data[:66])
}

func (m *Manager) clearPoolKey(state StateDB, id [32]byte) {
	for i := 0; i < poolKeyChunks; i++ {
		state.SetState(ContractAddress, poolKeyChunkKey(id, byte(i)), common.Hash{})
	}
}

func (m *Manager) storeLiquidity(state StateDB, tokenID *uint256.Int, liquidity *uint256.Int) {
	id := tokenID.Bytes32()
	state.SetState(ContractAddress, makeStorageKey(liquidityPrefix, id[:]), common.Hash(liquidity.Bytes32()))
}

func (m *Manager) loadLiquidity(state StateDB, tokenID *uint256.Int) *uint256.Int {
	id := tokenID.Bytes32()
	v := state.GetState(ContractAddress, makeStorageKey(liquidityPrefix, id[:]))
	return new(uint256.Int).SetBytes(v[:])
}

func (m *Manager) clearRecords(state StateDB, tokenID *uint256.Int) {
	id := tokenID.Bytes32()
	m.clearPoolKey(state, id)
	state.SetState(ContractAddress, makeStorageKey(liquidityPrefix, id[:]), common.Hash{})
}

// =========================================================================
// Read operations
// =========================================================================

// UserPositions returns the token ids managed for [owner].
func (m *Manager) UserPositions(state StateDB, owner common.Address) []*uint256.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ledger.Positions(state, owner)
}

// UserPositionCount returns the number of positions managed for [owner].
func (m *Manager) UserPositionCount(state StateDB, owner common.Address) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ledger.Count(state, owner)
}

// HasPosition returns true if [tokenID] is managed and owned by [owner].
func (m *Manager) HasPosition(state StateDB, owner common.Address, tokenID *uint256.Int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ledger.Has(state, owner, tokenID)
}

// PositionOwner returns the owner of [tokenID], zero if unmanaged.
func (m *Manager) PositionOwner(state StateDB, tokenID *uint256.Int) common.Address {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ledger.OwnerOf(state, tokenID)
}
