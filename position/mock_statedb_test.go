// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package position

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	ethtypes "github.com/luxfi/geth/core/types"

	"github.com/luxfi/autolp/contract"
)

// MockStateDB implements contract.StateDB for testing. Snapshot/revert is
// real: reverting restores storage, balances, and logs, so atomicity tests
// observe exactly what the embedding EVM would.
type MockStateDB struct {
	storage  map[common.Address]map[common.Hash]common.Hash
	balances map[common.Address]*uint256.Int
	nonces   map[common.Address]uint64
	logs     []*ethtypes.Log

	snapshots []mockSnapshot
}

type mockSnapshot struct {
	storage  map[common.Address]map[common.Hash]common.Hash
	balances map[common.Address]*uint256.Int
	logCount int
}

func NewMockStateDB() *MockStateDB {
	return &MockStateDB{
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		balances: make(map[common.Address]*uint256.Int),
		nonces:   make(map[common.Address]uint64),
		logs:     make([]*ethtypes.Log, 0),
	}
}

func (m *MockStateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	if m.storage[addr] == nil {
		return common.Hash{}
	}
	return m.storage[addr][key]
}

func (m *MockStateDB) SetState(addr common.Address, key, value common.Hash) common.Hash {
	if m.storage[addr] == nil {
		m.storage[addr] = make(map[common.Hash]common.Hash)
	}
	prev := m.storage[addr][key]
	m.storage[addr][key] = value
	return prev
}

func (m *MockStateDB) GetBalance(addr common.Address) *uint256.Int {
	if bal, ok := m.balances[addr]; ok {
		return bal.Clone()
	}
	return uint256.NewInt(0)
}

func (m *MockStateDB) AddBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	if m.balances[addr] == nil {
		m.balances[addr] = uint256.NewInt(0)
	}
	prev := m.balances[addr].Clone()
	m.balances[addr] = new(uint256.Int).Add(m.balances[addr], amount)
	return *prev
}

func (m *MockStateDB) SubBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	if m.balances[addr] == nil {
		m.balances[addr] = uint256.NewInt(0)
	}
	prev := m.balances[addr].Clone()
	m.balances[addr] = new(uint256.Int).Sub(m.balances[addr], amount)
	return *prev
}

func (m *MockStateDB) SetNonce(addr common.Address, nonce uint64, _ tracing.NonceChangeReason) {
	m.nonces[addr] = nonce
}

func (m *MockStateDB) GetNonce(addr common.Address) uint64 {
	return m.nonces[addr]
}

func (m *MockStateDB) CreateAccount(common.Address) {}
func (m *MockStateDB) Exist(common.Address) bool    { return true }

func (m *MockStateDB) AddLog(log *ethtypes.Log) { m.logs = append(m.logs, log) }
func (m *MockStateDB) Logs() []*ethtypes.Log    { return m.logs }

func (m *MockStateDB) TxHash() common.Hash { return common.Hash{} }

func (m *MockStateDB) Snapshot() int {
	snap := mockSnapshot{
		storage:  make(map[common.Address]map[common.Hash]common.Hash, len(m.storage)),
		balances: make(map[common.Address]*uint256.Int, len(m.balances)),
		logCount: len(m.logs),
	}
	for addr, slots := range m.storage {
		cp := make(map[common.Hash]common.Hash, len(slots))
		for k, v := range slots {
			cp[k] = v
		}
		snap.storage[addr] = cp
	}
	for addr, bal := range m.balances {
		snap.balances[addr] = bal.Clone()
	}
	m.snapshots = append(m.snapshots, snap)
	return len(m.snapshots) - 1
}

func (m *MockStateDB) RevertToSnapshot(id int) {
	snap := m.snapshots[id]
	m.storage = snap.storage
	m.balances = snap.balances
	m.logs = m.logs[:snap.logCount]
	m.snapshots = m.snapshots[:id]
}

var _ contract.StateDB = (*MockStateDB)(nil)

// mockBlockContext implements contract.BlockContext.
type mockBlockContext struct {
	number    *big.Int
	timestamp uint64
}

func (b *mockBlockContext) Number() *big.Int  { return b.number }
func (b *mockBlockContext) Timestamp() uint64 { return b.timestamp }

// mockAccessibleState implements contract.AccessibleState.
type mockAccessibleState struct {
	stateDB contract.StateDB
	block   *mockBlockContext
}

func newMockAccessibleState(stateDB contract.StateDB) *mockAccessibleState {
	return &mockAccessibleState{
		stateDB: stateDB,
		block:   &mockBlockContext{number: big.NewInt(1), timestamp: 1_700_000_000},
	}
}

func (s *mockAccessibleState) GetStateDB() contract.StateDB            { return s.stateDB }
func (s *mockAccessibleState) GetBlockContext() contract.BlockContext { return s.block }
