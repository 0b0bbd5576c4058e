// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package position

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Storage key prefixes for ledger state
var (
	ownerPrefix = []byte("pown") // token id -> owner address
	countPrefix = []byte("pcnt") // owner -> number of managed positions
	indexPrefix = []byte("pidx") // owner || slot -> token id
	slotPrefix  = []byte("pslt") // token id -> slot+1 in owner's list
)

// Ledger tracks which positions the contract manages and who owns each one.
// All state lives in the StateDB under the precompile's account, so a
// snapshot revert erases ledger mutations together with everything else in
// the failed unit of work.
//
// Invariant: a token id has a non-zero owner slot iff it appears exactly
// once in that owner's index; unmanaged ids appear in no index.
type Ledger struct {
	contract common.Address
}

// NewLedger creates a ledger persisting under [contract]'s account.
func NewLedger(contract common.Address) *Ledger {
	return &Ledger{contract: contract}
}

// Register marks [id] as managed with [owner] and appends it to the owner's
// index. Fails with ErrDuplicateRegistration if [id] is already managed.
// The zero address is rejected: it encodes "unmanaged" in the owner table,
// so an entry under it would sit in an index while reading as unmanaged.
func (l *Ledger) Register(state StateDB, id *uint256.Int, owner common.Address) error {
	if owner == (common.Address{}) {
		return ErrInvalidOwner
	}
	if l.IsManaged(state, id) {
		return ErrDuplicateRegistration
	}

	idBytes := id.Bytes32()
	l.setOwner(state, idBytes, owner)

	n := l.Count(state, owner)
	l.setIndexEntry(state, owner, n, common.Hash(idBytes))
	l.setSlot(state, common.Hash(idBytes), n+1)
	l.setCount(state, owner, n+1)
	return nil
}

// Authorize checks that [caller] may mutate [id]. The stored owner and the
// internal workflow identity are allowed; everyone else is rejected.
// Side-effect free.
func (l *Ledger) Authorize(state StateDB, id *uint256.Int, caller Caller) error {
	owner := l.OwnerOf(state, id)
	if owner == (common.Address{}) {
		return ErrPositionNotOwned
	}
	if caller.IsWorkflow() {
		return nil
	}
	if caller.Address() == owner {
		return nil
	}
	return ErrNotPositionOwner
}

// Deregister removes [id] from the ledger and from its owner's index.
// Fails with ErrPositionNotOwned if [id] is not managed. Removal is
// swap-with-last: the index is an unordered set.
func (l *Ledger) Deregister(state StateDB, id *uint256.Int) error {
	owner := l.OwnerOf(state, id)
	if owner == (common.Address{}) {
		return ErrPositionNotOwned
	}

	idBytes := id.Bytes32()
	slot := l.getSlot(state, common.Hash(idBytes)) - 1
	n := l.Count(state, owner)

	last := l.getIndexEntry(state, owner, n-1)
	if last != common.Hash(idBytes) {
		l.setIndexEntry(state, owner, slot, last)
		l.setSlot(state, last, slot+1)
	}
	l.clearIndexEntry(state, owner, n-1)
	l.setCount(state, owner, n-1)
	l.setSlot(state, common.Hash(idBytes), 0)
	l.setOwner(state, idBytes, common.Address{})
	return nil
}

// OwnerOf returns the owner of [id], zero if unmanaged. Never fails.
func (l *Ledger) OwnerOf(state StateDB, id *uint256.Int) common.Address {
	idBytes := id.Bytes32()
	h := state.GetState(l.contract, makeStorageKey(ownerPrefix, idBytes[:]))
	return common.BytesToAddress(h[12:])
}

// IsManaged returns true if the contract currently administers [id].
func (l *Ledger) IsManaged(state StateDB, id *uint256.Int) bool {
	return l.OwnerOf(state, id) != (common.Address{})
}

// Has returns true if [id] is managed and owned by [owner].
func (l *Ledger) Has(state StateDB, owner common.Address, id *uint256.Int) bool {
	got := l.OwnerOf(state, id)
	return got != (common.Address{}) && got == owner
}

// Count returns the number of positions managed for [owner].
func (l *Ledger) Count(state StateDB, owner common.Address) uint64 {
	h := state.GetState(l.contract, makeStorageKey(countPrefix, owner.Bytes()))
	return binary.BigEndian.Uint64(h[24:])
}

// Positions returns the ids managed for [owner], in index order. The order
// is not meaningful: swap-removal reshuffles it.
func (l *Ledger) Positions(state StateDB, owner common.Address) []*uint256.Int {
	n := l.Count(state, owner)
	out := make([]*uint256.Int, 0, n)
	for i := uint64(0); i < n; i++ {
		entry := l.getIndexEntry(state, owner, i)
		out = append(out, new(uint256.Int).SetBytes(entry[:]))
	}
	return out
}

func (l *Ledger) setOwner(state StateDB, id [32]byte, owner common.Address) {
	var v common.Hash
	copy(v[12:], owner.Bytes())
	state.SetState(l.contract, makeStorageKey(ownerPrefix, id[:]), v)
}

func (l *Ledger) setCount(state StateDB, owner common.Address, n uint64) {
	var v common.Hash
	binary.BigEndian.PutUint64(v[24:], n)
	state.SetState(l.contract, makeStorageKey(countPrefix, owner.Bytes()), v)
}

func indexEntryKey(owner common.Address, i uint64) []byte {
	buf := make([]byte, 28)
	copy(buf, owner.Bytes())
	binary.BigEndian.PutUint64(buf[20:], i)
	return buf
}

func (l *Ledger) getIndexEntry(state StateDB, owner common.Address, i uint64) common.Hash {
	return state.GetState(l.contract, makeStorageKey(indexPrefix, indexEntryKey(owner, i)))
}

func (l *Ledger) setIndexEntry(state StateDB, owner common.Address, i uint64, id common.Hash) {
	state.SetState(l.contract, makeStorageKey(indexPrefix, indexEntryKey(owner, i)), id)
}

func (l *Ledger) clearIndexEntry(state StateDB, owner common.Address, i uint64) {
	state.SetState(l.contract, makeStorageKey(indexPrefix, indexEntryKey(owner, i)), common.Hash{})
}

// getSlot returns slot+1 of [id] in its owner's index, zero if absent.
func (l *Ledger) getSlot(state StateDB, id common.Hash) uint64 {
	h := state.GetState(l.contract, makeStorageKey(slotPrefix, id[:]))
	return binary.BigEndian.Uint64(h[24:])
}

func (l *Ledger) setSlot(state StateDB, id common.Hash, slotPlusOne uint64) {
	var v common.Hash
	binary.BigEndian.PutUint64(v[24:], slotPlusOne)
	state.SetState(l.contract, makeStorageKey(slotPrefix, id[:]), v)
}
