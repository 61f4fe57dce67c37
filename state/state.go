// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/vechain/farm/kv"
	"github.com/vechain/farm/types"
)

const storageBucket = kv.Bucket("s")

// State is the storage of every account of the farm: the ledger, the tokens and the
// access gates. Writes are kept in a journal until Commit, so a failed call can be
// reverted to any checkpoint taken before it.
type State struct {
	store   kv.Store
	cache   *lru.Cache // committed values
	journal *journal
}

// New creates a state on top of the given store.
func New(store kv.Store) *State {
	cache, _ := lru.New(4096)
	return &State{
		store:   store,
		cache:   cache,
		journal: newJournal(),
	}
}

func storageKey(addr types.Address, key types.Bytes32) []byte {
	k := make([]byte, 0, len(storageBucket)+types.AddressLength+32)
	k = append(k, storageBucket...)
	k = append(k, addr[:]...)
	return append(k, key[:]...)
}

// GetStorage returns the raw value stored at key of addr. Empty means unset.
func (s *State) GetStorage(addr types.Address, key types.Bytes32) ([]byte, error) {
	k := storageKey(addr, key)
	if v, ok := s.journal.get(string(k)); ok {
		return v, nil
	}
	if v, ok := s.cache.Get(string(k)); ok {
		return v.([]byte), nil
	}

	v, err := s.store.Get(k)
	if err != nil {
		if !s.store.IsNotFound(err) {
			return nil, errors.Wrap(err, "get storage")
		}
		v = nil
	}
	s.cache.Add(string(k), v)
	return v, nil
}

// SetStorage writes a raw value at key of addr. An empty value clears the slot.
func (s *State) SetStorage(addr types.Address, key types.Bytes32, val []byte) {
	s.journal.put(string(storageKey(addr, key)), append([]byte(nil), val...))
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.journal.push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.journal.popTo(revision)
}

// Dirty returns whether there are uncommitted writes.
func (s *State) Dirty() bool {
	return len(s.journal.revs) > 0
}

// Commit flushes all uncommitted writes to the store in one batch.
func (s *State) Commit() error {
	batch := s.store.NewBatch()
	var err error
	s.journal.changes(func(key string, val []byte) {
		if err != nil {
			return
		}
		if len(val) == 0 {
			err = batch.Delete([]byte(key))
		} else {
			err = batch.Put([]byte(key), val)
		}
	})
	if err != nil {
		return errors.Wrap(err, "commit state")
	}
	if batch.Len() > 0 {
		if err := batch.Write(); err != nil {
			return errors.Wrap(err, "commit state")
		}
	}

	s.journal.changes(func(key string, val []byte) {
		s.cache.Add(key, val)
	})
	s.journal.reset()
	return nil
}

// Discard drops all uncommitted writes.
func (s *State) Discard() {
	s.journal.reset()
}

// Size returns the number of committed storage entries.
func (s *State) Size() (int, error) {
	it := s.store.Iterate(storageBucket.Range())
	defer it.Release()

	n := 0
	for it.Next() {
		n++
	}
	if err := it.Error(); err != nil {
		return 0, errors.Wrap(err, "iterate storage")
	}
	return n, nil
}
