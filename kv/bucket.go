// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket provides logical bucket for kv store.
type Bucket string

// Key returns the full key of k inside the bucket.
func (b Bucket) Key(k []byte) []byte {
	return append(append(make([]byte, 0, len(b)+len(k)), b...), k...)
}

// Get reads the value of k from src.
func (b Bucket) Get(src Getter, k []byte) ([]byte, error) {
	return src.Get(b.Key(k))
}

// Put writes the value of k into dst.
func (b Bucket) Put(dst Putter, k, v []byte) error {
	return dst.Put(b.Key(k), v)
}

// Range returns the key range covering every key in the bucket.
func (b Bucket) Range() Range {
	start := []byte(b)
	var limit []byte
	for i := len(start) - 1; i >= 0; i-- {
		if c := start[i]; c < 0xff {
			limit = make([]byte, i+1)
			copy(limit, start)
			limit[i] = c + 1
			break
		}
	}
	return Range{Start: start, Limit: limit}
}
