// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

// journal maintains uncommitted writes in a stack of levels.
// Each level sees the values written by lower levels, and popping a level
// reverts every write made since it was pushed.
type journal struct {
	levels []map[string][]byte
	// revisions of each key, i.e. indexes of levels holding a value for it
	revs map[string][]int
}

func newJournal() *journal {
	return &journal{
		levels: []map[string][]byte{{}},
		revs:   make(map[string][]int),
	}
}

// depth returns depth of stack.
func (j *journal) depth() int {
	return len(j.levels)
}

// push pushes a new level, and returns the depth before push.
func (j *journal) push() int {
	j.levels = append(j.levels, map[string][]byte{})
	return len(j.levels) - 1
}

// popTo pops levels until depth reaches the given value. The base level is never popped.
func (j *journal) popTo(depth int) {
	if depth < 1 {
		depth = 1
	}
	for len(j.levels) > depth {
		top := j.levels[len(j.levels)-1]
		for key := range top {
			revs := j.revs[key]
			revs = revs[:len(revs)-1]
			if len(revs) == 0 {
				delete(j.revs, key)
			} else {
				j.revs[key] = revs
			}
		}
		j.levels = j.levels[:len(j.levels)-1]
	}
}

// get returns the latest uncommitted value of key.
func (j *journal) get(key string) ([]byte, bool) {
	if revs, ok := j.revs[key]; ok {
		return j.levels[revs[len(revs)-1]][key], true
	}
	return nil, false
}

// put writes the value at the top level.
func (j *journal) put(key string, val []byte) {
	rev := len(j.levels) - 1
	top := j.levels[rev]
	if _, ok := top[key]; !ok {
		j.revs[key] = append(j.revs[key], rev)
	}
	top[key] = val
}

// changes calls fn with the latest value of every dirty key.
func (j *journal) changes(fn func(key string, val []byte)) {
	for key, revs := range j.revs {
		fn(key, j.levels[revs[len(revs)-1]][key])
	}
}

// reset drops everything.
func (j *journal) reset() {
	j.levels = []map[string][]byte{{}}
	j.revs = make(map[string][]int)
}
