// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"encoding/binary"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/farm/types"
)

var (
	errOverflow  = errors.New("uint256 overflow")
	errUnderflow = errors.New("uint256 underflow")
)

// Context binds storage slots to the account that owns them.
type Context struct {
	address types.Address
	state   *State
}

// NewContext creates a storage context of addr.
func NewContext(addr types.Address, st *State) *Context {
	return &Context{address: addr, state: st}
}

// Address returns the owner account.
func (c *Context) Address() types.Address {
	return c.address
}

// State returns the backing state.
func (c *Context) State() *State {
	return c.state
}

// SlotOf derives a fixed slot position from its name.
func SlotOf(name string) types.Bytes32 {
	return types.Keccak256([]byte(name))
}

// Uint256 is an unsigned integer slot bounded to 256 bits, like a contract storage word.
type Uint256 struct {
	ctx *Context
	pos types.Bytes32
}

func NewUint256(ctx *Context, pos types.Bytes32) *Uint256 {
	return &Uint256{ctx: ctx, pos: pos}
}

func (u *Uint256) Get() (*big.Int, error) {
	raw, err := u.ctx.state.GetStorage(u.ctx.address, u.pos)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}

func (u *Uint256) Set(value *big.Int) error {
	if value.Sign() < 0 {
		return errUnderflow
	}
	v, overflow := uint256.FromBig(value)
	if overflow {
		return errOverflow
	}
	if v.IsZero() {
		u.ctx.state.SetStorage(u.ctx.address, u.pos, nil)
	} else {
		u.ctx.state.SetStorage(u.ctx.address, u.pos, v.Bytes())
	}
	return nil
}

func (u *Uint256) Add(delta *big.Int) error {
	v, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(v.Add(v, delta))
}

func (u *Uint256) Sub(delta *big.Int) error {
	v, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(v.Sub(v, delta))
}

// Uint32 holds block numbers.
type Uint32 struct {
	ctx *Context
	pos types.Bytes32
}

func NewUint32(ctx *Context, pos types.Bytes32) *Uint32 {
	return &Uint32{ctx: ctx, pos: pos}
}

func (u *Uint32) Get() (uint32, error) {
	raw, err := u.ctx.state.GetStorage(u.ctx.address, u.pos)
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, nil
	}
	if len(raw) != 4 {
		return 0, errors.Errorf("uint32 slot: invalid length %d", len(raw))
	}
	return binary.BigEndian.Uint32(raw), nil
}

func (u *Uint32) Set(value uint32) {
	if value == 0 {
		u.ctx.state.SetStorage(u.ctx.address, u.pos, nil)
		return
	}
	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], value)
	u.ctx.state.SetStorage(u.ctx.address, u.pos, raw[:])
}

// Bool is a flag slot.
type Bool struct {
	ctx *Context
	pos types.Bytes32
}

func NewBool(ctx *Context, pos types.Bytes32) *Bool {
	return &Bool{ctx: ctx, pos: pos}
}

func (b *Bool) Get() (bool, error) {
	raw, err := b.ctx.state.GetStorage(b.ctx.address, b.pos)
	if err != nil {
		return false, err
	}
	return len(raw) > 0 && raw[0] != 0, nil
}

func (b *Bool) Set(value bool) {
	if value {
		b.ctx.state.SetStorage(b.ctx.address, b.pos, []byte{1})
	} else {
		b.ctx.state.SetStorage(b.ctx.address, b.pos, nil)
	}
}

// Address holds an account address.
type Address struct {
	ctx *Context
	pos types.Bytes32
}

func NewAddress(ctx *Context, pos types.Bytes32) *Address {
	return &Address{ctx: ctx, pos: pos}
}

func (a *Address) Get() (types.Address, error) {
	raw, err := a.ctx.state.GetStorage(a.ctx.address, a.pos)
	if err != nil {
		return types.Address{}, err
	}
	return types.BytesToAddress(raw), nil
}

func (a *Address) Set(value types.Address) {
	if value.IsZero() {
		a.ctx.state.SetStorage(a.ctx.address, a.pos, nil)
		return
	}
	a.ctx.state.SetStorage(a.ctx.address, a.pos, value.Bytes())
}

// Key is the key type of a Mapping.
type Key interface {
	Bytes() []byte
}

// Mapping is a key/value storage abstraction similar to the mapping in Solidity.
// Values are RLP encoded.
type Mapping[K Key, V any] struct {
	ctx     *Context
	basePos types.Bytes32
}

func NewMapping[K Key, V any](ctx *Context, pos types.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{ctx: ctx, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) types.Bytes32 {
	return types.Keccak256(key.Bytes(), m.basePos.Bytes())
}

// Get returns the value of key, or the zero value when unset.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	if reflect.ValueOf(value).Kind() == reflect.Ptr {
		value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
	}
	raw, err := m.ctx.state.GetStorage(m.ctx.address, m.position(key))
	if err != nil {
		return value, err
	}
	if len(raw) == 0 {
		return value, nil
	}
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		return value, errors.Wrap(err, "decode mapping value")
	}
	return value, nil
}

// Set writes the value of key.
func (m *Mapping[K, V]) Set(key K, value V) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return errors.Wrap(err, "encode mapping value")
	}
	m.ctx.state.SetStorage(m.ctx.address, m.position(key), raw)
	return nil
}

// Delete clears the value of key.
func (m *Mapping[K, V]) Delete(key K) {
	m.ctx.state.SetStorage(m.ctx.address, m.position(key), nil)
}
