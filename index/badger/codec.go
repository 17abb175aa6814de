// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"errors"
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/brandmatch/core"
	"github.com/poiesic/brandmatch/index"
)

// ErrCorruptValue indicates a stored value that could not be decoded.
var ErrCorruptValue = errors.New("corrupt stored value")

// collection is the descriptor stored under the collection key.
type collection struct {
	Name      string
	Dimension int
	Metric    index.Metric
}

func sizeCollection(c collection) int {
	return ord.String.Size(c.Name) +
		varint.Int64.Size(int64(c.Dimension)) +
		ord.String.Size(string(c.Metric))
}

func marshalCollection(c collection) []byte {
	buf := make([]byte, sizeCollection(c))
	n := ord.String.Marshal(c.Name, buf)
	n += varint.Int64.Marshal(int64(c.Dimension), buf[n:])
	ord.String.Marshal(string(c.Metric), buf[n:])
	return buf
}

func unmarshalCollection(bs []byte) (collection, error) {
	var c collection
	d := decoder{bs: bs}
	c.Name = d.string()
	c.Dimension = int(d.int64())
	c.Metric = index.Metric(d.string())
	return c, d.finish()
}

// entries are encoded as: id, vector length, vector values, metadata.
// Optional metadata fields carry a presence flag.

func sizeEntry(e *core.IndexEntry) int {
	size := ord.String.Size(e.ID)
	size += varint.Int64.Size(int64(len(e.Vector)))
	for _, v := range e.Vector {
		size += raw.Float32.Size(v)
	}
	m := e.Metadata
	size += ord.String.Size(m.Name)
	size += sizeOptString(m.Category)
	size += sizeOptString(m.Description)
	size += sizeOptInt64(m.Followers)
	size += sizeOptString(m.Region)
	size += sizeOptInt64(intToInt64(m.Founded))
	size += sizeOptString(m.PriceLevel)
	return size
}

func marshalEntry(e *core.IndexEntry) []byte {
	buf := make([]byte, sizeEntry(e))
	n := ord.String.Marshal(e.ID, buf)
	n += varint.Int64.Marshal(int64(len(e.Vector)), buf[n:])
	for _, v := range e.Vector {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	m := e.Metadata
	n += ord.String.Marshal(m.Name, buf[n:])
	n += marshalOptString(m.Category, buf[n:])
	n += marshalOptString(m.Description, buf[n:])
	n += marshalOptInt64(m.Followers, buf[n:])
	n += marshalOptString(m.Region, buf[n:])
	n += marshalOptInt64(intToInt64(m.Founded), buf[n:])
	marshalOptString(m.PriceLevel, buf[n:])
	return buf
}

func unmarshalEntry(bs []byte) (*core.IndexEntry, error) {
	d := decoder{bs: bs}
	e := &core.IndexEntry{ID: d.string()}

	length := d.int64()
	if d.err == nil && (length < 0 || length > int64(len(bs))) {
		return nil, fmt.Errorf("%w: vector length %d", ErrCorruptValue, length)
	}
	e.Vector = make([]float32, int(length))
	for i := range e.Vector {
		e.Vector[i] = d.float32()
	}

	e.Metadata.Name = d.string()
	e.Metadata.Category = d.optString()
	e.Metadata.Description = d.optString()
	e.Metadata.Followers = d.optInt64()
	e.Metadata.Region = d.optString()
	if founded := d.optInt64(); founded != nil {
		year := int(*founded)
		e.Metadata.Founded = &year
	}
	e.Metadata.PriceLevel = d.optString()

	if err := d.finish(); err != nil {
		return nil, err
	}
	return e, nil
}

func intToInt64(v *int) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}

func sizeOptString(v *string) int {
	if v == nil {
		return ord.Bool.Size(false)
	}
	return ord.Bool.Size(true) + ord.String.Size(*v)
}

func marshalOptString(v *string, bs []byte) int {
	if v == nil {
		return ord.Bool.Marshal(false, bs)
	}
	n := ord.Bool.Marshal(true, bs)
	return n + ord.String.Marshal(*v, bs[n:])
}

func sizeOptInt64(v *int64) int {
	if v == nil {
		return ord.Bool.Size(false)
	}
	return ord.Bool.Size(true) + varint.Int64.Size(*v)
}

func marshalOptInt64(v *int64, bs []byte) int {
	if v == nil {
		return ord.Bool.Marshal(false, bs)
	}
	n := ord.Bool.Marshal(true, bs)
	return n + varint.Int64.Marshal(*v, bs[n:])
}

// decoder reads values in order and keeps the first error.
type decoder struct {
	bs  []byte
	n   int
	err error
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.bs[d.n:])
	d.advance(n, err)
	return v
}

func (d *decoder) bool() bool {
	if d.err != nil {
		return false
	}
	v, n, err := ord.Bool.Unmarshal(d.bs[d.n:])
	d.advance(n, err)
	return v
}

func (d *decoder) int64() int64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(d.bs[d.n:])
	d.advance(n, err)
	return v
}

func (d *decoder) float32() float32 {
	if d.err != nil {
		return 0
	}
	v, n, err := raw.Float32.Unmarshal(d.bs[d.n:])
	d.advance(n, err)
	return v
}

func (d *decoder) optString() *string {
	if !d.bool() {
		return nil
	}
	v := d.string()
	return &v
}

func (d *decoder) optInt64() *int64 {
	if !d.bool() {
		return nil
	}
	v := d.int64()
	return &v
}

func (d *decoder) advance(n int, err error) {
	if err != nil {
		d.err = fmt.Errorf("%w: %w", ErrCorruptValue, err)
		return
	}
	d.n += n
}

func (d *decoder) finish() error {
	if d.err != nil {
		return d.err
	}
	if d.n != len(d.bs) {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorruptValue, len(d.bs)-d.n)
	}
	return nil
}
