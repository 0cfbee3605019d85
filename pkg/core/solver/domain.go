package solver

import (
	"fmt"
	"math/bits"
)

// maxDomainSpan bounds the bitset representation. Roster models hold shift
// codes and day counts, so real domains stay tiny.
const maxDomainSpan = 1 << 16

// domain is the remaining value set of one variable, held as a bitset over
// the variable's original bounds.
type domain struct {
	base  int64
	words []uint64
	count int
}

func newDomain(lo, hi int64) (domain, error) {
	span := hi - lo + 1
	if span > maxDomainSpan {
		return domain{}, fmt.Errorf("domain span %d exceeds solver limit %d", span, maxDomainSpan)
	}
	d := domain{base: lo, words: make([]uint64, (span+63)/64), count: int(span)}
	for i := int64(0); i < span; i++ {
		d.words[i/64] |= 1 << uint(i%64)
	}
	return d, nil
}

func (d *domain) clone() domain {
	words := make([]uint64, len(d.words))
	copy(words, d.words)
	return domain{base: d.base, words: words, count: d.count}
}

func (d *domain) span() int64 { return int64(len(d.words)) * 64 }

func (d *domain) has(v int64) bool {
	off := v - d.base
	if off < 0 || off >= d.span() {
		return false
	}
	return d.words[off/64]&(1<<uint(off%64)) != 0
}

func (d *domain) empty() bool { return d.count == 0 }

// single returns the sole remaining value when the domain is a singleton.
func (d *domain) single() (int64, bool) {
	if d.count != 1 {
		return 0, false
	}
	return d.min(), true
}

func (d *domain) min() int64 {
	for i, w := range d.words {
		if w != 0 {
			return d.base + int64(i*64+bits.TrailingZeros64(w))
		}
	}
	return d.base
}

func (d *domain) max() int64 {
	for i := len(d.words) - 1; i >= 0; i-- {
		if d.words[i] != 0 {
			return d.base + int64(i*64+63-bits.LeadingZeros64(d.words[i]))
		}
	}
	return d.base
}

// remove drops one value, reporting whether the domain changed.
func (d *domain) remove(v int64) bool {
	off := v - d.base
	if off < 0 || off >= d.span() {
		return false
	}
	mask := uint64(1) << uint(off%64)
	if d.words[off/64]&mask == 0 {
		return false
	}
	d.words[off/64] &^= mask
	d.count--
	return true
}

// fixTo collapses the domain to one value, reporting whether the value was
// present.
func (d *domain) fixTo(v int64) bool {
	if !d.has(v) {
		d.count = 0
		return false
	}
	for i := range d.words {
		d.words[i] = 0
	}
	off := v - d.base
	d.words[off/64] = 1 << uint(off%64)
	d.count = 1
	return true
}

// removeBelow drops every value smaller than v, reporting change.
func (d *domain) removeBelow(v int64) bool {
	changed := false
	for !d.empty() {
		val := d.min()
		if val >= v {
			break
		}
		d.remove(val)
		changed = true
	}
	return changed
}

// removeAbove drops every value greater than v, reporting change.
func (d *domain) removeAbove(v int64) bool {
	changed := false
	for !d.empty() {
		val := d.max()
		if val <= v {
			break
		}
		d.remove(val)
		changed = true
	}
	return changed
}

// values returns the remaining values in ascending order.
func (d *domain) values() []int64 {
	out := make([]int64, 0, d.count)
	for i, w := range d.words {
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			out = append(out, d.base+int64(i*64+bit))
			w &^= 1 << uint(bit)
		}
	}
	return out
}
