package dlobv1

import (
	"sort"

	orderv1 "github.com/driftmirror/dlob-mirror/internal/domain/order/v1"
)

// Side distinguishes which side of a two-sided NodeList pair a node sits on.
// It is meaningless for the two trigger lists, which are single-sided.
type Side int

const (
	SideBid Side = iota
	SideAsk
)

// NodeList is an ordered bucket of OrderNodes sharing one Classification and
// Side. It does not keep itself continuously sorted, because the comparison
// key for price-ordered lists (the effective limit price) depends on the
// oracle observation and slot supplied at read time and can drift between
// writes. Instead it holds nodes in arbitrary order and produces a freshly
// sorted, restartable Iterator on demand.
type NodeList struct {
	classification Classification
	side           Side

	nodes   []*OrderNode
	index   map[orderv1.Key]int
	nextSeq uint64
}

func newNodeList(classification Classification, side Side) *NodeList {
	return &NodeList{
		classification: classification,
		side:           side,
		index:          make(map[orderv1.Key]int),
	}
}

// Len returns the number of nodes currently in the list.
func (nl *NodeList) Len() int {
	return len(nl.nodes)
}

// Insert adds o to the list as a new node and returns it. The caller is
// responsible for ensuring o is not already present in this or any other
// list for the same key.
func (nl *NodeList) Insert(o *orderv1.Order) *OrderNode {
	node := &OrderNode{
		Order:          o,
		Classification: nl.classification,
		seq:            nl.nextSeq,
	}
	nl.nextSeq++
	nl.nodes = append(nl.nodes, node)
	nl.index[o.Key()] = len(nl.nodes) - 1
	return node
}

// Get returns the node for key, if present.
func (nl *NodeList) Get(key orderv1.Key) (*OrderNode, bool) {
	idx, ok := nl.index[key]
	if !ok {
		return nil, false
	}
	return nl.nodes[idx], true
}

// Remove deletes the node for key from the list, preserving the seq of any
// remaining nodes. Returns false if the key was not present.
func (nl *NodeList) Remove(key orderv1.Key) bool {
	idx, ok := nl.index[key]
	if !ok {
		return false
	}
	last := len(nl.nodes) - 1
	nl.nodes[idx] = nl.nodes[last]
	nl.index[nl.nodes[idx].Key()] = idx
	nl.nodes = nl.nodes[:last]
	delete(nl.index, key)
	return true
}

// Each calls fn for every node currently in the list, in no particular
// order. Used for bulk maintenance scans that don't need price ordering.
func (nl *NodeList) Each(fn func(*OrderNode)) {
	for _, n := range nl.nodes {
		fn(n)
	}
}

// Iterator returns a restartable forward iterator over a sorted snapshot of
// the list's current contents, ordered per the list's Classification and
// Side. Mutating the NodeList after obtaining an iterator does not affect
// nodes already snapshotted into it.
func (nl *NodeList) Iterator(oracle orderv1.OraclePriceData, slot uint64) *NodeIterator {
	snapshot := make([]*OrderNode, len(nl.nodes))
	copy(snapshot, nl.nodes)

	less := nl.comparator(oracle, slot)
	sort.SliceStable(snapshot, func(i, j int) bool {
		return less(snapshot[i], snapshot[j])
	})
	return &NodeIterator{nodes: snapshot}
}

// comparator returns the ordering predicate for this list's classification
// and side, evaluated against a fixed oracle/slot observation.
func (nl *NodeList) comparator(oracle orderv1.OraclePriceData, slot uint64) func(a, b *OrderNode) bool {
	switch nl.classification {
	case ClassificationRestingLimit, ClassificationFloatingLimit:
		ascending := nl.side == SideAsk
		return func(a, b *OrderNode) bool {
			pa, aOK := a.EffectivePrice(oracle, slot)
			pb, bOK := b.EffectivePrice(oracle, slot)
			if aOK && bOK && pa != pb {
				if ascending {
					return pa < pb
				}
				return pa > pb
			}
			return a.seq < b.seq
		}
	case ClassificationTakingLimit, ClassificationMarket:
		return func(a, b *OrderNode) bool {
			if a.Order.Slot != b.Order.Slot {
				return a.Order.Slot < b.Order.Slot
			}
			return a.seq < b.seq
		}
	case ClassificationTriggerAbove:
		return func(a, b *OrderNode) bool {
			if a.Order.TriggerPrice != b.Order.TriggerPrice {
				return a.Order.TriggerPrice < b.Order.TriggerPrice
			}
			return a.seq < b.seq
		}
	case ClassificationTriggerBelow:
		return func(a, b *OrderNode) bool {
			if a.Order.TriggerPrice != b.Order.TriggerPrice {
				return a.Order.TriggerPrice > b.Order.TriggerPrice
			}
			return a.seq < b.seq
		}
	default:
		return func(a, b *OrderNode) bool { return a.seq < b.seq }
	}
}

// NodeIterator is a one-shot forward cursor over a NodeList snapshot. It is
// cheap to discard; obtain a new one from NodeList.Iterator to restart.
type NodeIterator struct {
	nodes []*OrderNode
	pos   int
}

// Next returns the next node in the iterator and advances it, or (nil,
// false) once exhausted.
func (it *NodeIterator) Next() (*OrderNode, bool) {
	if it == nil || it.pos >= len(it.nodes) {
		return nil, false
	}
	n := it.nodes[it.pos]
	it.pos++
	return n, true
}
