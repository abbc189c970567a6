package dlobv1

import orderv1 "github.com/driftmirror/dlob-mirror/internal/domain/order/v1"

// nodeSource is anything that yields OrderNodes one at a time: a NodeList
// snapshot, a merge of several, or a chain of several merges.
type nodeSource interface {
	Next() (*OrderNode, bool)
}

// FilterFunc decides whether a node should be yielded by a merged iterator.
// A nil FilterFunc accepts every node.
type FilterFunc func(*OrderNode) bool

// byEffectivePrice orders nodes by their resolved limit price at oracle/slot,
// ascending for asks and descending for bids, tying on insertion sequence.
// Used to merge resting-limit and floating-limit lists into one price-ordered
// stream.
func byEffectivePrice(oracle orderv1.OraclePriceData, slot uint64, ascending bool) func(a, b *OrderNode) bool {
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
}

// bySlot orders nodes by submission slot ascending, tying on insertion
// sequence. Used to merge taking-limit and market lists, which are matched
// by arrival order rather than price.
func bySlot(a, b *OrderNode) bool {
	if a.Order.Slot != b.Order.Slot {
		return a.Order.Slot < b.Order.Slot
	}
	return a.seq < b.seq
}

// mergedIterator lazily merges several node sources into one, at each step
// yielding whichever head node compares "best" under less, per the
// grounding source's GetBestNode N-way merge. Fully filled nodes and nodes
// rejected by filter are skipped rather than yielded.
type mergedIterator struct {
	sources []nodeSource
	heads   []*OrderNode
	done    []bool
	less    func(a, b *OrderNode) bool
	filter  FilterFunc
}

// mergeIterators builds a mergedIterator over sources, ordered by less.
func mergeIterators(less func(a, b *OrderNode) bool, filter FilterFunc, sources ...nodeSource) *mergedIterator {
	m := &mergedIterator{
		sources: sources,
		heads:   make([]*OrderNode, len(sources)),
		done:    make([]bool, len(sources)),
		less:    less,
		filter:  filter,
	}
	for i, s := range sources {
		node, ok := s.Next()
		if !ok {
			m.done[i] = true
			continue
		}
		m.heads[i] = node
	}
	return m
}

// Next returns the next node across all merged sources in sort order.
func (m *mergedIterator) Next() (*OrderNode, bool) {
	for {
		best := -1
		for i := range m.sources {
			if m.done[i] {
				continue
			}
			if best == -1 || m.less(m.heads[i], m.heads[best]) {
				best = i
			}
		}
		if best == -1 {
			return nil, false
		}

		node := m.heads[best]
		next, ok := m.sources[best].Next()
		if !ok {
			m.done[best] = true
		} else {
			m.heads[best] = next
		}

		if node.IsBaseFilled() {
			continue
		}
		if m.filter != nil && !m.filter(node) {
			continue
		}
		return node, true
	}
}

// chainedIterator drains each source to exhaustion in order before moving to
// the next, rather than merging by comparator. Used where the spec defines
// group precedence (all taking nodes before any resting node) rather than a
// price relationship between groups.
type chainedIterator struct {
	sources []nodeSource
	idx     int
}

func chain(sources ...nodeSource) *chainedIterator {
	return &chainedIterator{sources: sources}
}

func (c *chainedIterator) Next() (*OrderNode, bool) {
	for c.idx < len(c.sources) {
		n, ok := c.sources[c.idx].Next()
		if ok {
			return n, true
		}
		c.idx++
	}
	return nil, false
}

// singleNodeSource yields exactly one node, then is exhausted. Used to splice
// a synthetic fallback/vAMM quote into a merge of real book nodes.
type singleNodeSource struct {
	node *OrderNode
	done bool
}

func singleNode(node *OrderNode) *singleNodeSource {
	return &singleNodeSource{node: node}
}

func (s *singleNodeSource) Next() (*OrderNode, bool) {
	if s == nil || s.done || s.node == nil {
		return nil, false
	}
	s.done = true
	return s.node, true
}

// collect drains src into a slice, optionally stopping once limit nodes have
// been collected (limit <= 0 means unbounded).
func collect(src nodeSource, limit int) []*OrderNode {
	var out []*OrderNode
	for {
		if limit > 0 && len(out) >= limit {
			return out
		}
		n, ok := src.Next()
		if !ok {
			return out
		}
		out = append(out, n)
	}
}

// fallbackNode wraps a raw fallback price into a synthetic OrderNode for
// merge purposes. It is never stored in any NodeList and carries an
// effectively unbounded size, modeling the vAMM/cross-venue abstraction of
// always-available counter-liquidity at the quoted price.
func fallbackNode(price int64, isBid bool) *OrderNode {
	direction := orderv1.DirectionShort
	if isBid {
		direction = orderv1.DirectionLong
	}
	return &OrderNode{
		Classification: ClassificationRestingLimit,
		Order: &orderv1.Order{
			Direction:       direction,
			OrderType:       orderv1.OrderTypeLimit,
			Status:          orderv1.StatusOpen,
			Price:           price,
			BaseAssetAmount: maxFallbackSize,
		},
	}
}

// maxFallbackSize stands in for "unlimited" fallback liquidity.
const maxFallbackSize = int64(1) << 62
