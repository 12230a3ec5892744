package chain

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"github.com/petalcoin/gossipcoin/utxo"
)

// enterForkResolution runs the fork-resolution algorithm of §4.D for a
// single newly-arrived block: add it to the loser pool, coalesce
// compatible segments to a fixed point, then try to promote the longest
// qualifying segment.
func (s *Store) enterForkResolution(b Block) {
	s.addToLosers(b)
	s.coalesce()
	s.pruneRedundant()
	s.tryPromote()
}

// addToLosers inserts the singleton segment [B], plus any extension of an
// existing segment that B continues from either end, per §4.D. Originals
// are retained so later blocks can still extend them.
func (s *Store) addToLosers(b Block) {
	existing := s.losers
	additions := []Segment{{b}}

	for _, seg := range existing {
		if b.PreviousBlock == seg.Last().ID {
			extended := make(Segment, 0, len(seg)+1)
			extended = append(extended, seg...)
			extended = append(extended, b)
			additions = append(additions, extended)
		}
		if seg.First().PreviousBlock == b.ID {
			extended := make(Segment, 0, len(seg)+1)
			extended = append(extended, b)
			extended = append(extended, seg...)
			additions = append(additions, extended)
		}
	}

	s.losers = append(s.losers, dedupSegments(additions)...)
}

// coalesce merges every ordered pair of segments (S, T) where S's last
// block is T's first block's parent, running to a fixed point: each
// round may produce new merged segments that themselves merge further.
func (s *Store) coalesce() {
	for {
		current := s.losers
		var additions []Segment

		for _, left := range current {
			for _, right := range current {
				if left.Last().ID == right.First().PreviousBlock {
					merged := make(Segment, 0, len(left)+len(right))
					merged = append(merged, left...)
					merged = append(merged, right...)
					additions = append(additions, merged)
				}
			}
		}

		newOnes := dedupAgainst(additions, s.losers)
		if len(newOnes) == 0 {
			return
		}
		s.losers = append(s.losers, newOnes...)
	}
}

// pruneRedundant drops any segment that is exactly the suffix main
// already has at the corresponding position: such a segment carries no
// competing information, and §8 invariant 4 requires no loser segment be
// a prefix of main.
func (s *Store) pruneRedundant() {
	kept := s.losers[:0:0]
	for _, seg := range s.losers {
		if !s.isMainSuffix(seg) {
			kept = append(kept, seg)
		}
	}
	s.losers = kept
}

func (s *Store) isMainSuffix(seg Segment) bool {
	p, found := s.indexInMain(seg.First().PreviousBlock)
	if !found {
		return false
	}
	for i, b := range seg {
		pos := p + 1 + i
		if pos >= len(s.main) || s.main[pos].ID != b.ID {
			return false
		}
	}
	return true
}

// indexInMain returns the position of the block with the given id in
// main. The genesis sentinel (zero id) matches position -1, representing
// "before the first block."
func (s *Store) indexInMain(id BlockID) (int, bool) {
	if id == uuid.Nil {
		return -1, true
	}
	for i, b := range s.main {
		if b.ID == id {
			return i, true
		}
	}
	return 0, false
}

// tryPromote looks for a loser segment whose alternative reaches strictly
// further past its fork point than main's current suffix, and if found,
// swaps it onto main, demoting main's displaced suffix into a new loser
// segment and rebuilding the ledger from the new main (§4.D).
func (s *Store) tryPromote() {
	height := len(s.main)

	for i, seg := range s.losers {
		if len(seg) < 2 {
			continue
		}

		parentID := seg.First().PreviousBlock
		var p int
		var found bool
		if parentID == uuid.Nil {
			p, found = -1, true
		} else {
			p, found = s.indexInMain(parentID)
		}
		if !found {
			continue
		}

		currentSuffixLen := height - p - 1
		if len(seg) <= currentSuffixLen {
			continue // equal length or shorter: keep current main (tie-break)
		}

		s.promote(seg, p, i)
		return
	}
}

// promote replaces main's suffix after index p with seg, demotes the
// displaced blocks into a new loser segment, removes seg from the pool
// and rebuilds the ledger from the new main.
func (s *Store) promote(seg Segment, p int, segIdx int) {
	var displaced Segment
	if p+1 < len(s.main) {
		displaced = append(Segment{}, s.main[p+1:]...)
	}

	newMain := make([]Block, 0, p+1+len(seg))
	newMain = append(newMain, s.main[:p+1]...)
	newMain = append(newMain, seg...)
	s.main = newMain

	s.losers = append(s.losers[:segIdx], s.losers[segIdx+1:]...)
	if len(displaced) > 0 {
		s.losers = append(s.losers, displaced)
	}

	s.rebuildLedger()
	s.pruneRedundant()
	s.markTipChanged()
}

// rebuildLedger replays main from scratch. This is the "simplest correct
// implementation" the spec calls for when fee conservation across a fork
// promotion isn't otherwise fully specified (Design Notes, open
// questions).
func (s *Store) rebuildLedger() {
	fresh := utxo.New()
	for _, b := range s.main {
		for _, tx := range b.Transactions {
			if err := fresh.Apply(tx.Inputs, tx.Outputs); err != nil {
				panic(ErrInvariantViolation.Error() + ": rebuilding ledger: " + err.Error())
			}
		}
		fresh.Insert(b.Mine)
	}
	s.ledger = fresh
}

func segmentKey(seg Segment) string {
	var sb strings.Builder
	for _, b := range seg {
		sb.WriteString(hex.EncodeToString(b.ID[:]))
		sb.WriteByte('|')
	}
	return sb.String()
}

func dedupSegments(segs []Segment) []Segment {
	seen := make(map[string]struct{}, len(segs))
	out := make([]Segment, 0, len(segs))
	for _, seg := range segs {
		k := segmentKey(seg)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, seg)
	}
	return out
}

func dedupAgainst(candidates []Segment, existing []Segment) []Segment {
	seen := make(map[string]struct{}, len(existing))
	for _, seg := range existing {
		seen[segmentKey(seg)] = struct{}{}
	}
	var out []Segment
	for _, seg := range candidates {
		k := segmentKey(seg)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, seg)
	}
	return out
}
