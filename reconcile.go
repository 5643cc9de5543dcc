package weave

// Diff compares two VNode trees and produces the ordered patch stream that
// transforms old into new (spec §4.4). The reconciler never fails: a pair it
// cannot represent incrementally degrades to extra Replace patches, and the
// pipeline falls back to a full layout rebuild if applying them misses a key
// (spec §4.4 "Failure modes", §4.5).
func Diff(old, new *VNode) []Patch {
	var patches []Patch
	diffNode(old, new, &patches)
	return patches
}

// diffNode implements the per-pair algorithm of spec §4.4 steps 1-3, then
// recurses into children via diffChildren.
func diffNode(o, n *VNode, patches *[]Patch) {
	if o.TypeTag() != n.TypeTag() {
		*patches = append(*patches, patchReplace(o.Key, n))
		return
	}
	if !o.Props.Equal(n.Props) {
		*patches = append(*patches, patchUpdate(o.Key, o.Props, n.Props))
	}
	diffChildren(o, n, patches)
}

// diffChildren reconciles one level of children (spec §4.4 step 4), emitting
// patches in the mandated order: updates/recursive patches first (new-child
// walk order), then Removes, then Creates, then at most one Reorder.
func diffChildren(o, n *VNode, patches *[]Patch) {
	oldChildren := o.Children
	newChildren := n.Children

	keyedOld := make(map[any]int, len(oldChildren))
	for i, c := range oldChildren {
		if c.Props.UserKey != nil {
			keyedOld[c.Props.UserKey] = i
		}
	}

	consumedOld := make([]bool, len(oldChildren))
	matchOf := make([]int, len(newChildren)) // old index matched to this new child, or -1

	var recursive []Patch
	var creates []Patch

	for ni, nc := range newChildren {
		matched := -1

		if nc.Props.UserKey != nil {
			if oi, ok := keyedOld[nc.Props.UserKey]; ok && !consumedOld[oi] && oldChildren[oi].TypeTag() == nc.TypeTag() {
				matched = oi
			}
		}

		if matched < 0 && nc.Props.UserKey == nil && ni < len(oldChildren) {
			oc := oldChildren[ni]
			if !consumedOld[ni] && oc.Props.UserKey == nil && oc.TypeTag() == nc.TypeTag() {
				matched = ni
			}
		}

		if matched >= 0 {
			consumedOld[matched] = true
			matchOf[ni] = matched
			diffNode(oldChildren[matched], nc, &recursive)
		} else {
			matchOf[ni] = -1
			creates = append(creates, patchCreate(nc, n.Key))
		}
	}

	var removes []Patch
	for oi, c := range oldChildren {
		if !consumedOld[oi] {
			removes = append(removes, patchRemove(c.Key))
		}
	}

	*patches = append(*patches, recursive...)
	*patches = append(*patches, removes...)
	*patches = append(*patches, creates...)

	if moves := computeReorderMoves(matchOf, len(oldChildren)); len(moves) > 0 {
		*patches = append(*patches, patchReorder(n.Key, moves))
	}
}

// computeReorderMoves computes the minimum list of index-shift moves that
// permutes the post-remove-and-create child array into the new order (spec
// §9 open question: the canonical LIS algorithm, not the source's
// scatter-assignment). Each move means "remove the child at From, reinsert
// it at To" against the array as it stands when that move applies; moves
// compose sequentially.
//
// matchOf[newIdx] is the OLD index matched to that new position, or -1 for
// a brand-new (Create) child. The layout engine applies Create by appending
// to the parent's children (spec §4.5), so the array being permuted is:
// surviving old children in old relative order, then created children in
// creation (new-walk) order. Children on the longest increasing subsequence
// of final positions are pinned and never move; the rest are taken in
// descending target order and each is reinserted directly in front of the
// child whose target is one larger (or at the end for the last position).
// Every child with a larger target is pinned or already placed and in
// order, so the array ends sorted after one move per unpinned child.
func computeReorderMoves(matchOf []int, oldLen int) []Move {
	var perm []int // final new index per post-array position
	for oi := 0; oi < oldLen; oi++ {
		for ni, m := range matchOf {
			if m == oi {
				perm = append(perm, ni)
				break
			}
		}
	}
	for ni, m := range matchOf {
		if m < 0 {
			perm = append(perm, ni)
		}
	}

	pinned := longestIncreasingSubsequence(perm)
	isPinned := make([]bool, len(perm))
	for _, i := range pinned {
		isPinned[i] = true
	}

	var targets []int
	for i, p := range perm {
		if !isPinned[i] {
			targets = append(targets, p)
		}
	}
	// Descending final position: each insertion lands in front of an
	// already-ordered successor.
	sortDescending(targets)

	arr := append([]int(nil), perm...)
	var moves []Move
	for _, target := range targets {
		from := -1
		for i, v := range arr {
			if v == target {
				from = i
				break
			}
		}
		if from < 0 {
			continue
		}
		v := arr[from]
		arr = append(arr[:from], arr[from+1:]...)
		to := len(arr)
		for i, w := range arr {
			if w == target+1 {
				to = i
				break
			}
		}
		arr = append(arr, 0)
		copy(arr[to+1:], arr[to:])
		arr[to] = v
		if to != from {
			moves = append(moves, Move{From: from, To: to})
		}
	}
	return moves
}

func sortDescending(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] > s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// longestIncreasingSubsequence returns the indices (into seq) of one longest
// strictly-increasing subsequence, using the standard O(n log n) patience-
// sorting algorithm. Those indices are the elements that can stay put.
func longestIncreasingSubsequence(seq []int) []int {
	n := len(seq)
	if n == 0 {
		return nil
	}

	tails := make([]int, 0, n)      // tails[k] = index into seq of smallest tail of an increasing run of length k+1
	prev := make([]int, n)          // predecessor index for reconstruction
	for i := range prev {
		prev[i] = -1
	}

	for i, v := range seq {
		// binary search for first tails entry whose seq value >= v
		lo, hi := 0, len(tails)
		for lo < hi {
			mid := (lo + hi) / 2
			if seq[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo > 0 {
			prev[i] = tails[lo-1]
		}
		if lo == len(tails) {
			tails = append(tails, i)
		} else {
			tails[lo] = i
		}
	}

	if len(tails) == 0 {
		return nil
	}

	result := make([]int, len(tails))
	k := tails[len(tails)-1]
	for i := len(tails) - 1; i >= 0; i-- {
		result[i] = k
		k = prev[k]
	}
	return result
}
