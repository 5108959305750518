package confusables

import (
	"fmt"

	"github.com/agentx/charsoup/internal/errs"
)

// Table is the per-class index-array lookup compiled once for a loaded
// model: classes that belong to a group map to the full set of
// co-members present in that model; everything else maps to a
// singleton containing only itself.
type Table struct {
	members [][]int32
}

// Compile builds a Table against labels (a model's class-index-ordered
// label list) and groups (a symmetric, non-overlapping partition
// declaration). Groups with fewer than two members actually present in
// labels degrade to singletons for those members; a group declared with
// fewer than two distinct tags anywhere, or one tag appearing in more
// than one group, is a malformed declaration and rejected.
func Compile(labels []string, groups [][]string) (*Table, error) {
	index := make(map[string]int32, len(labels))
	for i, l := range labels {
		index[l] = int32(i)
	}

	assigned := make(map[string]int, len(labels))
	members := make([][]int32, len(labels))

	for gi, group := range groups {
		if len(group) < 2 {
			return nil, errs.BadArgument("Compile", fmt.Errorf("group %d has fewer than 2 tags", gi))
		}
		seen := make(map[string]struct{}, len(group))
		for _, tag := range group {
			if _, dup := seen[tag]; dup {
				return nil, errs.BadArgument("Compile", fmt.Errorf("group %d repeats tag %q", gi, tag))
			}
			seen[tag] = struct{}{}
			if prior, ok := assigned[tag]; ok && prior != gi {
				return nil, errs.BadArgument("Compile", fmt.Errorf("tag %q assigned to groups %d and %d", tag, prior, gi))
			}
			assigned[tag] = gi
		}

		var present []int32
		for _, tag := range group {
			if idx, ok := index[tag]; ok {
				present = append(present, idx)
			}
		}
		if len(present) < 2 {
			continue // fewer than two co-members loaded: no grouping effect
		}
		for _, idx := range present {
			members[idx] = present
		}
	}

	for i := range members {
		if members[i] == nil {
			members[i] = []int32{int32(i)}
		}
	}
	return &Table{members: members}, nil
}

// GroupOf returns the set of class indices (including i itself) that
// share a confusable group with class i. For a singleton class this is
// []int32{i}.
func (t *Table) GroupOf(i int32) []int32 { return t.members[i] }

// GroupCount returns the number of distinct multi-member confusable
// groups actually compiled into the table. Singletons (classes with no
// co-member present in the loaded model) are not counted.
func (t *Table) GroupCount() int {
	count := 0
	for i, group := range t.members {
		if len(group) < 2 {
			continue
		}
		min := group[0]
		for _, idx := range group {
			if idx < min {
				min = idx
			}
		}
		if int32(i) == min {
			count++
		}
	}
	return count
}

// SameGroup reports whether a and b are equal or co-members of the same
// declared group.
func (t *Table) SameGroup(a, b int32) bool {
	if a == b {
		return true
	}
	for _, idx := range t.members[a] {
		if idx == b {
			return true
		}
	}
	return false
}

// Collapse redistributes probability mass within each group of size >= 2
// to its top scorer, zeroing the other members. Output length equals
// input length; probs is not mutated.
func Collapse(probs []float32, t *Table) []float32 {
	out := make([]float32, len(probs))
	done := make([]bool, len(probs))
	for i := range probs {
		if done[i] {
			continue
		}
		group := t.GroupOf(int32(i))
		if len(group) == 1 {
			out[i] = probs[i]
			done[i] = true
			continue
		}
		var sum float32
		top := group[0]
		for _, idx := range group {
			sum += probs[idx]
			if probs[idx] > probs[top] {
				top = idx
			}
		}
		for _, idx := range group {
			out[idx] = 0
			done[idx] = true
		}
		out[top] = sum
	}
	return out
}

// IsLenientMatch reports whether predicted is an acceptable answer when
// actual is the true label: exact match, or both members of the same
// compiled group.
func IsLenientMatch(t *Table, actual, predicted int32) bool {
	return t.SameGroup(actual, predicted)
}
