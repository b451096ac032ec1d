package roster

import "sort"

// GradeChange records one member's grade transition between snapshots.
type GradeChange struct {
	Old string
	New string
}

// DiffResult partitions the key union of two snapshots: Added holds
// identities present only in the new snapshot, Removed identities
// present only in the old one, and Changed the shared identities whose
// grade differs. The three categories are pairwise disjoint.
type DiffResult struct {
	Added   []string
	Removed []string
	Changed map[string]GradeChange
}

// Empty reports whether the two snapshots were equivalent.
func (d DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Diff compares a previous snapshot against a fresh one. It is pure and
// deterministic: Added and Removed are sorted by identity.
func Diff(old, current Snapshot) DiffResult {
	result := DiffResult{Changed: make(map[string]GradeChange)}
	for name, grade := range current {
		oldGrade, ok := old[name]
		switch {
		case !ok:
			result.Added = append(result.Added, name)
		case oldGrade != grade:
			result.Changed[name] = GradeChange{Old: oldGrade, New: grade}
		}
	}
	for name := range old {
		if _, ok := current[name]; !ok {
			result.Removed = append(result.Removed, name)
		}
	}
	sort.Strings(result.Added)
	sort.Strings(result.Removed)
	return result
}
