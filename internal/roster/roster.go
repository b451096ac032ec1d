// Package roster holds the staff roster domain model and the pure
// snapshot comparison logic the reconciler is built around.
package roster

import "sort"

// Snapshot maps a member identity to the grade that member holds.
// Keys are unique and case-sensitive; order carries no meaning.
type Snapshot map[string]string

// Roster is one fetched roster: the member mapping plus the order in
// which the source emitted its grade groups. GradeOrder is first-seen
// order and drives display rendering; it is not persisted.
type Roster struct {
	Members    Snapshot
	GradeOrder []string
}

// GroupByGrade buckets members under their grade, each bucket sorted
// lexicographically by identity.
func GroupByGrade(members Snapshot) map[string][]string {
	grouped := make(map[string][]string)
	for name, grade := range members {
		grouped[grade] = append(grouped[grade], name)
	}
	for _, names := range grouped {
		sort.Strings(names)
	}
	return grouped
}
