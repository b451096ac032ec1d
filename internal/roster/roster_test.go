package roster

import (
	"reflect"
	"testing"
)

func TestGroupByGrade_SortsMembersWithinGrade(t *testing.T) {
	t.Parallel()

	grouped := GroupByGrade(Snapshot{"a": "Mod", "b": "Admin", "c": "Mod"})

	want := map[string][]string{
		"Mod":   {"a", "c"},
		"Admin": {"b"},
	}
	if !reflect.DeepEqual(grouped, want) {
		t.Fatalf("grouped = %v, want %v", grouped, want)
	}
}

func TestGroupByGrade_EmptySnapshot(t *testing.T) {
	t.Parallel()

	if got := GroupByGrade(Snapshot{}); len(got) != 0 {
		t.Fatalf("expected no groups, got %v", got)
	}
}
