package roster

import (
	"reflect"
	"testing"
)

func TestDiff_ClassifiesEachCategory(t *testing.T) {
	t.Parallel()

	old := Snapshot{"alice": "Admin", "bob": "Helper", "carl": "Helper"}
	current := Snapshot{"alice": "Admin", "carl": "Admin", "dora": "Mod"}

	d := Diff(old, current)

	if got, want := d.Added, []string{"dora"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("added = %v, want %v", got, want)
	}
	if got, want := d.Removed, []string{"bob"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("removed = %v, want %v", got, want)
	}
	want := map[string]GradeChange{"carl": {Old: "Helper", New: "Admin"}}
	if !reflect.DeepEqual(d.Changed, want) {
		t.Fatalf("changed = %v, want %v", d.Changed, want)
	}
}

func TestDiff_CategoriesAreDisjointAndCoverUnion(t *testing.T) {
	t.Parallel()

	old := Snapshot{"a": "g1", "b": "g1", "c": "g1", "d": "g2"}
	current := Snapshot{"a": "g1", "b": "g2", "e": "g1", "f": "g3"}

	d := Diff(old, current)

	seen := map[string]string{}
	record := func(name, category string) {
		t.Helper()
		if prev, dup := seen[name]; dup {
			t.Fatalf("%q classified as both %s and %s", name, prev, category)
		}
		seen[name] = category
	}
	for _, name := range d.Added {
		record(name, "added")
	}
	for _, name := range d.Removed {
		record(name, "removed")
	}
	for name := range d.Changed {
		record(name, "changed")
	}

	union := map[string]bool{}
	for name := range old {
		union[name] = true
	}
	for name := range current {
		union[name] = true
	}
	unchanged := 0
	for name := range union {
		if _, classified := seen[name]; classified {
			continue
		}
		if old[name] != current[name] {
			t.Fatalf("%q unclassified but grades differ (%q vs %q)", name, old[name], current[name])
		}
		unchanged++
	}
	if got := len(seen) + unchanged; got != len(union) {
		t.Fatalf("partition covers %d identities, union has %d", got, len(union))
	}
}

func TestDiff_SymmetricComplementary(t *testing.T) {
	t.Parallel()

	old := Snapshot{"a": "g1", "b": "g1"}
	current := Snapshot{"b": "g2", "c": "g1"}

	forward := Diff(old, current)
	backward := Diff(current, old)

	if !reflect.DeepEqual(forward.Added, backward.Removed) {
		t.Fatalf("forward added %v != backward removed %v", forward.Added, backward.Removed)
	}
	if !reflect.DeepEqual(forward.Removed, backward.Added) {
		t.Fatalf("forward removed %v != backward added %v", forward.Removed, backward.Added)
	}
}

func TestDiff_IdenticalSnapshotsAreEmpty(t *testing.T) {
	t.Parallel()

	snap := Snapshot{"alice": "Helper", "bob": "Admin"}

	d := Diff(snap, snap)

	if !d.Empty() {
		t.Fatalf("diff of identical snapshots not empty: %+v", d)
	}
}

func TestDiff_FirstRunMarksEveryoneAdded(t *testing.T) {
	t.Parallel()

	d := Diff(Snapshot{}, Snapshot{"alice": "Helper", "bob": "Admin"})

	if got, want := d.Added, []string{"alice", "bob"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("added = %v, want %v", got, want)
	}
	if len(d.Removed) != 0 || len(d.Changed) != 0 {
		t.Fatalf("first run produced removed %v changed %v", d.Removed, d.Changed)
	}
}

func TestDiff_EmptyFetchMarksEveryoneRemoved(t *testing.T) {
	t.Parallel()

	d := Diff(Snapshot{"alice": "Helper"}, Snapshot{})

	if got, want := d.Removed, []string{"alice"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("removed = %v, want %v", got, want)
	}
	if len(d.Added) != 0 || len(d.Changed) != 0 {
		t.Fatalf("empty fetch produced added %v changed %v", d.Added, d.Changed)
	}
}
