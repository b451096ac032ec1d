package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/staffwatch/staffwatch/internal/discord"
	"github.com/staffwatch/staffwatch/internal/roster"
)

// absentGrade stands in for a grade that does not exist on either side
// of a transition: a member joining the roster, or one whose current
// rank could not be resolved after leaving it.
const absentGrade = "N/A"

// FormatDisplay renders the persistent roster message: members grouped
// by grade, grades in the order the source emitted them, members
// sorted within each grade.
func FormatDisplay(current roster.Roster) string {
	grouped := roster.GroupByGrade(current.Members)

	order := make([]string, 0, len(grouped))
	seen := map[string]bool{}
	for _, grade := range current.GradeOrder {
		if _, ok := grouped[grade]; ok && !seen[grade] {
			order = append(order, grade)
			seen[grade] = true
		}
	}
	// Grades the fetch order does not cover (callers rendering a bare
	// snapshot) go last, alphabetically.
	rest := make([]string, 0)
	for grade := range grouped {
		if !seen[grade] {
			rest = append(rest, grade)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)

	var b strings.Builder
	b.WriteString("__Staff roster:__\n\n")
	for _, grade := range order {
		members := grouped[grade]
		fmt.Fprintf(&b, "**%s [%d]**:\n", strings.ToUpper(grade), len(members))
		for _, member := range members {
			fmt.Fprintf(&b, "- ``%s``\n", member)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatAlert renders the change announcement. Every line is a grade
// transition; categories and the lines within them are ordered by
// identity so a given diff always renders the same message.
func FormatAlert(diff roster.DiffResult, previous, current roster.Snapshot, removedGrades map[string]string, roleID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Staff update** | %s :bust_in_silhouette:\n\n", discord.RoleMention(roleID))

	for _, name := range diff.Added {
		writeTransition(&b, name, absentGrade, gradeOrAbsent(current[name]))
	}
	for _, name := range diff.Removed {
		writeTransition(&b, name, gradeOrAbsent(previous[name]), gradeOrAbsent(removedGrades[name]))
	}
	changed := make([]string, 0, len(diff.Changed))
	for name := range diff.Changed {
		changed = append(changed, name)
	}
	sort.Strings(changed)
	for _, name := range changed {
		change := diff.Changed[name]
		writeTransition(&b, name, change.Old, change.New)
	}

	return b.String()
}

func writeTransition(b *strings.Builder, name, from, to string) {
	fmt.Fprintf(b, "``%s`` moves from **%s** to **%s**.\n", name, from, to)
}

func gradeOrAbsent(grade string) string {
	if grade == "" {
		return absentGrade
	}
	return grade
}
