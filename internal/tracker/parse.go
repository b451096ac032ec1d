package tracker

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/staffwatch/staffwatch/internal/roster"
)

// Selectors for the tracker page structure. Members are grouped under
// rank sections; each member row carries the identity in the title
// attribute of its heading.
const (
	rankGroupSelector   = ".staff-rank-group"
	rankTitleSelector   = ".staff-rank-title"
	memberInfoSelector  = ".staff-info"
	memberNameSelector  = "h3"
	profileRankSelector = ".custom-rank-color"
)

// parseRoster extracts the full roster from the tracker front page,
// preserving the order in which grade groups appear. A page with no
// rank groups at all is treated as a structural change, not an empty
// roster.
func parseRoster(page io.Reader) (roster.Roster, error) {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return roster.Roster{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	fetched := roster.Roster{Members: roster.Snapshot{}}
	seenGrades := map[string]bool{}

	groups := doc.Find(rankGroupSelector)
	if groups.Length() == 0 {
		return roster.Roster{}, fmt.Errorf("%w: no rank groups found", ErrParse)
	}

	groups.Each(func(_ int, group *goquery.Selection) {
		grade := strings.TrimSpace(group.Find(rankTitleSelector).First().Text())
		if grade == "" {
			return
		}
		group.Find(memberInfoSelector).Each(func(_ int, info *goquery.Selection) {
			name, ok := info.Find(memberNameSelector).First().Attr("title")
			if !ok || strings.TrimSpace(name) == "" {
				return
			}
			fetched.Members[name] = grade
			if !seenGrades[grade] {
				seenGrades[grade] = true
				fetched.GradeOrder = append(fetched.GradeOrder, grade)
			}
		})
	})

	return fetched, nil
}

// parseMemberGrade extracts the rank label from a member profile page.
// An empty result means the profile carries no rank.
func parseMemberGrade(page io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}
	return strings.TrimSpace(doc.Find(profileRankSelector).First().Text()), nil
}
