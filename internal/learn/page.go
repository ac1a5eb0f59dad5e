package learn

import (
	"fmt"
	"strings"

	"github.com/pywhiz/pywhiz/internal/domain"
)

// Page identifies one unit page of a milestone
type Page struct {
	Kind        domain.UnitKind
	MilestoneID string
}

var pagePrefix = map[domain.UnitKind]string{
	domain.UnitVideo:    "learn",
	domain.UnitCode:     "code",
	domain.UnitExercise: "exercise",
}

// LearnPage returns the video page of a milestone
func LearnPage(milestoneID string) Page {
	return Page{Kind: domain.UnitVideo, MilestoneID: milestoneID}
}

// Path renders the page as /learn/<id>, /code/<id> or /exercise/<id>
func (p Page) Path() string {
	return "/" + pagePrefix[p.Kind] + "/" + p.MilestoneID
}

func (p Page) String() string {
	return p.Path()
}

// ParsePage parses a page path
func ParsePage(path string) (Page, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(path), "/"), "/")
	if len(parts) != 2 || parts[1] == "" {
		return Page{}, fmt.Errorf("%w: not a page path %q", domain.ErrInvalidInput, path)
	}
	for kind, prefix := range pagePrefix {
		if parts[0] == prefix {
			return Page{Kind: kind, MilestoneID: parts[1]}, nil
		}
	}
	return Page{}, fmt.Errorf("%w: unknown page %q", domain.ErrInvalidInput, parts[0])
}
