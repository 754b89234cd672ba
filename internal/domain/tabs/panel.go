package tabs

import (
	"errors"
	"strings"
)

type Tab string

const (
	Reviews     Tab = "Reviews"
	MakeAReview Tab = "Make a Review"
	Shipping    Tab = "Shipping"
	Details     Tab = "Details"
)

var ErrUnknownTab = errors.New("unknown tab")

// All lists the tabs in display order.
var All = []Tab{Reviews, MakeAReview, Shipping, Details}

// Slug is the URL form of the tab label.
func (t Tab) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(t)), " ", "-")
}

// ParseTab accepts a label ("Make a Review") or a slug ("make-a-review").
func ParseTab(s string) (Tab, error) {
	for _, t := range All {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s, t.Slug()) {
			return t, nil
		}
	}
	return "", ErrUnknownTab
}

// Panel tracks which tab is shown. Hidden tabs keep their state.
type Panel struct {
	selected Tab
}

func NewPanel() *Panel {
	return &Panel{selected: Reviews}
}

func (p *Panel) Select(t Tab) {
	p.selected = t
}

func (p *Panel) Selected() Tab {
	return p.selected
}

func (p *Panel) IsSelected(t Tab) bool {
	return p.selected == t
}
