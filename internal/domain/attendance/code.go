package attendance

import (
	"strings"

	"github.com/epitok/epitok/internal/domain/shared"
)

// Code identifies an event on the intranet. All five components are
// required; together they address both the API and the activity page.
type Code struct {
	Year     string // scolaryear, e.g. "2020"
	Module   string // codemodule, e.g. "B-INN-000"
	Instance string // codeinstance, e.g. "PAR-0-1"
	Activity string // codeacti, e.g. "acti-123456"
	Event    string // codeevent, e.g. "event-654321"
}

// NewCode validates that every component is present.
func NewCode(year, module, instance, activity, event string) (Code, error) {
	c := Code{
		Year:     year,
		Module:   module,
		Instance: instance,
		Activity: activity,
		Event:    event,
	}
	if !c.IsValid() {
		return Code{}, shared.ErrEventURL
	}
	return c, nil
}

// IsValid returns true if no component is blank.
func (c Code) IsValid() bool {
	for _, part := range []string{c.Year, c.Module, c.Instance, c.Activity, c.Event} {
		if strings.TrimSpace(part) == "" {
			return false
		}
	}
	return true
}

// PagePath is the activity page an operator opens in a browser:
// "/module/<year>/<module>/<instance>/<activity>".
func (c Code) PagePath() string {
	return "/module/" + c.Year + "/" + c.Module + "/" + c.Instance + "/" + c.Activity
}

// Path is the event's API path, the page path plus the event segment.
func (c Code) Path() string {
	return c.PagePath() + "/" + c.Event
}

// String returns the API path.
func (c Code) String() string {
	return c.Path()
}
