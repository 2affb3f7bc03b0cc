package intra

import (
	"fmt"
	"strings"
	"time"

	"github.com/epitok/epitok/internal/domain/account"
	"github.com/epitok/epitok/internal/domain/attendance"
	"github.com/epitok/epitok/pkg/timeutil"
)

// Intranet URL shapes. They are fixed by the intranet and must not change.

// UserURL is the signed-in profile.
func UserURL(c account.Credential) string {
	return c.URL("/user?format=json")
}

// PlanningURL lists the planning for a single day.
func PlanningURL(c account.Credential, day time.Time) string {
	d := timeutil.FormatDate(day)
	return c.URL(fmt.Sprintf("/planning/load?format=json&start=%s&end=%s", d, d))
}

// RegisteredURL lists the students registered to an event.
func RegisteredURL(c account.Credential, code attendance.Code) string {
	return c.URL(code.Path() + "/registered?format=json")
}

// UpdateRegisteredURL receives bulk presence updates for an event.
func UpdateRegisteredURL(c account.Credential, code attendance.Code) string {
	return c.URL(code.Path() + "/updateregistered?format=json")
}

// PageURL is the browser link to the event's activity page.
func PageURL(baseURL string, code attendance.Code) string {
	return strings.TrimRight(baseURL, "/") + code.PagePath()
}
