package attendance

import (
	"net/url"
	"strconv"
	"strings"
)

// FormField is one key/value pair of an upload body.
type FormField struct {
	Key   string
	Value string
}

// Form is an ordered list of form fields. Order is kept when encoding.
type Form []FormField

// Encode returns the application/x-www-form-urlencoded body in field order.
func (f Form) Encode() string {
	var b strings.Builder
	for i, field := range f {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(field.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(field.Value))
	}
	return b.String()
}

// Upload keys expected by the intranet's bulk update endpoint.
func loginKey(i int) string    { return "items[" + strconv.Itoa(i) + "][login]" }
func presenceKey(i int) string { return "items[" + strconv.Itoa(i) + "][present]" }

// RosterToWire encodes students as the intranet's bulk update form: for the
// student at index i, "items[i][login]" then "items[i][present]".
func RosterToWire(students []Student) Form {
	form := make(Form, 0, 2*len(students))
	for i, s := range students {
		form = append(form,
			FormField{Key: loginKey(i), Value: s.login},
			FormField{Key: presenceKey(i), Value: s.presence.Wire()},
		)
	}
	return form
}

// Wire encodes the event's roster.
func (e *Event) Wire() Form {
	return RosterToWire(e.Students())
}
