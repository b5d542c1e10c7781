package crawler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"sjsage522/newsharvester/pkg/errors"
)

// Placeholders recognized in base URL templates
const (
	PlaceholderDay     = "{day}"
	PlaceholderMonth   = "{month}"
	PlaceholderYear    = "{year}"
	PlaceholderDate    = "{date}"
	PlaceholderPage    = "{page}"
	PlaceholderPerPage = "{per_page}"
)

// URLTemplate is a base URL with placeholders substituted per request
type URLTemplate string

// Vars maps placeholders to their values
type Vars map[string]string

// Expand substitutes vars into the template. Unknown placeholders are left as is.
func (t URLTemplate) Expand(vars Vars) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, k, v)
	}
	return strings.NewReplacer(pairs...).Replace(string(t))
}

// Require returns a configuration error if any placeholder is missing
func (t URLTemplate) Require(source string, placeholders ...string) error {
	if strings.TrimSpace(string(t)) == "" {
		return errors.NewConfiguration(fmt.Sprintf("%s: empty base url", source), nil)
	}
	for _, p := range placeholders {
		if !strings.Contains(string(t), p) {
			return errors.NewConfiguration(
				fmt.Sprintf("%s: base url %q lacks placeholder %s", source, string(t), p), nil)
		}
	}
	return nil
}

// DateVars returns the date placeholders for day
func DateVars(day time.Time) Vars {
	day = day.In(Jakarta)
	return Vars{
		PlaceholderDay:   day.Format("02"),
		PlaceholderMonth: day.Format("01"),
		PlaceholderYear:  day.Format("2006"),
		PlaceholderDate:  day.Format("2006-01-02"),
	}
}

// With returns a copy of vars with one more placeholder set
func (v Vars) With(placeholder string, value int) Vars {
	c := make(Vars, len(v)+1)
	for k, val := range v {
		c[k] = val
	}
	c[placeholder] = strconv.Itoa(value)
	return c
}
