// Package holiday answers "is this a rest day?" for mainland China, where
// weekends around public holidays are sometimes swapped for working days.
package holiday

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed calendar.yaml
var builtinCalendar []byte

const dateLayout = "2006-01-02"

// Calendar resolves dates against shifted-workday overrides, weekends, and
// statutory holiday ranges, in that order.
type Calendar struct {
	workdays map[string]string // date -> name
	holidays []holidaySpan
}

type holidaySpan struct {
	start time.Time
	end   time.Time
	name  string
}

type document struct {
	Workdays []struct {
		Date string `yaml:"date"`
		Name string `yaml:"name"`
	} `yaml:"workdays"`
	Holidays []struct {
		Start string `yaml:"start"`
		End   string `yaml:"end"`
		Name  string `yaml:"name"`
	} `yaml:"holidays"`
}

// Parse builds a calendar from YAML data.
func Parse(data []byte) (*Calendar, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}

	cal := &Calendar{
		workdays: make(map[string]string),
	}

	for _, w := range doc.Workdays {
		if _, err := time.ParseInLocation(dateLayout, w.Date, time.Local); err != nil {
			return nil, fmt.Errorf("invalid workday date %q: %w", w.Date, err)
		}
		cal.workdays[w.Date] = w.Name
	}

	for _, h := range doc.Holidays {
		start, err := time.ParseInLocation(dateLayout, h.Start, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday start %q: %w", h.Start, err)
		}
		end, err := time.ParseInLocation(dateLayout, h.End, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday end %q: %w", h.End, err)
		}
		if end.Before(start) {
			return nil, fmt.Errorf("holiday %q ends before it starts", h.Name)
		}
		cal.holidays = append(cal.holidays, holidaySpan{start: start, end: end, name: h.Name})
	}

	return cal, nil
}

// LoadFile builds a calendar from a YAML file on disk.
func LoadFile(path string) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in calendar. The embedded table is validated at
// build time by the package tests, so a parse failure here is a programming
// error.
func Default() *Calendar {
	cal, err := Parse(builtinCalendar)
	if err != nil {
		panic(err)
	}
	return cal
}

// IsHoliday reports whether date is a rest day. Shifted workdays take
// precedence over everything: a Saturday designated as a working day is not
// a holiday even when it falls inside a holiday span.
func (c *Calendar) IsHoliday(date time.Time) bool {
	key := date.Format(dateLayout)

	if _, ok := c.workdays[key]; ok {
		return false
	}

	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return true
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	for _, span := range c.holidays {
		if !day.Before(span.start) && !day.After(span.end) {
			return true
		}
	}

	return false
}

// Name returns the label for the holiday or shifted workday covering date,
// and whether one was found.
func (c *Calendar) Name(date time.Time) (string, bool) {
	key := date.Format(dateLayout)

	if name, ok := c.workdays[key]; ok {
		return name, true
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	for _, span := range c.holidays {
		if !day.Before(span.start) && !day.After(span.end) {
			return span.name, true
		}
	}

	return "", false
}
