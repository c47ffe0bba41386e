package console

import (
	"errors"
	"fmt"
	"strings"

	"moderation-console/internal/models"
)

var errEmptyForm = errors.New("no known field found")

type formField struct {
	name string
	list bool
}

// projectFormFields maps the lower-cased key a moderator may type to its field.
var projectFormFields = map[string]formField{
	"title":             {name: "title"},
	"description":       {name: "description"},
	"releasedate":       {name: "releaseDate"},
	"release date":      {name: "releaseDate"},
	"installationlink":  {name: "installationLink"},
	"installation link": {name: "installationLink"},
	"link":              {name: "installationLink"},
	"photos":            {name: "photos", list: true},
	"categories":        {name: "categories", list: true},
}

// ParseProjectForm reads a project from "key: value" lines. A line whose prefix
// is not a known key continues the previous field, so values may span lines
// and may contain colons. Photos and categories are split on commas and new
// lines; order is kept and empty entries are preserved.
func ParseProjectForm(text string) (models.Project, error) {
	values := make(map[string][]string)
	var current string

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if key, value, ok := strings.Cut(line, ":"); ok {
			if field, known := projectFormFields[strings.ToLower(strings.TrimSpace(key))]; known {
				if _, dup := values[field.name]; dup {
					return models.Project{}, fmt.Errorf("duplicate field %q", field.name)
				}
				current = field.name
				values[current] = []string{strings.TrimSpace(value)}
				continue
			}
		}
		if current == "" {
			if strings.TrimSpace(line) == "" {
				continue
			}
			return models.Project{}, fmt.Errorf("line %q has no field", line)
		}
		values[current] = append(values[current], strings.TrimSpace(line))
	}
	if len(values) == 0 {
		return models.Project{}, errEmptyForm
	}

	field := func(name string) string {
		return strings.Join(trimTrailingBlank(values[name]), "\n")
	}
	return models.Project{
		Title:            field("title"),
		Description:      field("description"),
		ReleaseDate:      field("releaseDate"),
		InstallationLink: field("installationLink"),
		Photos:           splitList(values["photos"]),
		Categories:       splitList(values["categories"]),
	}, nil
}

func trimTrailingBlank(lines []string) []string {
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// splitList turns the lines of a list field into entries. The value on the key
// line itself is skipped when empty, so "photos:" may be followed by one URL per line.
func splitList(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	if lines[0] == "" {
		lines = lines[1:]
	}
	lines = trimTrailingBlank(lines)
	if len(lines) == 0 {
		return []string{}
	}
	var out []string
	for _, line := range lines {
		for _, entry := range strings.Split(line, ",") {
			out = append(out, strings.TrimSpace(entry))
		}
	}
	return out
}
