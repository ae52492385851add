// Package redact decides which container environment variables are masked
// before they are rendered into a chat message.
package redact

import (
	"fmt"
	"strings"

	"github.com/mosajjal/ecs-events-to-slack/pkg/models"
)

// Mask replaces the value of an excluded variable
const Mask = "REDACTED"

// Policy holds the set of excluded variable names. The zero value redacts nothing.
type Policy struct {
	excluded map[string]struct{}
}

// NewPolicy builds a policy from a list of names. Matching is exact and case-sensitive.
func NewPolicy(names []string) *Policy {
	p := &Policy{excluded: make(map[string]struct{}, len(names))}
	for _, name := range names {
		p.excluded[name] = struct{}{}
	}
	return p
}

// ParseExcludes splits a comma separated list, trimming whitespace and dropping empty names
func ParseExcludes(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Redacted reports whether the named variable must be masked
func (p *Policy) Redacted(name string) bool {
	if p == nil {
		return false
	}
	_, ok := p.excluded[name]
	return ok
}

// Render formats a variable as name="value", masking the value when excluded
func (p *Policy) Render(v models.EnvVar) string {
	value := v.Value
	if p.Redacted(v.Name) {
		value = Mask
	}
	return fmt.Sprintf("%s=\"%s\"", v.Name, value)
}

// RenderAll renders every variable in input order, one per line
func (p *Policy) RenderAll(vars []models.EnvVar) string {
	lines := make([]string, 0, len(vars))
	for _, v := range vars {
		lines = append(lines, p.Render(v))
	}
	return strings.Join(lines, "\n")
}
