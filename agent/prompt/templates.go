// Package prompt renders the goal-pursuit message attached to each
// recommendation from a (goal id, approach) table.
package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	goalx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/goal"
)

//go:embed template/goal_messages.yaml
var goalMessagesRaw []byte

// Table maps goal id and approach to a template string.
type Table struct {
	Default string                    `yaml:"default"`
	Goals   map[string]goalx.Messages `yaml:"goals"`
}

// Load parses the embedded table.
func Load() (*Table, error) {
	return Parse(goalMessagesRaw)
}

func MustLoad() *Table {
	t, err := Load()
	if err != nil {
		panic(err)
	}
	return t
}

// Parse reads a template table from YAML. An empty default is rejected.
func Parse(raw []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse goal message templates: %w", err)
	}
	t.Default = strings.TrimSpace(t.Default)
	if t.Default == "" {
		return nil, fmt.Errorf("goal message templates: default entry is required")
	}
	if t.Goals == nil {
		t.Goals = map[string]goalx.Messages{}
	}
	return &t, nil
}

// Render returns the message for g under approach. Lookup order: per-persona
// overrides, the table entry for the goal id, the goal's value proposition,
// then the table default.
func (t *Table) Render(g goalx.ConversationGoal, approach goalx.Directness, overrides map[string]goalx.Messages) string {
	if tmpl, ok := lookup(overrides, g.ID, approach); ok {
		return fill(tmpl, g)
	}
	if t != nil {
		if tmpl, ok := lookup(t.Goals, g.ID, approach); ok {
			return fill(tmpl, g)
		}
	}
	if vp := strings.TrimSpace(g.Approach.ValueProposition); vp != "" {
		return vp
	}
	if t == nil || t.Default == "" {
		return ""
	}
	return fill(t.Default, g)
}

func lookup(table map[string]goalx.Messages, id string, approach goalx.Directness) (string, bool) {
	msgs, ok := table[id]
	if !ok {
		return "", false
	}
	tmpl := strings.TrimSpace(msgs[approach])
	return tmpl, tmpl != ""
}

func fill(tmpl string, g goalx.ConversationGoal) string {
	name := g.Name
	if name == "" {
		name = strings.ReplaceAll(g.ID, "_", " ")
	}
	r := strings.NewReplacer(
		"{goal_name}", name,
		"{value_proposition}", strings.TrimSpace(g.Approach.ValueProposition),
	)
	return strings.TrimSpace(r.Replace(tmpl))
}
