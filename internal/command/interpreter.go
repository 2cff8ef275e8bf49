// Package command inspects user messages for embedded operational
// directives before they reach the remote chat backend. A matched directive
// is handled locally and short-circuits the backend call for that turn.
//
// Matching is case-insensitive substring matching, not a grammar. A
// sentence that merely contains a trigger keyword will match; that is a
// known limitation.
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/opsdesk-ai/opsdesk/internal/collab"
)

// Collaborator is the slice of the collaborator service the interpreter
// needs.
type Collaborator interface {
	SendNotification(ctx context.Context, channel, text string) error
	PipelineStats(ctx context.Context) (*collab.PipelineStats, error)
	ListLeads(ctx context.Context, limit int) ([]collab.Lead, error)
	Health(ctx context.Context) (*collab.HealthStatus, error)
}

// PolicyChecker decides whether a side-effecting directive may run.
type PolicyChecker interface {
	Evaluate(ctx context.Context, input interface{}) (decision, reason string, err error)
}

// rule pairs a predicate with its handler. Rules are evaluated in order;
// the first match wins.
type rule struct {
	name   string
	match  func(lower string) bool
	handle func(ctx context.Context, raw string) string
}

// Interpreter scans user input for directives.
type Interpreter struct {
	collab        Collaborator
	policy        PolicyChecker
	notifyChannel string
	leadsLimit    int
	rules         []rule
}

// NewInterpreter creates an interpreter that notifies the given channel.
func NewInterpreter(c Collaborator, p PolicyChecker, notifyChannel string) *Interpreter {
	i := &Interpreter{
		collab:        c,
		policy:        p,
		notifyChannel: notifyChannel,
		leadsLimit:    5,
	}
	i.rules = []rule{
		{
			name: "notify",
			match: func(lower string) bool {
				return strings.Contains(lower, "send to slack") || strings.HasPrefix(lower, "notify")
			},
			handle: i.handleNotify,
		},
		{
			name: "stats",
			match: func(lower string) bool {
				return strings.Contains(lower, "pipeline stats") || strings.Contains(lower, "show stats")
			},
			handle: i.handleStats,
		},
		{
			name: "leads",
			match: func(lower string) bool {
				return strings.Contains(lower, "list leads") || strings.Contains(lower, "show leads")
			},
			handle: i.handleLeads,
		},
		{
			name: "health",
			match: func(lower string) bool {
				return strings.Contains(lower, "health") || strings.Contains(lower, "system status")
			},
			handle: i.handleHealth,
		},
	}
	return i
}

// Interpret runs the rules in order against the input. When a rule matches
// it always produces a reply, even when its side effect fails: a matched
// directive never falls through to the remote backend. The second return is
// false only when no rule matched.
func (i *Interpreter) Interpret(ctx context.Context, text string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, r := range i.rules {
		if r.match(lower) {
			return r.handle(ctx, text), true
		}
	}
	return "", false
}

func (i *Interpreter) handleNotify(ctx context.Context, raw string) string {
	text := raw
	if idx := strings.Index(raw, ":"); idx >= 0 {
		text = strings.TrimSpace(raw[idx+1:])
	}
	if text == "" {
		return "I need some text to send. Try: send to slack: <message>."
	}

	if i.policy != nil {
		decision, reason, err := i.policy.Evaluate(ctx, map[string]interface{}{
			"directive": "notify",
			"channel":   i.notifyChannel,
			"text":      text,
		})
		if err != nil {
			return fmt.Sprintf("I couldn't verify the notification policy, so I didn't send anything (%v).", err)
		}
		if decision != "allow" {
			if reason == "" {
				reason = "blocked by policy"
			}
			return fmt.Sprintf("I'm not allowed to send that notification: %s.", reason)
		}
	}

	if err := i.collab.SendNotification(ctx, i.notifyChannel, text); err != nil {
		return fmt.Sprintf("I couldn't deliver that to %s: %v.", i.notifyChannel, err)
	}
	return fmt.Sprintf("Sent to %s: %s", i.notifyChannel, text)
}

func (i *Interpreter) handleStats(ctx context.Context, _ string) string {
	stats, err := i.collab.PipelineStats(ctx)
	if err != nil {
		return fmt.Sprintf("I couldn't fetch pipeline stats right now: %v.", err)
	}
	return fmt.Sprintf(
		"Pipeline summary: %d leads (%d qualified), %d active campaigns, $%.0f in pipeline.",
		stats.TotalLeads, stats.QualifiedLeads, stats.ActiveCampaigns, stats.PipelineValue)
}

func (i *Interpreter) handleLeads(ctx context.Context, _ string) string {
	leads, err := i.collab.ListLeads(ctx, i.leadsLimit)
	if err != nil {
		return fmt.Sprintf("I couldn't fetch the lead list right now: %v.", err)
	}
	if len(leads) == 0 {
		return "No leads on file yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Latest %d leads:\n", len(leads))
	for _, l := range leads {
		fmt.Fprintf(&b, "- %s (%s): %s, $%.0f\n", l.Name, l.Company, l.Status, l.Value)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (i *Interpreter) handleHealth(ctx context.Context, _ string) string {
	status, err := i.collab.Health(ctx)
	if err != nil {
		return fmt.Sprintf("Health check failed: %v.", err)
	}
	if status.Healthy {
		return "All systems healthy."
	}

	var degraded []string
	for name, state := range status.Services {
		if state != "up" {
			degraded = append(degraded, fmt.Sprintf("%s: %s", name, state))
		}
	}
	if len(degraded) == 0 {
		return "Some systems are degraded."
	}
	return "Some systems are degraded: " + strings.Join(degraded, ", ") + "."
}
