package policystore

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// InteractiveChoice is the outcome of prompting a TTY user for a
// per-call policy decision, mirroring the teacher's own use of
// charmbracelet/huh for interactive confirmation prompts.
type InteractiveChoice string

const (
	ChoiceAllowOnce   InteractiveChoice = "allow_once"
	ChoiceAlwaysAllow InteractiveChoice = "always_allow"
	ChoiceAlwaysDeny  InteractiveChoice = "always_deny"
	ChoiceDenyOnce    InteractiveChoice = "deny_once"
)

// PromptForDecision renders an allow/deny/always-allow/always-deny
// selector for a tool call awaiting a PromptEachTime decision. Callers
// in a non-interactive context (no TTY, a headless CI run) should
// avoid calling this and instead treat PromptEachTime as a deny.
func PromptForDecision(tool, summary string) (InteractiveChoice, error) {
	var choice InteractiveChoice = ChoiceAllowOnce

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[InteractiveChoice]().
				Title(fmt.Sprintf("Allow %s?", tool)).
				Description(summary).
				Options(
					huh.NewOption("Allow once", ChoiceAllowOnce),
					huh.NewOption("Always allow "+tool, ChoiceAlwaysAllow),
					huh.NewOption("Deny once", ChoiceDenyOnce),
					huh.NewOption("Always deny "+tool, ChoiceAlwaysDeny),
				).
				Value(&choice),
		),
	)

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("policystore: interactive prompt: %w", err)
	}
	return choice, nil
}

// ApplyChoice records choice's durable effect (always_allow/always_deny)
// into the store. Allow-once/deny-once choices are not persisted.
func (s *Store) ApplyChoice(tool string, choice InteractiveChoice) error {
	switch choice {
	case ChoiceAlwaysAllow:
		return s.Set(tool, DecisionAlwaysAllow)
	case ChoiceAlwaysDeny:
		return s.Set(tool, DecisionAlwaysDeny)
	default:
		return nil
	}
}
