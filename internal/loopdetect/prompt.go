package loopdetect

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// PromptForResponse renders an interactive choice for a detected loop
// pattern, mirroring the teacher's use of charmbracelet/huh for
// confirmation prompts. Callers without a TTY should treat a detected
// loop as Cancel rather than invoking this.
func PromptForResponse(toolName string, pattern Pattern) (Response, error) {
	resp := ResponseCancel

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Response]().
				Title(fmt.Sprintf("Repeated %s calls detected (%s)", toolName, pattern)).
				Options(
					huh.NewOption("Stop and let me intervene", ResponseCancel),
					huh.NewOption("Reset and keep trying", ResponseResetSignature),
					huh.NewOption("Disable loop detection for this session", ResponseDisableSession),
				).
				Value(&resp),
		),
	)

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("loopdetect: interactive prompt: %w", err)
	}
	return resp, nil
}
