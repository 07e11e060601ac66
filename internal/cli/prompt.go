package cli

import (
	stderrors "errors"

	"github.com/charmbracelet/huh"
)

// ErrCancelled is returned by Confirm when the prompt is aborted.
var ErrCancelled = stderrors.New("cancelled")

// Confirm asks a yes/no question on the terminal.
func Confirm(title, description string, def bool) (bool, error) {
	confirmed := def
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&confirmed),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		if stderrors.Is(err, huh.ErrUserAborted) {
			return false, ErrCancelled
		}
		return false, err
	}
	return confirmed, nil
}
