// Package tui holds the small interactive pieces provctl uses on a
// terminal: a confirmation form, a hidden token prompt and a spinner
// around long waits.
package tui

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"golang.org/x/term"
)

// ErrAborted is returned when the user cancels a prompt.
var ErrAborted = errors.New("aborted by user")

func accessible() bool {
	return os.Getenv("ACCESSIBLE") != ""
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func runForm(groups ...*huh.Group) error {
	err := huh.NewForm(groups...).WithAccessible(accessible()).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	return err
}

// Confirm shows details and asks the user to confirm. A declined
// confirmation returns false with a nil error.
func Confirm(title, details, affirmative string) (bool, error) {
	confirmed := false
	fields := []huh.Field{}
	if details != "" {
		fields = append(fields, huh.NewNote().Title("Summary").Description(details))
	}
	fields = append(fields, huh.NewConfirm().
		Title(title).
		Affirmative(affirmative).
		Negative("Cancel").
		Value(&confirmed))

	if err := runForm(huh.NewGroup(fields...)); err != nil {
		return false, err
	}
	return confirmed, nil
}

// Secret asks for a value without echoing it.
func Secret(title string) (string, error) {
	var value string
	input := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&value).
		Validate(func(s string) error {
			if s == "" {
				return errors.New("value cannot be empty")
			}
			return nil
		})
	if err := runForm(huh.NewGroup(input)); err != nil {
		return "", err
	}
	return value, nil
}

// Spin runs action behind a spinner drawn on out. Interrupting the
// spinner cancels the context passed to action.
func Spin(out io.Writer, title string, action func(ctx context.Context) error) error {
	err := spinner.New().
		Title(title).
		Accessible(accessible()).
		Output(out).
		ActionWithErr(action).
		Run()
	if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
		return ErrAborted
	}
	return err
}
