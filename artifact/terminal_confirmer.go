package artifact

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
)

// TerminalConfirmer prompts on the terminal before overwriting artifacts.
type TerminalConfirmer struct{}

// NewTerminalConfirmer creates a new TerminalConfirmer.
func NewTerminalConfirmer() *TerminalConfirmer {
	return &TerminalConfirmer{}
}

// IsInteractive checks if we're running in an interactive terminal.
func (c *TerminalConfirmer) IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ConfirmOverwrite asks the user whether the listed files may be replaced.
func (c *TerminalConfirmer) ConfirmOverwrite(existing []string) (bool, error) {
	var confirmed bool

	err := huh.NewConfirm().
		Title(fmt.Sprintf("Overwrite %d step artifacts?", len(existing))).
		Description(summarize(existing, 5)).
		Affirmative("Overwrite").
		Negative("Abort").
		Value(&confirmed).
		Run()
	if err != nil {
		return false, err
	}
	return confirmed, nil
}

// summarize lists up to limit names and counts the rest.
func summarize(names []string, limit int) string {
	if len(names) <= limit {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(names[:limit], ", "), len(names)-limit)
}
