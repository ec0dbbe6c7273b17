// Package artifact names the images a multi-scale run reads and writes, and
// guards a working directory against overwriting the outputs of an earlier run.
package artifact

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// ContentImageName is the initial input of the first iteration.
	ContentImageName = "content.png"

	// StyleImageName is the style reference used by every iteration.
	StyleImageName = "style.png"

	// DefaultStepPrefix and DefaultExtension form the step output names.
	DefaultStepPrefix = "step_"
	DefaultExtension  = ".png"
)

// Naming maps iteration indices to artifact names.
type Naming struct {
	Content   string
	Style     string
	Prefix    string
	Extension string
}

// DefaultNaming returns the naming used by the reference setup:
// content.png, style.png and step_{i}.png.
func DefaultNaming() Naming {
	return Naming{
		Content:   ContentImageName,
		Style:     StyleImageName,
		Prefix:    DefaultStepPrefix,
		Extension: DefaultExtension,
	}
}

// Output returns the name of the artifact produced by iteration i.
func (n Naming) Output(i int) string {
	return fmt.Sprintf("%s%d%s", n.Prefix, i, n.Extension)
}

// Input returns the name iteration i reads: the content image for the first
// iteration, the previous iteration's output afterwards.
func (n Naming) Input(i int) string {
	if i == 0 {
		return n.Content
	}
	return n.Output(i - 1)
}

// Pattern returns the glob matching every step output.
func (n Naming) Pattern() string {
	return n.Prefix + "*" + n.Extension
}

// Index parses the iteration index out of a step output name.
func (n Naming) Index(name string) (int, bool) {
	if !strings.HasPrefix(name, n.Prefix) || !strings.HasSuffix(name, n.Extension) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, n.Prefix), n.Extension)
	i, err := strconv.Atoi(digits)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// Validate checks that step outputs cannot collide with the fixed inputs.
func (n Naming) Validate() error {
	if n.Content == "" || n.Style == "" {
		return fmt.Errorf("content and style names are required")
	}
	if n.Content == n.Style {
		return fmt.Errorf("content and style images share the name %q", n.Content)
	}
	for _, fixed := range []string{n.Content, n.Style} {
		if _, ok := n.Index(fixed); ok {
			return fmt.Errorf("name %q collides with the step output naming", fixed)
		}
	}
	return nil
}
