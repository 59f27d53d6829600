// Package output creates the termenv outputs styled text is written to.
package output

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Profile returns the color profile for text written to w.
// NO_COLOR disables colors. CI and terminals get ANSI colors, anything else none.
func Profile(w io.Writer) termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	if IsCI() {
		return termenv.ANSI
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int
		return termenv.EnvColorProfile()
	}
	return termenv.Ascii
}

// ProfileANSI is Profile for outputs that always keep ANSI colors unless NO_COLOR is set,
// such as logs collected by a CI system from a pipe.
func ProfileANSI(io.Writer) termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.ANSI
}

// IsCI reports whether the process runs under a CI system.
func IsCI() bool {
	ci := os.Getenv("CI")
	return ci == "true" || ci == "1"
}

// New creates a termenv.Output for w using Profile.
func New(w io.Writer, opts ...termenv.OutputOption) *termenv.Output {
	return NewWithProfile(w, Profile, opts...)
}

// NewWithProfile creates a termenv.Output for w with the profile chosen by profileFn.
func NewWithProfile(w io.Writer, profileFn func(io.Writer) termenv.Profile, opts ...termenv.OutputOption) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}

	opts = append(opts,
		termenv.WithProfile(profileFn(w)),
		termenv.WithTTY(true),
	)

	return termenv.NewOutput(w, opts...)
}
