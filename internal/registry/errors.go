package registry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateTask is returned when a name is registered twice.
	ErrDuplicateTask = errors.New("duplicate task")
	// ErrUnknownTask is returned when a referenced name is not registered.
	ErrUnknownTask = errors.New("unknown task")
	// ErrCyclicTask is returned when resolution revisits a task currently
	// being expanded.
	ErrCyclicTask = errors.New("cyclic task reference")
)

// Error wraps registration and resolution failures with their sentinel kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func duplicatef(name string) error {
	return &Error{Kind: ErrDuplicateTask, Msg: fmt.Sprintf("task '%s' is already registered", name)}
}

func unknownf(name string) error {
	return &Error{Kind: ErrUnknownTask, Msg: fmt.Sprintf("task '%s' is not registered", name)}
}

func cycleError(path []string) error {
	msg := "cycle"
	if len(path) > 0 {
		msg = "cycle: " + strings.Join(path, " -> ")
	}
	return &Error{Kind: ErrCyclicTask, Msg: msg}
}
