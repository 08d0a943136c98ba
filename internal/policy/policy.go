package policy

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"gitlab.com/tozd/go/errors"
)

// Error classes with special matching rules.
const (
	ClassSyncToFrame = "sync_to_frame"
	ClassInvalidFile = "invalid_file"
)

// Decision is the resolved handling of one failure.
type Decision int

const (
	// Skip drops this episode entirely.
	Skip Decision = iota

	// SkipAll drops this episode and every later one of the same class.
	SkipAll

	// Continue keeps the episode in the manifest without audio.
	Continue

	// ContinueAll is Continue for this and every later failure of the class.
	ContinueAll

	// Abort stops the run.
	Abort
)

func (d Decision) String() string {
	switch d {
	case Skip:
		return "skip"
	case SkipAll:
		return "skip_all"
	case Continue:
		return "continue"
	case ContinueAll:
		return "continue_all"
	case Abort:
		return "abort"
	}
	return fmt.Sprintf("Decision(%d)", int(d))
}

// Skips reports whether the episode should be dropped.
func (d Decision) Skips() bool {
	return d == Skip || d == SkipAll
}

// Continues reports whether the episode should be kept without audio.
func (d Decision) Continues() bool {
	return d == Continue || d == ContinueAll
}

// Choice is one numbered option offered to the user.
type Choice struct {
	Key      string
	Label    string
	Decision Decision
}

// Choices are the options offered for every failure, in display order.
var Choices = []Choice{
	{"1", "Skip this item entirely and continue", Skip},
	{"2", "Skip all items with this error type", SkipAll},
	{"3", "Save metadata anyway (no audio file)", Continue},
	{"4", "Save metadata for all items with this error", ContinueAll},
	{"5", "Abort backup", Abort},
}

// ChoiceByKey looks up a choice by its key ("1".."5").
func ChoiceByKey(key string) (Choice, bool) {
	key = strings.TrimSpace(key)
	for _, c := range Choices {
		if c.Key == key {
			return c, true
		}
	}
	return Choice{}, false
}

// Prompt describes a failure awaiting a decision.
type Prompt struct {
	Err     error
	Context string
	Class   string
	Choices []Choice
}

// Prompter asks the user questions. Implementations block until answered or
// ctx is done.
type Prompter interface {
	Choose(ctx context.Context, p Prompt) (Decision, error)
	Confirm(ctx context.Context, question string) (bool, error)
}

// Policy decides how recoverable failures are handled during one run.
//
// Bulk decisions (SkipAll, ContinueAll) are remembered per error class for
// the lifetime of the Policy, so create one per run.
//
// Example:
//
//	pol := policy.New(prompter, true)
//	switch d := pol.Decide(ctx, err, "Downloading: Pilot"); {
//	case d.Skips():
//	    // drop the episode
//	case d.Continues():
//	    // keep metadata without audio
//	default:
//	    return ErrAborted
//	}
type Policy struct {
	prompter    Prompter
	interactive bool

	mu       sync.Mutex
	remember map[string]Decision
}

// New creates a Policy. With interactive false, or a nil prompter, every
// failure resolves to SkipAll without asking.
func New(prompter Prompter, interactive bool) *Policy {
	return &Policy{
		prompter:    prompter,
		interactive: interactive && prompter != nil,
		remember:    make(map[string]Decision),
	}
}

// Interactive reports whether the policy may prompt.
func (p *Policy) Interactive() bool {
	return p.interactive
}

// Decide resolves a failure. It prompts at most once per error class for
// bulk answers; a prompter error is treated as Abort.
func (p *Policy) Decide(ctx context.Context, err error, where string) Decision {
	if !p.interactive {
		return SkipAll
	}

	class := Classify(err)

	p.mu.Lock()
	d, ok := p.remember[class]
	p.mu.Unlock()
	if ok {
		return d
	}

	d, perr := p.prompter.Choose(ctx, Prompt{Err: err, Context: where, Class: class, Choices: Choices})
	if perr != nil {
		return Abort
	}

	if d == SkipAll || d == ContinueAll {
		p.mu.Lock()
		p.remember[class] = d
		p.mu.Unlock()
	}
	return d
}

// Remembered returns the stored bulk decision for a class, if any.
func (p *Policy) Remembered(class string) (Decision, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.remember[class]
	return d, ok
}

// Confirm asks a yes/no question through the prompter. Non-interactive
// policies answer yes.
func (p *Policy) Confirm(ctx context.Context, question string) (bool, error) {
	if !p.interactive {
		return true, nil
	}
	return p.prompter.Confirm(ctx, question)
}

// kinded is implemented by errors that name their own class.
type kinded interface {
	Kind() string
}

// Classify maps an error to a coarse class used to group repeated failures.
//
// The message is checked for "can't sync to" and "not a valid" first. Then
// the first error in the chain with a Kind method names the class, and
// failing that the Go type of the innermost error.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "can't sync to"):
		return ClassSyncToFrame
	case strings.Contains(msg, "not a valid"):
		return ClassInvalidFile
	}

	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}

	inner := err
	for {
		next := errors.Unwrap(inner)
		if next == nil {
			break
		}
		inner = next
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", inner), "*")
}
