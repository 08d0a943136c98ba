package policy

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

type kindErr struct{ kind string }

func (e *kindErr) Error() string { return "kind error" }
func (e *kindErr) Kind() string  { return e.kind }

type plainErr struct{}

func (plainErr) Error() string { return "plain" }

// scriptedPrompter answers from a fixed list and counts calls.
type scriptedPrompter struct {
	answers []Decision
	calls   int
	confirm bool
}

func (s *scriptedPrompter) Choose(ctx context.Context, p Prompt) (Decision, error) {
	if s.calls >= len(s.answers) {
		return Abort, errors.New("no more answers")
	}
	d := s.answers[s.calls]
	s.calls++
	return d, nil
}

func (s *scriptedPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	return s.confirm, nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"sync", errors.New("can't sync to MPEG frame"), ClassSyncToFrame},
		{"sync upper", errors.New("Can't Sync To frame"), ClassSyncToFrame},
		{"invalid", errors.New("file is not a valid MP3"), ClassInvalidFile},
		{"kind", &kindErr{kind: "HTTPStatus"}, "HTTPStatus"},
		{"wrapped kind", errors.Errorf("downloading: %w", &kindErr{kind: "InvalidURL"}), "InvalidURL"},
		{"type name", plainErr{}, "policy.plainErr"},
		{"wrapped type name", errors.Errorf("outer: %w", plainErr{}), "policy.plainErr"},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPolicy_NonInteractiveAlwaysSkipsAll(t *testing.T) {
	p := &scriptedPrompter{answers: []Decision{Continue}}
	pol := New(p, false)

	assert.Equal(t, SkipAll, pol.Decide(context.Background(), errors.New("boom"), "x"))
	assert.Equal(t, 0, p.calls)

	ok, err := pol.Confirm(context.Background(), "go?")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPolicy_RemembersBulkDecisions(t *testing.T) {
	p := &scriptedPrompter{answers: []Decision{SkipAll, ContinueAll}}
	pol := New(p, true)
	ctx := context.Background()

	syncErr := errors.New("can't sync to MPEG frame")
	httpErr := &kindErr{kind: "HTTPStatus"}

	assert.Equal(t, SkipAll, pol.Decide(ctx, syncErr, "a"))
	assert.Equal(t, SkipAll, pol.Decide(ctx, syncErr, "b"))
	assert.Equal(t, ContinueAll, pol.Decide(ctx, httpErr, "c"))
	assert.Equal(t, ContinueAll, pol.Decide(ctx, httpErr, "d"))
	assert.Equal(t, 2, p.calls)

	d, ok := pol.Remembered(ClassSyncToFrame)
	assert.True(t, ok)
	assert.Equal(t, SkipAll, d)
}

func TestPolicy_SingleDecisionsAreNotRemembered(t *testing.T) {
	p := &scriptedPrompter{answers: []Decision{Skip, Continue}}
	pol := New(p, true)
	err := errors.New("boom")

	assert.Equal(t, Skip, pol.Decide(context.Background(), err, "a"))
	assert.Equal(t, Continue, pol.Decide(context.Background(), err, "b"))
	assert.Equal(t, 2, p.calls)
}

func TestPolicy_PrompterErrorAborts(t *testing.T) {
	pol := New(&scriptedPrompter{}, true)
	assert.Equal(t, Abort, pol.Decide(context.Background(), errors.New("boom"), "a"))
}

func TestPolicy_NilPrompterIsNonInteractive(t *testing.T) {
	pol := New(nil, true)
	assert.False(t, pol.Interactive())
	assert.Equal(t, SkipAll, pol.Decide(context.Background(), errors.New("boom"), "a"))
}

func TestLinePrompter_Choose(t *testing.T) {
	var out bytes.Buffer
	lp := NewLinePrompter(strings.NewReader("9\n4\n"), &out)

	d, err := lp.Choose(context.Background(), Prompt{Err: errors.New("boom"), Context: "Downloading: Pilot", Choices: Choices})
	require.NoError(t, err)
	assert.Equal(t, ContinueAll, d)
	assert.Contains(t, out.String(), "ERROR: boom")
	assert.Contains(t, out.String(), "[5] Abort backup")
	assert.Contains(t, out.String(), "Please enter 1, 2, 3, 4, or 5")
}

func TestLinePrompter_EOFAborts(t *testing.T) {
	lp := NewLinePrompter(strings.NewReader(""), &bytes.Buffer{})

	d, err := lp.Choose(context.Background(), Prompt{Err: errors.New("boom"), Choices: Choices})
	assert.Error(t, err)
	assert.Equal(t, Abort, d)
}

func TestLinePrompter_Confirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"\n", true},
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"nope\n", false},
	}
	for _, tt := range tests {
		lp := NewLinePrompter(strings.NewReader(tt.input), &bytes.Buffer{})
		got, err := lp.Confirm(context.Background(), "Continue with download?")
		require.NoError(t, err)
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDecision_Classes(t *testing.T) {
	tests := []struct {
		d         Decision
		skips     bool
		continues bool
	}{
		{Skip, true, false},
		{SkipAll, true, false},
		{Continue, false, true},
		{ContinueAll, false, true},
		{Abort, false, false},
	}
	for _, tt := range tests {
		if got := tt.d.Skips(); got != tt.skips {
			t.Errorf("%s.Skips() = %v, want %v", tt.d, got, tt.skips)
		}
		if got := tt.d.Continues(); got != tt.continues {
			t.Errorf("%s.Continues() = %v, want %v", tt.d, got, tt.continues)
		}
	}
}
