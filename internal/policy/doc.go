// Package policy implements the per-run error policy for recoverable
// episode failures.
//
// Each failure is classified (Classify), then resolved either from a
// remembered bulk decision or by asking the user through a Prompter.
// Non-interactive runs always resolve to SkipAll.
package policy
