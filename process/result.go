package process

import (
	"time"
	"unicode/utf8"
)

// Result holds the output and status of a completed subprocess.
type Result struct {
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// ExitCode is the process exit code. -1 if the process was killed.
	ExitCode int
	// Duration is how long the process ran.
	Duration time.Duration
}

// Success reports whether the process exited with code 0.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// StderrTail returns at most the last n characters of stderr.
func (r *Result) StderrTail(n int) string {
	if r == nil {
		return ""
	}
	return Tail(string(r.Stderr), n)
}

// Tail returns the last n runes of s without splitting a multi-byte rune.
func Tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[len(runes)-n:])
}
