// Package review turns an editor submission into an LLM code review.
//
// A Service takes the submitted code and language id, resolves the language
// (detecting it with go-enry when the editor sent none), scrubs secrets,
// builds the reviewer prompt, consults the on-disk cache and finally calls a
// Completer, normally a completion.Caller, for the markdown review. The
// markdown is also rendered to HTML with goldmark for clients that cannot
// render markdown themselves.
package review
