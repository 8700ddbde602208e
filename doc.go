// Package sutra provides a small Lisp-family language whose programs
// are evaluated against a persistent World.
//
// The engine is in packages 'syntax', 'macro', 'eval', 'atoms', and
// 'pipeline', and some command-line tools are in `cmd`.
//
// See DESIGN.md for more.
package sutra
