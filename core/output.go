/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

import (
	"io"
	"strings"
)

var (
	// EmittedInitialCap is the initial capacity for a Buffer.
	EmittedInitialCap = 16
)

// Output receives text emitted by I/O atoms.
//
// Implementations are synchronous and are not expected to be safe
// for concurrent use.
type Output interface {
	// Emit writes the text.  The span (if any) locates the call
	// that produced the text.
	Emit(text string, span *Span)
}

// NoOutput discards everything.
type NoOutput struct{}

func (NoOutput) Emit(string, *Span) {}

// OutputFunc adapts a function to an Output.
type OutputFunc func(text string, span *Span)

func (f OutputFunc) Emit(text string, span *Span) {
	f(text, span)
}

// Emission is one call to Emit.
type Emission struct {
	Text string `json:"text"`
	Span *Span  `json:"span,omitempty"`
}

// Buffer is an Output that remembers everything it's given.
type Buffer struct {
	Emitted []Emission `json:"emitted,omitempty" yaml:",omitempty"`
}

// NewBuffer makes an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{
		Emitted: make([]Emission, 0, EmittedInitialCap),
	}
}

func (b *Buffer) Emit(text string, span *Span) {
	b.Emitted = append(b.Emitted, Emission{Text: text, Span: span})
}

// String concatenates all emitted text.
func (b *Buffer) String() string {
	var acc strings.Builder
	for _, e := range b.Emitted {
		acc.WriteString(e.Text)
	}
	return acc.String()
}

// Texts returns just the emitted text.
func (b *Buffer) Texts() []string {
	acc := make([]string, len(b.Emitted))
	for i, e := range b.Emitted {
		acc[i] = e.Text
	}
	return acc
}

// Reset forgets everything.
func (b *Buffer) Reset() {
	b.Emitted = b.Emitted[:0]
}

// WriterOutput writes emitted text to an io.Writer.  Write errors
// are remembered in Err; the first one wins.
type WriterOutput struct {
	W   io.Writer
	Err error
}

func (o *WriterOutput) Emit(text string, span *Span) {
	if o.Err != nil {
		return
	}
	_, o.Err = io.WriteString(o.W, text)
}
