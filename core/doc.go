/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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

// Package core provides the small shared vocabulary of the Sutra
// engine: source Spans, world Paths, the structured Error type, and
// the Output sink that I/O atoms write to.
//
// The engine itself is split across several packages.  Package ast
// has the expression tree, package value has runtime values, package
// world has the persistent state store, package macro rewrites author
// syntax into the canonical core language, and package eval walks the
// canonical tree.  Package pipeline strings all of that together.
//
// Evaluation in Sutra is like an Action in a state machine: it should
// not perform any IO.  Instead, it returns a result and a new World,
// and anything that looks like output goes to an Output, which the
// caller provides.  A caller that wants no output can use NoOutput.
//
// Errors are normal.  Every fallible operation returns a *Error with a
// Kind (where in the pipeline things went wrong), a Code (what went
// wrong), and, when known, a Span into the source.  An error never
// corrupts a World because Worlds are never modified in place.
package core
