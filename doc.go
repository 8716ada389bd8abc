// Package neat is a runtime type catalogue. Types are registered once with
// their fields and methods and can afterwards be inspected, read, written and
// invoked without compile time knowledge of the concrete type.
//
// The building blocks live in sub packages:
//
//   - typeid assigns a unique identifier to every go type
//   - erased holds values and references of arbitrary types behind a uniform interface
//   - registry describes types, fields and methods and stores them by name and identifier
//   - bridge converts registered objects to and from HCL
//
// This package exposes the process wide registry.
package neat
