// Package kernel contains the types shared by every kernel package.
package kernel

// Error describes a kernel error. Kernel errors are declared as package-level
// pointers to Error so that reporting a failure never needs the allocator;
// code running in interrupt context or before the heap exists can still fail
// with a meaningful value.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
