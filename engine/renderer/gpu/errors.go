package gpu

import (
	"errors"
	"fmt"
)

var (
	// ErrShaderCompile is wrapped by every *CompileError.
	ErrShaderCompile = errors.New("shader compilation failed")
	// ErrProgramLink is wrapped by every *LinkError.
	ErrProgramLink = errors.New("program link failed")
	// ErrNoSurface is returned when the host cannot provide a drawing surface or context.
	ErrNoSurface = errors.New("no drawing surface available")
	// ErrUnknownBackend is returned when a backend name does not match any implementation.
	ErrUnknownBackend = errors.New("unknown renderer backend")
	// ErrInvalidHandle is returned when an operation receives a handle the backend does not own.
	ErrInvalidHandle = errors.New("invalid gpu handle")
)

// CompileError carries the diagnostic log of a failed shader compilation.
type CompileError struct {
	Stage ShaderStage
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s shader: %s: %s", e.Stage, ErrShaderCompile, e.Log)
}

func (e *CompileError) Unwrap() error {
	return ErrShaderCompile
}

// LinkError carries the diagnostic log of a failed program link.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("%s: %s", ErrProgramLink, e.Log)
}

func (e *LinkError) Unwrap() error {
	return ErrProgramLink
}
