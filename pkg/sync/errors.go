package sync

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

var (
	// ErrNoTargets is returned when generation is requested without any tool.
	ErrNoTargets = errors.New("no tool targets specified")
	// ErrSingleTarget is returned when import is not given exactly one tool.
	ErrSingleTarget = errors.New("import requires exactly one tool target")
	// ErrMissingCanonicalDir is returned when a base directory has no .rulesync.
	ErrMissingCanonicalDir = errors.New("canonical directory not found")
	// ErrSharedDescriptor is returned when .rulesync/.mcp.json cannot be read.
	ErrSharedDescriptor = errors.New("shared mcp descriptor is invalid")
)

// UnsupportedToolError is returned when a processor is asked to convert for
// a tool outside its allow-list.
type UnsupportedToolError struct {
	Feature targets.Feature
	Tool    targets.ToolID
}

func (e *UnsupportedToolError) Error() string {
	return fmt.Sprintf("%s does not support %s", e.Tool, e.Feature)
}

// sharedDescriptorError ties a descriptor failure to ErrSharedDescriptor
// while keeping the underlying cause reachable.
type sharedDescriptorError struct {
	err error
}

func (e *sharedDescriptorError) Error() string {
	return ErrSharedDescriptor.Error() + ": " + e.err.Error()
}

func (e *sharedDescriptorError) Unwrap() []error {
	return []error{ErrSharedDescriptor, e.err}
}
