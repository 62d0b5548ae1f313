package tui

import "errors"

// ErrMissingSegmentService is returned when the segment service is not provided.
var ErrMissingSegmentService = errors.New("tui: segment service is required")

// ErrMissingTaskService is returned when a progress view has no task service.
var ErrMissingTaskService = errors.New("tui: task service is required")
