package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrDetectionAmbiguous is resolved to LangUnknown inside the detector.
	ErrDetectionAmbiguous = errors.New("language detection ambiguous")
	// ErrAnalyzerTimeout marks an adapter that exceeded its time budget.
	ErrAnalyzerTimeout = errors.New("analyzer timed out")
	// ErrAnalyzerCrash marks an adapter whose tool failed.
	ErrAnalyzerCrash = errors.New("analyzer crashed")
	// ErrMalformedSubmission is the only error surfaced to callers.
	ErrMalformedSubmission = errors.New("malformed submission")
)

var (
	ErrSubmissionTooLarge = fmt.Errorf("%w: content too large", ErrMalformedSubmission)
	ErrUnsupportedFile    = fmt.Errorf("%w: file type not allowed", ErrMalformedSubmission)
)
