package core

import "errors"

var (
	// ErrNoCachedConcepts signals the true first-run failure: no cached
	// concept set exists and extraction also failed.
	ErrNoCachedConcepts = errors.New("no cached concept set available and extraction failed")

	// ErrStageFailed marks a generative-service failure at a pipeline-critical
	// stage (profiler, gap analyzer, generator, validator). These have no
	// legitimate empty-result fallback and surface to the caller.
	ErrStageFailed = errors.New("pipeline stage failed")

	// ErrEmptyResponse indicates the generative service returned no content.
	ErrEmptyResponse = errors.New("empty response from generative service")
)
