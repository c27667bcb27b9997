package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidConfig       = errors.New("invalid config")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrSegmentGeneration   = errors.New("segment generation failed")
	ErrAssembly            = errors.New("assembly failed")
	ErrFormat              = errors.New("format failed")
	ErrProviderFailure     = errors.New("provider failure")
)
