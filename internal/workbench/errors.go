package workbench

import "errors"

var (
	ErrMatrixNotFound     = errors.New("matrix not found")
	ErrHypothesisNotFound = errors.New("hypothesis not found")
	ErrEvidenceNotFound   = errors.New("evidence not found")
	ErrChecklistNotFound  = errors.New("checklist not found")
	ErrBiasNotFound       = errors.New("bias not found")
	ErrEventNotFound      = errors.New("diamond event not found")
	ErrInvalidMeta        = errors.New("invalid event meta")
	ErrInvalidRating      = errors.New("invalid rating")
	ErrEmptyName          = errors.New("name must not be empty")
	ErrNoHistory          = errors.New("store keeps no version history")
)
