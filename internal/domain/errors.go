package domain

import "errors"

var (
	ErrNoStoredRulebook  = errors.New("no stored rulebook for entry key")
	ErrRunNotFound       = errors.New("pipeline run not found")
	ErrEmptyRulebook     = errors.New("rulebook text is empty")
	ErrRulebookNotParsed = errors.New("rulebook has not been parsed yet")
	ErrDuplicateArea     = errors.New("area already exists for this entry key")
)
