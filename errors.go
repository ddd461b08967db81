package bayesgo

import (
	"errors"
)

var (
	// ErrInvalidOptions is returned when search options are inconsistent,
	// e.g. a negative epsilon or patience.
	ErrInvalidOptions = errors.New("bayesgo: invalid options")

	// ErrEmptyModel is returned when a search is started over a model
	// without nodes.
	ErrEmptyModel = errors.New("bayesgo: model has no nodes")
)
