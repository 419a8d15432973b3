package pathfinder

import "errors"

var (
	ErrNoRoute         = errors.New("pathfinder: no route")
	ErrSearchLimit     = errors.New("pathfinder: search node limit reached")
	ErrOutOfBounds     = errors.New("pathfinder: point out of bounds")
	ErrBlockedEndpoint = errors.New("pathfinder: endpoint is blocked")
	ErrClosed          = errors.New("pathfinder: engine closed")
)
