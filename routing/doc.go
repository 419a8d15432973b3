// Package routing keeps one route per field entrance up to date.
//
// A Coordinator owns a Cache with one slot per entrance. Recompute requests go
// to an Engine, which answers each request with a one-shot result channel; a
// continuation goroutine per request applies the result to the slot with an
// atomic replace-and-return-previous and notifies observers when the content
// changed. Activate ties the first round of requests to a Barrier that fires a
// callback once every entrance has a result.
//
// None of the public operations wait for a search to finish.
package routing
