package main

import (
	"context"
	"time"

	"github.com/milk9111/fieldroutes/events"
	"github.com/milk9111/fieldroutes/logging"
)

type statusSummary struct {
	ready       bool
	readyAfter  time.Duration
	reloads     int
	pathChanges int
}

func summarise(evts []events.Event) statusSummary {
	var s statusSummary
	for _, e := range evts {
		switch e.Type {
		case events.KindFieldReady:
			s.ready = true
			if r, ok := e.Data.(events.FieldReady); ok {
				s.readyAfter = r.Elapsed
			}
		case events.KindFieldReloaded:
			s.reloads++
		case events.KindPathChanged:
			s.pathChanges++
		}
	}
	return s
}

// reportStatus logs what happened on the bus once per interval, skipping
// quiet intervals.
func reportStatus(ctx context.Context, q *events.Queue, every time.Duration, logger logging.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()

	flush := func() {
		evts := q.Drain()
		if len(evts) == 0 {
			return
		}
		s := summarise(evts)
		if s.ready {
			logger.Info("field ready", "elapsed", s.readyAfter)
		}
		logger.Info("status", "path_changes", s.pathChanges, "reloads", s.reloads)
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-t.C:
			flush()
		}
	}
}
