package routing

import "github.com/milk9111/fieldroutes/events"

// Notifier is told about every slot whose content changed.
type Notifier interface {
	NotifyChanged(entrance int, p Path)
}

type NotifierFunc func(entrance int, p Path)

func (f NotifierFunc) NotifyChanged(entrance int, p Path) { f(entrance, p) }

// PathChange is the payload of events.KindPathChanged.
type PathChange struct {
	Entrance int
	Path     Path
}

// BusNotifier publishes changes on an event bus.
type BusNotifier struct {
	Bus *events.Bus
}

func (n BusNotifier) NotifyChanged(entrance int, p Path) {
	n.Bus.Publish(events.Event{Type: events.KindPathChanged, Data: PathChange{Entrance: entrance, Path: p}})
}
