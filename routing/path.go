package routing

import (
	"fmt"
	"slices"
	"strings"

	"github.com/milk9111/fieldroutes/common"
)

// Status distinguishes the three kinds of cached path.
type Status uint8

const (
	StatusAbsent      Status = iota // never computed
	StatusUnreachable               // computed, no route exists
	StatusReachable
)

func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusUnreachable:
		return "unreachable"
	case StatusReachable:
		return "reachable"
	default:
		return "unknown"
	}
}

// Path is a route from an entrance to the field centre. The zero value is absent.
// A reachable path may have no waypoints.
type Path struct {
	Status    Status
	Waypoints []common.Point
}

func Absent() Path      { return Path{Status: StatusAbsent} }
func Unreachable() Path { return Path{Status: StatusUnreachable} }

// Reachable copies waypoints into a new reachable path.
func Reachable(waypoints ...common.Point) Path {
	wp := make([]common.Point, len(waypoints))
	copy(wp, waypoints)
	return Path{Status: StatusReachable, Waypoints: wp}
}

func (p Path) IsAbsent() bool      { return p.Status == StatusAbsent }
func (p Path) IsUnreachable() bool { return p.Status == StatusUnreachable }
func (p Path) IsReachable() bool   { return p.Status == StatusReachable }

// Equal compares status, length and every waypoint in order.
func (p Path) Equal(o Path) bool {
	if p.Status != o.Status {
		return false
	}
	if p.Status != StatusReachable {
		return true
	}
	return slices.Equal(p.Waypoints, o.Waypoints)
}

func (p Path) Len() int { return len(p.Waypoints) }

func (p Path) Clone() Path {
	if p.Status != StatusReachable {
		return Path{Status: p.Status}
	}
	return Reachable(p.Waypoints...)
}

func (p Path) String() string {
	if p.Status != StatusReachable {
		return p.Status.String()
	}
	parts := make([]string, len(p.Waypoints))
	for i, w := range p.Waypoints {
		parts[i] = w.String()
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, " "))
}
