package terrain

import "github.com/milk9111/fieldroutes/common"

// Snapshot is an immutable copy of the grid at one version. Searches run
// against snapshots so edits never race a running search.
type Snapshot struct {
	Width   int
	Height  int
	Version uint64
	blocked []bool
}

func (g *Grid) Snapshot() *Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	blocked := make([]bool, len(g.blocked))
	copy(blocked, g.blocked)
	return &Snapshot{
		Width:   g.width,
		Height:  g.height,
		Version: g.version,
		blocked: blocked,
	}
}

func (s *Snapshot) InBounds(p common.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < s.Width && p.Y < s.Height
}

func (s *Snapshot) IsBlocked(p common.Point) bool {
	if !s.InBounds(p) {
		return true
	}
	return s.blocked[p.Y*s.Width+p.X]
}
