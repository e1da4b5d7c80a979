package search

import "github.com/poiesic/regindex/core"

// Monitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type Monitor interface {
	Start(query string)
	AfterScan(candidates int)
	AfterFilter(candidates int)
	Scored(result *core.SearchResult)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                {}
func (n *noopMonitor) AfterScan(_ int)               {}
func (n *noopMonitor) AfterFilter(_ int)             {}
func (n *noopMonitor) Scored(_ *core.SearchResult)   {}
func (n *noopMonitor) Finish(_ []*core.SearchResult) {}
