package search

import (
	"github.com/poiesic/brandmatch/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string, filter *core.FilterSpec, topK int)
	AfterEmbedding(vector []float32)
	AfterIndexQuery(matches []core.Match)
	Finish(results []core.ConsolidatedResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ *core.FilterSpec, _ int) {}
func (n *noopMonitor) AfterEmbedding(_ []float32)                {}
func (n *noopMonitor) AfterIndexQuery(_ []core.Match)            {}
func (n *noopMonitor) Finish(_ []core.ConsolidatedResult)        {}
