// Package graph answers structural questions over an immutable workflow
// snapshot.
//
// # Why a Snapshot
//
// The editor may keep changing a workflow while a run is in progress. The
// engine therefore freezes the topology once, at the moment a run resolves its
// start node, and every later query goes through that frozen copy:
//
//	snap := graph.NewSnapshot(wf)
//	start, ok := snap.FindStart()
//	next, ok := snap.FindSuccessor(start.ID)
//
// Mutable execution state (which node is running) is deliberately not kept
// here. It lives in a per-run nodestore.Store side table, so a Snapshot can be
// shared freely between goroutines without locks.
//
// # Traversal Policy
//
// A workflow is treated as a single active path:
//   - **Start:** the first node, in declaration order, that no edge targets.
//   - **Successor:** the target of the first edge, in declaration order, whose
//     source is the current node. Further outgoing edges are ignored.
//   - **Dangling edges:** an edge whose target id is unknown resolves to "no
//     successor" instead of an error.
package graph
