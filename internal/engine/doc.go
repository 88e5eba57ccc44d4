// Package engine runs a workflow as a single active path.
//
// # State Machine
//
// Every run moves through a fixed set of states:
//
//	Idle ──run──▶ Resolving ──▶ Running(node) ──▶ Advancing ──▶ Completed
//	                 │                ▲               │
//	                 │                └───successor───┘
//	                 ▼
//	              Aborted(empty | no-start | cycle | cancelled)
//
//   - **Resolving** freezes the workflow into a graph.Snapshot and picks the
//     start node. An empty graph or a graph without a start node aborts
//     before any remote call is made.
//   - **Running** marks the node running, invokes the Executor exactly once,
//     and resets the node to idle whatever the outcome was.
//   - **Advancing** follows the first outgoing edge. No resolvable successor
//     completes the run.
//
// # Failure Policy
//
// A failed node never stops the walk. Its error is recorded as a Failure
// outcome and traversal continues, so the Summary can report exactly which
// of the visited nodes failed. Only structural problems (empty graph, no
// start node, a revisited node) and cancellation abort a run.
//
// # Concurrency
//
// A run is one goroutine. The call for node N+1 never starts before the call
// for node N has returned and N was reset, so at most one node is running at
// any instant. Separate runs share nothing but the injected Executor and
// status.Observer and may proceed in parallel.
package engine
