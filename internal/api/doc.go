// Package api serves the stepflow HTTP API with gin.
//
//	POST /api/execute_node/     run one node through the handler registry
//	POST /api/save_workflow/    upsert a workflow by name
//	GET  /api/load_workflow/    load a workflow by ?name=
//	GET  /api/workflows         list stored workflows
//	POST /api/run_workflow/     execute a stored or inline workflow
//	GET  /api/runs              list finished runs
//	GET  /api/runs/:id          one run summary
//	GET  /health                liveness probe
//
// load_workflow adds next_node_id, the id for the next process node. A run
// that never started answers 422 and one aborted later (cycle, cancellation)
// answers 409; both carry the summary next to the error.
//
// The socket.io status stream is mounted next to these routes when a
// handler for it is provided.
package api
