// Package app wires the stepflow service together: it builds the logger,
// the workflow store, the executor and the engine from a config.Config and
// runs the HTTP API, the socket.io status stream and the definition import
// watcher under one lifecycle.
package app
