// Package client holds the HTTP clients for the two remote collaborators of
// the engine: the persistence service that loads and saves workflows, and the
// execution service that performs the unit of work of one node.
//
// Both are thin wrappers over a resty client. Every non-2xx answer becomes a
// Go error; neither client retries.
package client
