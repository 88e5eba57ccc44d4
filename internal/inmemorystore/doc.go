// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the nodestore.Store interface.
//
// A fresh Store is created for every run and thrown away afterwards. It uses
// sync.Map because the key space (node ids of one workflow) is small and
// stable while values change on every step.
package inmemorystore
