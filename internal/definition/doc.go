// Package definition reads and writes workflow definition files.
//
// Three formats are supported, selected by file extension:
//
//	.hcl          one or more `workflow "<name>" { node ... edge ... }` blocks
//	.yaml, .yml   a single workflow document
//	.json         a single workflow in the editor's wire format
//
// Decoded workflows are validated with workflow.Validate. Files whose
// workflow has no name take the file name without its extension.
//
// The Watcher keeps a directory of definition files imported into a store.
package definition
