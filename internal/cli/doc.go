// Package cli builds the stepflow command tree with cobra, validates user
// input and maps failures to process exit codes through ExitError.
package cli
