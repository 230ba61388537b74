// Package services carries the error taxonomy and context plumbing shared by
// every subsystem: sentinel markers for stage-failure classification and
// helpers that thread journal/manuscript/stage identifiers through contexts
// for structured logging.
package services
