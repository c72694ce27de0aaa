// Package services holds cross-cutting service helpers: the error taxonomy
// shared by stage handlers and the context keys used to thread rip session
// identity through logging.
package services
