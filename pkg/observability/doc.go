/*
Package observability provides Prometheus metrics and structured logging for
questionnaire sessions.

Both are delivered as domain.LifecycleHooks so they can be merged and passed
to a session controller, and Metrics also observes backend round trips.
*/
package observability
