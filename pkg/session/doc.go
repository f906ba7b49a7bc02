/*
Package session implements the questionnaire session controller.

A Controller owns one session: the current question or decision-tree node,
the answers in the order they were given, the visa-type filter set by
screening questions, and the verdict once one is reached. All mutation goes
through its operations (Start, Submit, Back, Evaluate, Restart), which talk
to the backend through the ports package and never run concurrently: a call
made while another is in flight returns domain.ErrBusy and changes nothing.

Two modes are supported:

  - Flat mode serves batches of questions and scores the full answer set
    with a separate evaluation request.
  - Tree mode serves one decision-tree node at a time and ends when the
    backend returns a result node.

Presentation layers read immutable snapshots through State and Progress and
can subscribe to changes with domain.LifecycleHooks.
*/
package session
