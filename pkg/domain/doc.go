/*
Package domain contains the core data shapes shared by the questionnaire controller
and the decision-tree visitor.

It is kept free of I/O: backends, caches and presentation live behind the
interfaces in package ports.

# Key Entities

  - Node: One question or result unit of a decision tree, addressed by id.
  - Question: A flat-mode question, optionally a screening question.
  - Value: A tagged answer value (Bool, Text or Number).
  - Answers: Insertion-ordered answers keyed by question or node id.
  - KnowledgeBase: A read-only decision tree plus visa type metadata.
  - State: The snapshot of a questionnaire session.
*/
package domain
