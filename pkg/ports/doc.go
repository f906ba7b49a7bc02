/*
Package ports defines the driven ports (interfaces) of the questionnaire client.

These interfaces decouple the session controller and the knowledge repository
from transports and storage, so the core can be exercised headlessly.

# Key Interfaces

  - QuestionnaireBackend: Flat-mode question batches, evaluation and PDF export.
  - DecisionTreeBackend: Tree-mode node navigation for one visa type.
  - KnowledgeSource: Fetches the complete knowledge base of a visa type.
  - KnowledgeCache: Memoizes knowledge bases (memory or Redis).
*/
package ports
