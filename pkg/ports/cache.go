package ports

import (
	"context"

	"github.com/aretw0/visaguide/pkg/domain"
)

// KnowledgeCache memoizes knowledge bases by visa type.
// Entries are never invalidated by the repository; implementations may expire them.
type KnowledgeCache interface {
	// Get returns the cached knowledge base.
	// Returns domain.ErrCacheMiss if the visa type is not cached.
	Get(ctx context.Context, visaType string) (*domain.KnowledgeBase, error)

	// Put stores the knowledge base for a visa type.
	Put(ctx context.Context, visaType string, kb *domain.KnowledgeBase) error

	// Delete evicts a visa type.
	Delete(ctx context.Context, visaType string) error

	// List returns the cached visa types.
	List(ctx context.Context) ([]string, error)
}
