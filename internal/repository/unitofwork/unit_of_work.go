package unitofwork

import (
	"context"

	"rag-notes-be/internal/repository/contract"
)

// RepositoryFactory hands out a fresh UnitOfWork per request or job.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	NoteRepository() contract.NoteRepository
	ChatHistoryRepository() contract.ChatHistoryRepository
}
