package memory

import (
	"context"

	"rag-notes-be/internal/repository/contract"
	"rag-notes-be/internal/repository/unitofwork"
)

type RepositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &RepositoryFactory{store: store}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork applies writes immediately and journals an undo step for each
// one made inside Begin/Commit, so Rollback restores the previous state.
// Other readers can observe uncommitted writes.
type UnitOfWork struct {
	store   *Store
	journal []func()
	active  bool
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.active {
		return unitofwork.ErrTxActive
	}
	u.active = true
	u.journal = nil
	return nil
}

func (u *UnitOfWork) Commit() error {
	if !u.active {
		return unitofwork.ErrNoTx
	}
	u.active = false
	u.journal = nil
	return nil
}

func (u *UnitOfWork) Rollback() error {
	if !u.active {
		return unitofwork.ErrNoTx
	}
	for i := len(u.journal) - 1; i >= 0; i-- {
		u.journal[i]()
	}
	u.active = false
	u.journal = nil
	return nil
}

func (u *UnitOfWork) record(undo func()) {
	if u.active {
		u.journal = append(u.journal, undo)
	}
}

func (u *UnitOfWork) NoteRepository() contract.NoteRepository {
	return &NoteRepository{store: u.store, record: u.record}
}

func (u *UnitOfWork) ChatHistoryRepository() contract.ChatHistoryRepository {
	return &ChatHistoryRepository{store: u.store, record: u.record}
}
