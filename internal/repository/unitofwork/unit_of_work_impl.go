package unitofwork

import (
	"context"

	"rag-notes-be/internal/repository/contract"
	"rag-notes-be/internal/repository/implementation"

	"gorm.io/gorm"
)

// UnitOfWorkImpl hands out repositories bound to either the base handle or,
// between Begin and Commit/Rollback, the open transaction.
type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{db: db}
}

func (u *UnitOfWorkImpl) conn() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return ErrTxActive
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

func (u *UnitOfWorkImpl) Commit() error {
	return u.finish((*gorm.DB).Commit)
}

func (u *UnitOfWorkImpl) Rollback() error {
	return u.finish((*gorm.DB).Rollback)
}

func (u *UnitOfWorkImpl) finish(end func(*gorm.DB) *gorm.DB) error {
	if u.tx == nil {
		return ErrNoTx
	}
	tx := u.tx
	u.tx = nil
	return end(tx).Error
}

func (u *UnitOfWorkImpl) NoteRepository() contract.NoteRepository {
	return implementation.NewNoteRepository(u.conn())
}

func (u *UnitOfWorkImpl) ChatHistoryRepository() contract.ChatHistoryRepository {
	return implementation.NewChatHistoryRepository(u.conn())
}
