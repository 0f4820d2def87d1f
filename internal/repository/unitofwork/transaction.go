package unitofwork

import (
	"context"
	"errors"
)

var (
	ErrTxActive = errors.New("transaction already started")
	ErrNoTx     = errors.New("no active transaction")
)

// WithinTransaction runs fn between Begin and Commit. Any error or panic from
// fn rolls the transaction back; a panic is re-raised after the rollback.
func WithinTransaction(ctx context.Context, uow UnitOfWork, fn func(uow UnitOfWork) error) (err error) {
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := uow.Rollback(); rbErr != nil && err == nil {
			err = rbErr
		}
		if p := recover(); p != nil {
			panic(p)
		}
	}()

	if err = fn(uow); err != nil {
		return err
	}
	if err = uow.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
