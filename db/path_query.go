package db

import (
	"github.com/nano/citypath/db/model"
	"github.com/nano/citypath/pkg/errutil"
)

func InsertPathQuery(q *model.PathQuery) error {
	if q == nil {
		return errutil.ErrIllegalParameter
	}
	if database == nil {
		return errutil.ErrJournalDisabled
	}
	_, err := database.Insert(q)
	return err
}

// PathQueryList returns the most recent queries, newest first.
func PathQueryList(limit int) ([]model.PathQuery, error) {
	if limit <= 0 {
		return nil, errutil.ErrIllegalParameter
	}
	if database == nil {
		return nil, errutil.ErrJournalDisabled
	}
	list := make([]model.PathQuery, 0, limit)
	if err := database.Desc("id").Limit(limit).Find(&list); err != nil {
		return nil, err
	}
	return list, nil
}

func QueryPathQuery(id int64) (*model.PathQuery, error) {
	if id <= 0 {
		return nil, errutil.ErrIllegalParameter
	}
	if database == nil {
		return nil, errutil.ErrJournalDisabled
	}
	q := &model.PathQuery{Id: id}
	has, err := database.Get(q)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, errutil.ErrNotFound
	}
	return q, nil
}
