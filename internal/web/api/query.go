package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/lonng/nex"

	"github.com/nano/citypath/db"
	"github.com/nano/citypath/db/model"
	"github.com/nano/citypath/pkg/errutil"
)

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 1000
)

// MakeQueryService exposes the query journal written by db.Journal.
func MakeQueryService() http.Handler {
	router := mux.NewRouter()
	router.Handle("/v1/queries", nex.Handler(queryList)).Methods("GET")      //最近的寻路记录
	router.Handle("/v1/queries/{id}", nex.Handler(queryByID)).Methods("GET") //获取记录
	return router
}

func queryList(r *http.Request) ([]model.PathQuery, error) {
	limit := defaultQueryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxQueryLimit {
			return nil, errutil.ErrInvalidParameter
		}
		limit = n
	}
	return db.PathQueryList(limit)
}

func queryByID(r *http.Request) (*model.PathQuery, error) {
	idStr, ok := mux.Vars(r)["id"]
	if !ok || idStr == "" {
		return nil, errutil.ErrInvalidParameter
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return nil, errutil.ErrInvalidParameter
	}
	return db.QueryPathQuery(id)
}
