package protocol

import (
	"github.com/nano/citypath/pkg/coord"
)

type FindPathRequest struct {
	Seq   int64      `json:"seq" validate:"gte=0"` //客户端序号, 随onPathFound推送返回
	Start coord.Cell `json:"start"`
	Goal  coord.Cell `json:"goal"`
}

type FindPathResponse struct {
	Found    bool         `json:"found"`
	Cached   bool         `json:"cached"`
	Cost     float64      `json:"cost"`
	Expanded int          `json:"expanded"`
	Path     []coord.Cell `json:"path"`
}

type FindPathAck struct {
	Seq int64 `json:"seq"`
}

// PathFoundPush is pushed to the session as onPathFound.
type PathFoundPush struct {
	Seq   int64             `json:"seq"`
	Route *FindPathResponse `json:"route,omitempty"`
	Error string            `json:"error,omitempty"`
}

type GridRequest struct {
	Lines []string `json:"lines" validate:"required,min=1,dive,required"`
}

type GridEditRequest struct {
	Kind    string      `json:"kind" validate:"omitempty,oneof=paint fill"`
	From    coord.Cell  `json:"from"`
	To      *coord.Cell `json:"to"`
	Terrain string      `json:"terrain" validate:"max=16"`
}

type GridResponse struct {
	Rows    int      `json:"rows"`
	Cols    int      `json:"cols"`
	Lines   []string `json:"lines"`
	CanUndo bool     `json:"can_undo"`
	CanRedo bool     `json:"can_redo"`
}

type CacheResponse struct {
	Size   int    `json:"size"`
	Hits   int64  `json:"hits"`
	Misses int64  `json:"misses"`
	Mode   string `json:"mode"`
}

type StringMessage struct {
	Message string `json:"message"`
}
