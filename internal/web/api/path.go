package api

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/lonng/nex"
	log "github.com/sirupsen/logrus"

	"github.com/nano/citypath/internal/editor"
	"github.com/nano/citypath/internal/game"
	"github.com/nano/citypath/internal/navigation"
	"github.com/nano/citypath/pkg/errutil"
	"github.com/nano/citypath/protocol"
)

const maxBodyBytes = 8 << 20

var (
	logger   = log.WithField("component", "api")
	validate = validator.New()
)

type pathService struct {
	ws *editor.Workspace
	// onGridChanged is called after every successful grid change
	onGridChanged func(*protocol.GridResponse)
}

// MakePathService routes the path and grid API onto ws. onGridChanged may be nil.
func MakePathService(ws *editor.Workspace, onGridChanged func(*protocol.GridResponse)) http.Handler {
	s := &pathService{ws: ws, onGridChanged: onGridChanged}
	router := mux.NewRouter()
	router.Handle("/v1/path", nex.Handler(s.findPath)).Methods("POST")      //寻路
	router.Handle("/v1/cache", nex.Handler(s.cacheStats)).Methods("GET")    //缓存统计
	router.Handle("/v1/cache", nex.Handler(s.clearCache)).Methods("DELETE") //清空缓存
	router.Handle("/v1/grid", nex.Handler(s.grid)).Methods("GET")
	router.Handle("/v1/grid", nex.Handler(s.replaceGrid)).Methods("PUT")
	router.Handle("/v1/grid/edit", nex.Handler(s.editGrid)).Methods("POST")
	router.Handle("/v1/grid/undo", nex.Handler(s.undo)).Methods("POST")
	router.Handle("/v1/grid/redo", nex.Handler(s.redo)).Methods("POST")
	return limitBody(router)
}

// limitBody caps request bodies before nex decodes them.
func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

func check(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", errutil.ErrInvalidParameter, err)
	}
	return nil
}

func (s *pathService) findPath(r *http.Request, req *protocol.FindPathRequest) (*protocol.FindPathResponse, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	route, err := s.ws.Finder().FindPath(r.Context(), req.Start, req.Goal)
	if err != nil {
		return nil, err
	}
	return game.RouteResponse(route), nil
}

func (s *pathService) cacheStats(r *http.Request) (*protocol.CacheResponse, error) {
	f := s.ws.Finder()
	stats := f.CacheStats()
	return &protocol.CacheResponse{
		Size:   stats.Size,
		Hits:   stats.Hits,
		Misses: stats.Misses,
		Mode:   f.Mode().String(),
	}, nil
}

func (s *pathService) clearCache(r *http.Request) (*protocol.StringMessage, error) {
	s.ws.Finder().ClearCache()
	return &protocol.StringMessage{Message: "cache cleared"}, nil
}

func (s *pathService) grid(r *http.Request) (*protocol.GridResponse, error) {
	return s.gridResponse(), nil
}

func (s *pathService) replaceGrid(req *protocol.GridRequest) (*protocol.GridResponse, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	g, err := navigation.ParseGrid(req.Lines)
	if err != nil {
		return nil, err
	}
	if err := s.ws.Replace(g); err != nil {
		return nil, err
	}
	return s.changed(), nil
}

func (s *pathService) editGrid(req *protocol.GridEditRequest) (*protocol.GridResponse, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	t, ok := navigation.ParseTerrain(req.Terrain)
	if !ok {
		return nil, fmt.Errorf("%w: unknown terrain %q", errutil.ErrInvalidParameter, req.Terrain)
	}
	action := editor.Paint(req.From, t)
	if req.Kind == "fill" {
		if req.To == nil {
			return nil, fmt.Errorf("%w: fill needs a to cell", errutil.ErrInvalidParameter)
		}
		action = editor.Fill(req.From, *req.To, t)
	}
	if err := s.ws.Apply(action); err != nil {
		return nil, err
	}
	return s.changed(), nil
}

func (s *pathService) undo(r *http.Request) (*protocol.GridResponse, error) {
	if err := s.ws.Undo(); err != nil {
		return nil, err
	}
	return s.changed(), nil
}

func (s *pathService) redo(r *http.Request) (*protocol.GridResponse, error) {
	if err := s.ws.Redo(); err != nil {
		return nil, err
	}
	return s.changed(), nil
}

func (s *pathService) changed() *protocol.GridResponse {
	resp := s.gridResponse()
	logger.Debugf("grid changed: %dx%d", resp.Rows, resp.Cols)
	if s.onGridChanged != nil {
		s.onGridChanged(resp)
	}
	return resp
}

func (s *pathService) gridResponse() *protocol.GridResponse {
	g := s.ws.Grid()
	canUndo, canRedo := s.ws.State()
	return &protocol.GridResponse{
		Rows:    g.Rows(),
		Cols:    g.Cols(),
		Lines:   g.Lines(),
		CanUndo: canUndo,
		CanRedo: canRedo,
	}
}
