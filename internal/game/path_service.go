package game

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lonng/nano"
	"github.com/lonng/nano/component"
	"github.com/lonng/nano/serialize/json"
	"github.com/lonng/nano/session"
	log "github.com/sirupsen/logrus"

	"github.com/nano/citypath/internal/navigation"
	"github.com/nano/citypath/pkg/async"
	"github.com/nano/citypath/protocol"
)

const (
	OnPathFound   = "onPathFound"
	OnGridChanged = "onGridChanged"

	defaultQueryTimeout = 10 * time.Second
)

var logger = log.WithField("component", "game")

// PathService answers path queries over nano sessions. FindPath acknowledges
// at once and pushes the route as onPathFound when the search completes.
type PathService struct {
	component.Base
	finder   *navigation.PathFinder
	group    *nano.Group // 订阅地图变更的session
	validate *validator.Validate
	timeout  time.Duration
}

func NewPathService(finder *navigation.PathFinder, timeout time.Duration) *PathService {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &PathService{
		finder:   finder,
		group:    nano.NewGroup("_PATH_GRID_BROADCAST"),
		validate: validator.New(),
		timeout:  timeout,
	}
}

func (ps *PathService) AfterInit() {
	session.Lifetime.OnClosed(func(s *session.Session) {
		ps.group.Leave(s)
	})
}

// nano的handler都在同一条线程中执行, 搜索必须异步
func (ps *PathService) FindPath(s *session.Session, req *protocol.FindPathRequest) error {
	if err := ps.validate.Struct(req); err != nil {
		return err
	}
	if err := ps.group.Add(s); err != nil && !errors.Is(err, nano.ErrSessionDuplication) {
		logger.Warnf("session %d join group: %v", s.ID(), err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), ps.timeout)
	ch := ps.finder.FindPathAsync(ctx, req.Start, req.Goal)
	if err := s.Response(&protocol.FindPathAck{Seq: req.Seq}); err != nil {
		cancel()
		return err
	}
	async.Run(func() {
		defer cancel()
		reply := <-ch
		if err := s.Push(OnPathFound, pathFoundPush(req.Seq, reply)); err != nil {
			logger.Errorf("push %s to session %d: %v", OnPathFound, s.ID(), err)
		}
	})
	return nil
}

// GridChanged tells every session that has queried a path that the grid changed.
func (ps *PathService) GridChanged(grid *protocol.GridResponse) {
	if err := ps.group.Broadcast(OnGridChanged, grid); err != nil {
		logger.Errorf("broadcast %s: %v", OnGridChanged, err)
	}
}

func pathFoundPush(seq int64, reply navigation.Reply) *protocol.PathFoundPush {
	push := &protocol.PathFoundPush{Seq: seq}
	if reply.Err != nil {
		push.Error = reply.Err.Error()
		return push
	}
	push.Route = RouteResponse(reply.Route)
	return push
}

func RouteResponse(r *navigation.Route) *protocol.FindPathResponse {
	return &protocol.FindPathResponse{
		Found:    r.Found,
		Cached:   r.Cached,
		Cost:     r.Cost,
		Expanded: r.Expanded,
		Path:     r.Path,
	}
}

// Startup serves the component over websocket and blocks until the server stops.
func Startup(addr string, ps *PathService) {
	comps := &component.Components{}
	comps.Register(ps)
	logger.Infof("nano path service listening on %s", addr)
	nano.Listen(addr,
		nano.WithIsWebsocket(true),
		nano.WithWSPath("/nano"),
		nano.WithCheckOriginFunc(func(*http.Request) bool { return true }),
		nano.WithComponents(comps),
		nano.WithSerializer(json.NewSerializer()),
	)
}
