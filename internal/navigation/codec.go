package navigation

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/nano/citypath/pkg/astar"
	"github.com/nano/citypath/pkg/coord"
	"github.com/nano/citypath/pkg/errutil"
)

// Worker frames are big-endian. A find frame is findHeader followed by
// rows*cols passability bytes and, when HasWeights is set, rows*cols float64
// weights. A result frame is resultHeader followed by Length (r, c) int32
// pairs; a failure frame carries Length message bytes instead.
const (
	kindFind    uint8 = 1
	kindResult  uint8 = 2
	kindFailure uint8 = 3

	maxFrameCells = 1 << 24
)

type findHeader struct {
	Kind       uint8
	ID         [16]byte
	Movement   uint8
	Frontier   uint8
	Scale      float64
	StartR     int32
	StartC     int32
	GoalR      int32
	GoalC      int32
	Rows       int32
	Cols       int32
	HasWeights uint8
}

type resultHeader struct {
	Kind     uint8
	ID       [16]byte
	Found    uint8
	Cost     float64
	Expanded int32
	Length   int32
}

// findRequest is a self-contained search job.
type findRequest struct {
	ID        uuid.UUID
	Heuristic astar.Heuristic
	Frontier  astar.FrontierKind
	Start     coord.Cell
	Goal      coord.Cell
	Problem   astar.Problem
}

type findResponse struct {
	ID      uuid.UUID
	Result  astar.Result
	Failure string
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: malformed frame: %s", errutil.ErrWorkerTransport, fmt.Sprintf(format, args...))
}

func encodeFind(req *findRequest) ([]byte, error) {
	p := &req.Problem
	n := p.Rows * p.Cols
	if p.Rows > 0 && p.Cols > 0 && int64(p.Rows)*int64(p.Cols) > maxFrameCells {
		// too large to ship; the caller may still search it in-process
		return nil, fmt.Errorf("%w: %dx%d exceeds the %d cell frame limit", errutil.ErrWorkerTransport, p.Rows, p.Cols, maxFrameCells)
	}
	if n <= 0 || len(p.Passable) != n || (p.Weights != nil && len(p.Weights) != n) {
		return nil, fmt.Errorf("%w: cannot frame %dx%d problem", errutil.ErrMaskSize, p.Rows, p.Cols)
	}
	h := findHeader{
		Kind:     kindFind,
		ID:       req.ID,
		Movement: uint8(req.Heuristic.Movement),
		Frontier: uint8(req.Frontier),
		Scale:    req.Heuristic.Scale,
		StartR:   int32(req.Start.R),
		StartC:   int32(req.Start.C),
		GoalR:    int32(req.Goal.R),
		GoalC:    int32(req.Goal.C),
		Rows:     int32(p.Rows),
		Cols:     int32(p.Cols),
	}
	if p.Weights != nil {
		h.HasWeights = 1
	}
	buf := bytes.NewBuffer(make([]byte, 0, binary.Size(h)+n*9))
	if err := binary.Write(buf, binary.BigEndian, &h); err != nil {
		return nil, err
	}
	buf.Write(p.Passable)
	if p.Weights != nil {
		if err := binary.Write(buf, binary.BigEndian, p.Weights); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeFind(frame []byte) (*findRequest, error) {
	r := bytes.NewReader(frame)
	var h findHeader
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, malformed("find header: %v", err)
	}
	if h.Kind != kindFind {
		return nil, malformed("kind %d, want find", h.Kind)
	}
	if h.Rows <= 0 || h.Cols <= 0 || int64(h.Rows)*int64(h.Cols) > maxFrameCells {
		return nil, malformed("dimensions %dx%d", h.Rows, h.Cols)
	}
	n := int(h.Rows) * int(h.Cols)
	req := &findRequest{
		ID:        uuid.UUID(h.ID),
		Heuristic: astar.Heuristic{Movement: astar.Movement(h.Movement), Scale: h.Scale},
		Frontier:  astar.FrontierKind(h.Frontier),
		Start:     coord.New(int(h.StartR), int(h.StartC)),
		Goal:      coord.New(int(h.GoalR), int(h.GoalC)),
		Problem: astar.Problem{
			Rows:     int(h.Rows),
			Cols:     int(h.Cols),
			Passable: make([]uint8, n),
		},
	}
	if _, err := io.ReadFull(r, req.Problem.Passable); err != nil {
		return nil, malformed("passability: %v", err)
	}
	if h.HasWeights != 0 {
		req.Problem.Weights = make([]float64, n)
		if err := binary.Read(r, binary.BigEndian, req.Problem.Weights); err != nil {
			return nil, malformed("weights: %v", err)
		}
	}
	if r.Len() != 0 {
		return nil, malformed("%d trailing bytes", r.Len())
	}
	return req, nil
}

func encodeResult(resp *findResponse) []byte {
	h := resultHeader{
		Kind:     kindResult,
		ID:       resp.ID,
		Cost:     resp.Result.Cost,
		Expanded: int32(resp.Result.Expanded),
		Length:   int32(len(resp.Result.Path)),
	}
	if resp.Result.Found {
		h.Found = 1
	}
	buf := bytes.NewBuffer(make([]byte, 0, binary.Size(h)+len(resp.Result.Path)*8))
	_ = binary.Write(buf, binary.BigEndian, &h)
	pairs := make([]int32, 0, 2*len(resp.Result.Path))
	for _, c := range resp.Result.Path {
		pairs = append(pairs, int32(c.R), int32(c.C))
	}
	_ = binary.Write(buf, binary.BigEndian, pairs)
	return buf.Bytes()
}

func encodeFailure(id uuid.UUID, msg string) []byte {
	h := resultHeader{Kind: kindFailure, ID: id, Length: int32(len(msg))}
	buf := bytes.NewBuffer(make([]byte, 0, binary.Size(h)+len(msg)))
	_ = binary.Write(buf, binary.BigEndian, &h)
	buf.WriteString(msg)
	return buf.Bytes()
}

func decodeResult(frame []byte) (*findResponse, error) {
	r := bytes.NewReader(frame)
	var h resultHeader
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, malformed("result header: %v", err)
	}
	if h.Length < 0 || int64(h.Length) > maxFrameCells {
		return nil, malformed("length %d", h.Length)
	}
	resp := &findResponse{ID: uuid.UUID(h.ID)}
	switch h.Kind {
	case kindFailure:
		msg := make([]byte, h.Length)
		if _, err := io.ReadFull(r, msg); err != nil {
			return nil, malformed("failure message: %v", err)
		}
		resp.Failure = string(msg)
	case kindResult:
		pairs := make([]int32, 2*int(h.Length))
		if err := binary.Read(r, binary.BigEndian, pairs); err != nil {
			return nil, malformed("path: %v", err)
		}
		resp.Result = astar.Result{Cost: h.Cost, Expanded: int(h.Expanded), Found: h.Found != 0}
		if h.Length > 0 {
			resp.Result.Path = make([]coord.Cell, h.Length)
			for i := range resp.Result.Path {
				resp.Result.Path[i] = coord.New(int(pairs[2*i]), int(pairs[2*i+1]))
			}
		}
	default:
		return nil, malformed("kind %d, want result or failure", h.Kind)
	}
	if r.Len() != 0 {
		return nil, malformed("%d trailing bytes", r.Len())
	}
	return resp, nil
}

// frameID extracts the request id from any frame long enough to carry one.
func frameID(frame []byte) (uuid.UUID, bool) {
	var id uuid.UUID
	if len(frame) < 1+len(id) {
		return id, false
	}
	copy(id[:], frame[1:1+len(id)])
	return id, true
}
