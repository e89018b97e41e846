package server

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/replicest/replicest/pkg/core"
	"github.com/replicest/replicest/pkg/estimate"
)

// pendingPayload describes one payload announcement waiting for a data
// connection: the shape the server expects next on the data socket, and
// what to do with the decoded rows once they arrive. Queued and drained
// strictly FIFO, matching the order announcements arrive on the control
// channel.
type pendingPayload struct {
	rows, cols int
	apply      func(rows [][]float64)
}

// Session accumulates one client's builder calls between control-channel
// commands: the data/groups/weights/replicate-weights matrices announced
// so far, the column selection, grouping, variance factor, and estimator
// choice. A session holds at most one pending analysis.
type Session struct {
	ID uuid.UUID

	mu sync.Mutex

	x        []*core.Matrix
	groups   []*core.Matrix
	w        [][]float64
	r        []*core.Matrix
	dataRows int
	hasData  bool

	columns []int

	hasGroupCol bool
	groupCol    int
	groupValues []float64

	factor float64

	hasKind bool
	kind    estimate.Kind
	options map[string]string

	pending []pendingPayload
}

// NewSession returns a session with the factor defaulted to 1, matching
// pkg/builder.New's default.
func NewSession() *Session {
	return &Session{ID: uuid.New(), factor: 1}
}

// QueueData announces that n_rows x n_cols payloads will follow on the
// data channel, one per imputation, per the "data <n_rows> <n_cols>"
// command. Each payload appends a new imputation.
func (s *Session) QueueData(rows, cols int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataRows = rows
	s.hasData = true
	s.pending = append(s.pending, pendingPayload{
		rows: rows, cols: cols,
		apply: func(data [][]float64) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.x = append(s.x, core.FromRows(data))
		},
	})
}

// QueueGroups announces a grouping-column payload per "groups <n_rows>
// <n_cols>". Its columns are appended to the matching imputation's data
// matrix just before Calculate, so the group-by column index is resolved
// against the combined column space.
func (s *Session) QueueGroups(rows, cols int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, pendingPayload{
		rows: rows, cols: cols,
		apply: func(data [][]float64) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.groups = append(s.groups, core.FromRows(data))
		},
	})
}

// QueueWeights announces one weight-vector payload per "weights".
func (s *Session) QueueWeights(rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, pendingPayload{
		rows: rows, cols: 1,
		apply: func(data [][]float64) {
			col := make([]float64, len(data))
			for i, row := range data {
				col[i] = row[0]
			}
			s.mu.Lock()
			defer s.mu.Unlock()
			s.w = append(s.w, col)
		},
	})
}

// QueueReplicateWeights announces one replicate-weight matrix payload
// per imputation, per "replicate weights <n_rep>".
func (s *Session) QueueReplicateWeights(rows, nRep int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, pendingPayload{
		rows: rows, cols: nRep,
		apply: func(data [][]float64) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.r = append(s.r, core.FromRows(data))
		},
	})
}

// DataRows reports the row count announced by the most recent "data"
// command, and whether one has been announced yet. weights and replicate
// weights commands size their own payloads from this rather than from
// the (possibly not-yet-decoded) data matrices themselves.
func (s *Session) DataRows() (rows int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataRows, s.hasData
}

// NextPending pops the oldest pending payload announcement, or reports ok
// = false if the queue is empty (a protocol violation: a data connection
// arrived with nothing announced for it).
func (s *Session) NextPending() (pendingPayload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return pendingPayload{}, false
	}
	p := s.pending[0]
	s.pending = s.pending[1:]
	return p, true
}

// SetVariables records the column-selection command.
func (s *Session) SetVariables(columns []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.columns = columns
}

// SetGroupBy records the group_by command. A nil values means "every
// observed value".
func (s *Session) SetGroupBy(col int, values []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasGroupCol = true
	s.groupCol = col
	s.groupValues = values
}

// SetFactor records the factor command.
func (s *Session) SetFactor(f float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factor = f
}

// SetEstimator records the chosen estimator and its options, per the
// mean/quantiles/frequencies/correlation/linreg commands.
func (s *Session) SetEstimator(kind estimate.Kind, options map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasKind = true
	s.kind = kind
	s.options = options
}

// mergedData returns each imputation's data matrix with its matching
// groups payload (if any) appended as trailing columns, so a group_by
// column index addresses the combined column space. It returns an error
// when the groups payloads do not match the data in count or rows.
func (s *Session) mergedData() ([]*core.Matrix, error) {
	if len(s.groups) == 0 {
		return s.x, nil
	}
	if len(s.groups) != len(s.x) {
		return nil, fmt.Errorf("replicest: %d groups payloads for %d imputations", len(s.groups), len(s.x))
	}
	out := make([]*core.Matrix, len(s.x))
	for i, x := range s.x {
		g := s.groups[i]
		if g.R != x.R {
			return nil, fmt.Errorf("replicest: groups payload %d has %d rows, data has %d", i, g.R, x.R)
		}
		merged := core.NewMatrix(x.R, x.C+g.C)
		for row := 0; row < x.R; row++ {
			for c := 0; c < x.C; c++ {
				merged.Set(row, c, x.At(row, c))
			}
			for c := 0; c < g.C; c++ {
				merged.Set(row, x.C+c, g.At(row, c))
			}
		}
		out[i] = merged
	}
	return out, nil
}
