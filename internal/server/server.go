// Package server implements a UDS/TCP server for the replication engine:
// a control listener accepting newline-delimited text commands, and a
// data listener accepting one short-lived connection per binary payload.
// The server parses commands into the same pkg/builder calls the native
// API uses; only the transport differs.
package server

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/replicest/replicest/internal/metrics"
	"github.com/replicest/replicest/internal/wire"
	"github.com/replicest/replicest/pkg/builder"
	"github.com/replicest/replicest/pkg/core"
	"github.com/replicest/replicest/pkg/estimate"
	"github.com/replicest/replicest/pkg/replicate"
)

// Server owns the control and data listeners and routes data-channel
// payloads to the most recently active session; it does not track
// multiple simultaneous clients.
type Server struct {
	ControlAddr string
	DataAddr    string
	Logger      *slog.Logger
	Metrics     *metrics.Server

	// Verbose, when set, logs a one-line analysis summary before every
	// calculate command runs.
	Verbose bool

	mu     sync.Mutex
	active *Session

	controlLn net.Listener
	dataLn    net.Listener
}

// New returns a Server listening on the given control and data
// endpoints. Each endpoint is either a "host:port" TCP address or a
// filesystem path for a Unix domain socket.
func New(controlAddr, dataAddr string, logger *slog.Logger, m *metrics.Server) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Server{ControlAddr: controlAddr, DataAddr: dataAddr, Logger: logger, Metrics: m}
}

// listen opens a net.Listener on addr, using a Unix domain socket when
// addr does not parse as a TCP host:port and instead looks like a
// filesystem path.
func listen(addr string) (net.Listener, error) {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return net.Listen("tcp", addr)
	}
	_ = os.Remove(addr)
	return net.Listen("unix", addr)
}

// Run opens both listeners and serves control connections until a client
// sends "shutdown" (returns nil, exit code 0) or a listener fails to bind
// or accept (returns the underlying error, exit code non-zero).
func (s *Server) Run() error {
	controlLn, err := listen(s.ControlAddr)
	if err != nil {
		return fmt.Errorf("replicest: bind control endpoint %s: %w", s.ControlAddr, err)
	}
	s.controlLn = controlLn
	defer controlLn.Close()

	dataLn, err := listen(s.DataAddr)
	if err != nil {
		return fmt.Errorf("replicest: bind data endpoint %s: %w", s.DataAddr, err)
	}
	s.dataLn = dataLn
	defer dataLn.Close()

	done := make(chan error, 1)
	go s.serveData()
	go s.serveControl(done)

	return <-done
}

func (s *Server) serveData() {
	for {
		conn, err := s.dataLn.Accept()
		if err != nil {
			s.Logger.Error("data listener accept failed", "error", err)
			return
		}
		go s.handleDataConn(conn)
	}
}

func (s *Server) handleDataConn(conn net.Conn) {
	defer conn.Close()

	s.mu.Lock()
	sess := s.active
	s.mu.Unlock()

	if sess == nil {
		s.Logger.Warn("data payload arrived with no active session")
		s.Metrics.ProtocolErrors.Inc()
		return
	}

	p, ok := sess.NextPending()
	if !ok {
		s.Logger.Warn("data payload arrived with nothing announced")
		s.Metrics.ProtocolErrors.Inc()
		return
	}

	rows, err := wire.DecodeMatrix(conn, p.rows, p.cols)
	if err != nil {
		s.Logger.Warn("short or malformed data payload", "error", err)
		s.Metrics.ProtocolErrors.Inc()
		return
	}
	p.apply(rows)
}

func (s *Server) serveControl(done chan<- error) {
	for {
		conn, err := s.controlLn.Accept()
		if err != nil {
			done <- fmt.Errorf("replicest: control listener accept failed: %w", err)
			return
		}
		go s.handleControlConn(conn, done)
	}
}

func (s *Server) handleControlConn(conn net.Conn, done chan<- error) {
	defer conn.Close()

	sess := NewSession()
	s.mu.Lock()
	s.active = sess
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.active == sess {
			s.active = nil
		}
		s.mu.Unlock()
	}()

	scanner := bufio.NewScanner(conn)
	writer := bufio.NewWriter(conn)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		result := s.dispatch(sess, line)
		switch {
		case result.err != nil:
			s.Metrics.ProtocolErrors.Inc()
			fmt.Fprintln(writer, wire.ErrorLine(result.err))
		case result.raw != nil:
			writer.Write(result.raw)
		case result.reply != "":
			fmt.Fprintln(writer, result.reply)
		}
		writer.Flush()

		if result.stop {
			done <- nil
			return
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		s.Logger.Warn("control connection read error", "error", err)
	}
}

// dispatchResult is what a single control command produces: a text
// acknowledgement, a raw framed payload (the calculate response), a
// stop signal, or a structural error to report back to the client.
type dispatchResult struct {
	reply string
	raw   []byte
	stop  bool
	err   error
}

func ack() dispatchResult           { return dispatchResult{reply: wire.Ok} }
func fail(err error) dispatchResult { return dispatchResult{err: err} }

// dispatch handles one control-channel command.
func (s *Server) dispatch(sess *Session, line string) dispatchResult {
	cmd, err := wire.ParseCommand(line)
	if err != nil {
		return fail(err)
	}
	s.Metrics.Commands.WithLabelValues(cmd.Verb).Inc()

	switch cmd.Verb {
	case "data":
		dims, err := cmd.ParseIntArgs(2)
		if err != nil {
			return fail(err)
		}
		sess.QueueData(dims[0], dims[1])
		return ack()

	case "groups":
		dims, err := cmd.ParseIntArgs(2)
		if err != nil {
			return fail(err)
		}
		sess.QueueGroups(dims[0], dims[1])
		return ack()

	case "weights":
		rows, ok := sess.DataRows()
		if !ok {
			return fail(fmt.Errorf("replicest: weights before data"))
		}
		sess.QueueWeights(rows)
		return ack()

	case "replicate":
		if len(cmd.Args) < 2 || cmd.Args[0] != "weights" {
			return fail(fmt.Errorf("replicest: malformed %q, want \"replicate weights <n_rep>\"", line))
		}
		nRep, err := strconv.Atoi(cmd.Args[1])
		if err != nil {
			return fail(fmt.Errorf("replicest: replicate weights n_rep %q: %w", cmd.Args[1], err))
		}
		rows, ok := sess.DataRows()
		if !ok {
			return fail(fmt.Errorf("replicest: replicate weights before data"))
		}
		sess.QueueReplicateWeights(rows, nRep)
		return ack()

	case "variables":
		cols := make([]int, len(cmd.Args))
		for i, a := range cmd.Args {
			v, err := strconv.Atoi(a)
			if err != nil {
				return fail(fmt.Errorf("replicest: variable index %q: %w", a, err))
			}
			cols[i] = v
		}
		sess.SetVariables(cols)
		return ack()

	case "group_by":
		if len(cmd.Args) == 0 {
			return fail(fmt.Errorf("replicest: group_by requires a column index"))
		}
		col, err := strconv.Atoi(cmd.Args[0])
		if err != nil {
			return fail(fmt.Errorf("replicest: group_by column %q: %w", cmd.Args[0], err))
		}
		var values []float64
		if len(cmd.Args) > 1 {
			values = make([]float64, len(cmd.Args)-1)
			for i, a := range cmd.Args[1:] {
				v, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fail(fmt.Errorf("replicest: group_by value %q: %w", a, err))
				}
				values[i] = v
			}
		}
		sess.SetGroupBy(col, values)
		return ack()

	case "factor":
		if len(cmd.Args) != 1 {
			return fail(fmt.Errorf("replicest: factor requires exactly one value"))
		}
		f, err := strconv.ParseFloat(cmd.Args[0], 64)
		if err != nil {
			return fail(fmt.Errorf("replicest: factor %q: %w", cmd.Args[0], err))
		}
		sess.SetFactor(f)
		return ack()

	case "mean", "quantiles", "frequencies", "correlation", "linreg":
		kind, _ := estimate.ParseKind(cmd.Verb)
		opts, err := cmd.ParseOptionArgs()
		if err != nil {
			return fail(err)
		}
		sess.SetEstimator(kind, opts)
		return ack()

	case "calculate":
		raw, err := s.calculate(sess)
		if err != nil {
			return fail(err)
		}
		return dispatchResult{raw: raw}

	case "shutdown":
		return dispatchResult{reply: wire.Ok, stop: true}

	default:
		return fail(fmt.Errorf("replicest: unknown command %q", cmd.Verb))
	}
}

// calculate freezes the session's accumulated builder calls and runs
// them through pkg/builder, returning the MessagePack-encoded response
// sent as the next control-channel message.
func (s *Server) calculate(sess *Session) ([]byte, error) {
	if !sess.hasKind {
		return nil, fmt.Errorf("replicest: calculate before an estimator command")
	}

	start := time.Now()
	defer func() { s.Metrics.CalculateDuration.Observe(time.Since(start).Seconds()) }()

	data, err := sess.mergedData()
	if err != nil {
		return nil, err
	}

	b := builder.New().
		WithData(data).
		WithWeights(sess.w).
		WithReplicateWeights(sess.r).
		WithVariables(sess.columns).
		WithFactor(sess.factor)
	if sess.hasGroupCol {
		b = b.WithGroupBy(sess.groupCol, sess.groupValues)
	}

	if s.Verbose {
		diag := core.Analysis{Kind: sess.kind.String(), X: data, W: sess.w}
		s.Logger.Info("calculate", "session", sess.ID, "analysis", diag.Summary())
	}

	grouped, err := b.Calculate(sess.kind, sess.options)
	if err != nil {
		return nil, err
	}

	resp := make(map[string]wire.GroupResult, len(grouped))
	for key, est := range grouped {
		resp[groupKeyString(key)] = wire.GroupResult{
			ParameterNames:      est.ParameterNames,
			FinalEstimates:      est.FinalEstimates,
			SamplingVariances:   est.SamplingVariances,
			ImputationVariances: est.ImputationVariances,
			StandardErrors:      est.StandardErrors,
		}
	}

	encoded, err := wire.EncodeCalculateResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("replicest: encode calculate response: %w", err)
	}
	return encoded, nil
}

// groupKeyString flattens a replicate.GroupKey to "<column>=<value>",
// empty for the ungrouped case, matching pkg/facade's convention so
// native callers and server clients see the same key format.
func groupKeyString(k replicate.GroupKey) string {
	if !k.HasGroup {
		return ""
	}
	return strconv.Itoa(k.Column) + "=" + strconv.FormatFloat(k.Value, 'g', -1, 64)
}
