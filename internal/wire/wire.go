// Package wire implements the server's control-channel protocol: parsing
// newline-delimited text commands, framing payload announcements, and
// encoding the calculate response as MessagePack.
package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// ProtocolError distinguishes a client's malformed command or short
// payload from a server-side bug; the session converts it to an
// "error: <message>" line and stays alive rather than tearing down the
// connection.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string { return e.Msg }

// NewProtocolError builds a ProtocolError with a formatted message.
func NewProtocolError(format string, args ...any) *ProtocolError {
	return &ProtocolError{Msg: fmt.Sprintf(format, args...)}
}

// Command is one parsed control-channel line: the verb plus its
// remaining fields, already tokenized on whitespace.
type Command struct {
	Verb string
	Args []string
}

// ParseCommand tokenizes a single newline-delimited control line. An
// empty line yields a ProtocolError.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, NewProtocolError("empty command")
	}
	return Command{Verb: fields[0], Args: fields[1:]}, nil
}

// ParseIntArgs parses n positional integer arguments starting at Args[0].
func (c Command) ParseIntArgs(n int) ([]int, error) {
	if len(c.Args) < n {
		return nil, NewProtocolError("%s: expected %d integer arguments, got %d", c.Verb, n, len(c.Args))
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := strconv.Atoi(c.Args[i])
		if err != nil {
			return nil, NewProtocolError("%s: argument %d %q is not an integer: %v", c.Verb, i, c.Args[i], err)
		}
		out[i] = v
	}
	return out, nil
}

// ParseOptionArgs parses the trailing key=value pairs an estimator
// command (mean, quantiles, frequencies, correlation, linreg) may carry.
func (c Command) ParseOptionArgs() (map[string]string, error) {
	opts := make(map[string]string, len(c.Args))
	for _, arg := range c.Args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, NewProtocolError("%s: option %q is not key=value", c.Verb, arg)
		}
		opts[k] = v
	}
	return opts, nil
}

// Ok is the acknowledgement text for every control command except
// calculate.
const Ok = "ok"

// ErrorLine formats a structural error as the "error: <message>" line the
// server emits while staying alive.
func ErrorLine(err error) string {
	return "error: " + err.Error()
}

// EncodeCalculateResponse MessagePack-encodes the calculate response: a
// mapping from the flattened group key to its ReplicatedEstimates.
func EncodeCalculateResponse(byGroup map[string]GroupResult) ([]byte, error) {
	return msgpack.Marshal(byGroup)
}

// GroupResult is the per-group payload of the calculate response,
// mirroring pkg/replicate.Estimates with msgpack field tags.
type GroupResult struct {
	ParameterNames      []string  `msgpack:"parameter_names"`
	FinalEstimates      []float64 `msgpack:"final_estimates"`
	SamplingVariances   []float64 `msgpack:"sampling_variances"`
	ImputationVariances []float64 `msgpack:"imputation_variances"`
	StandardErrors      []float64 `msgpack:"standard_errors"`
}
