package wavpack

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	"golang.org/x/sync/errgroup"
)

// pipeWaitDelay bounds how long Wait keeps copying output after the child
// exited or ctx was cancelled.
const pipeWaitDelay = 2 * time.Second

// Result is the outcome of one external invocation.
type Result struct {
	RunID    string
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// SoftFailure reports whether the process exited non-zero but still
// produced output, which Run accepts as success.
func (r *Result) SoftFailure() bool {
	return r.ExitCode != 0
}

// Run executes argv, feeds input to its stdin and collects stdout and stderr.
//
// The stdin writer and both readers run concurrently, so inputs and outputs
// larger than the OS pipe buffers cannot deadlock. The child is always
// waited on before Run returns. Cancelling ctx kills the child; a child
// that already exited keeps its result.
//
// A non-zero exit with empty stdout is a *CodecError. A non-zero exit with
// output is returned as a successful Result; see Result.SoftFailure.
func Run(ctx context.Context, argv []string, input []byte) (*Result, error) {
	return run(ctx, zerolog.Nop(), argv, input)
}

func run(ctx context.Context, logger zerolog.Logger, argv []string, input []byte) (*Result, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrUsage)
	}

	res := &Result{RunID: ksuid.New().String()}
	program := filepath.Base(argv[0])
	logger = logger.With().Str("run_id", res.RunID).Str("program", program).Logger()

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	// A grandchild that inherited the output pipes must not hold Wait
	// open once the child itself is gone.
	cmd.WaitDelay = pipeWaitDelay

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	// Start closes every pipe itself when it fails
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", program, err)
	}

	pid := cmd.Process.Pid
	monitor := GetMonitor()
	monitor.TrackProcess(pid)
	defer monitor.UntrackProcess(pid)

	logger.Debug().
		Strs("argv", argv).
		Int("pid", pid).
		Int("input_bytes", len(input)).
		Msg("process started")

	// stdout and stderr are drained by exec's own copiers while this
	// goroutine feeds stdin, so neither side can fill a pipe buffer and
	// stall the other.
	var (
		g        errgroup.Group
		writeErr error
	)
	g.Go(func() error {
		// A child that exits early breaks the pipe; its exit status
		// decides the outcome, so the write error is only kept.
		_, writeErr = stdin.Write(input)
		if err := stdin.Close(); err != nil && writeErr == nil {
			writeErr = err
		}
		return nil
	})

	// Wait closes the stdin pipe, which unblocks a writer stuck on a
	// child that stopped reading.
	waitErr := cmd.Wait()
	_ = g.Wait()
	elapsed := time.Since(start)

	res.Stdout = stdoutBuf.Bytes()
	res.Stderr = stderrBuf.Bytes()
	res.ExitCode = cmd.ProcessState.ExitCode()

	// A child that finished on its own keeps its result even if ctx
	// expired in the meantime.
	if ctxErr := ctx.Err(); ctxErr != nil && waitErr != nil {
		monitor.RecordResult(program, statusError, elapsed)
		return nil, fmt.Errorf("%s interrupted: %w", program, ctxErr)
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		monitor.RecordResult(program, statusError, elapsed)
		return nil, fmt.Errorf("failed to wait for %s: %w", program, waitErr)
	}

	event := logger.Debug().
		Int("pid", pid).
		Int("exit_code", res.ExitCode).
		Int("output_bytes", len(res.Stdout)).
		Dur("elapsed", elapsed)

	switch {
	case res.ExitCode == 0 && writeErr != nil:
		// The child never saw all of its input.
		monitor.RecordResult(program, statusError, elapsed)
		return nil, fmt.Errorf("failed to write %s input: %w", program, writeErr)

	case res.ExitCode == 0:
		monitor.RecordResult(program, statusSuccess, elapsed)
		event.Msg("process finished")

	case len(res.Stdout) == 0:
		monitor.RecordResult(program, statusError, elapsed)
		event.Msg("process failed")
		return nil, &CodecError{
			Program:  program,
			ExitCode: res.ExitCode,
			Stderr:   string(res.Stderr),
			RunID:    res.RunID,
		}

	default:
		// Some wavpack builds report warnings through the exit status
		// while still writing a usable stream.
		monitor.RecordResult(program, statusSoft, elapsed)
		logger.Warn().
			Int("exit_code", res.ExitCode).
			Int("output_bytes", len(res.Stdout)).
			Str("stderr", string(res.Stderr)).
			Msg("process exited non-zero but produced output")
	}

	return res, nil
}
