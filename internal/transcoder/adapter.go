package transcoder

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"hound/internal/config"
	"hound/internal/logging"
	"hound/internal/services"
)

// stderrTailLines is how many trailing output lines are kept for diagnostics.
const stderrTailLines = 20

// Result is the interpreted outcome of one transcode process.
type Result struct {
	ExitCode   int
	Duration   time.Duration
	OutputSize int64
	Rescued    bool
	StderrTail string
}

// Process is a running transcode. The caller polls Done between coordinator
// cycles instead of blocking on it.
type Process struct {
	SourcePath string
	OutputPath string

	cmd     *exec.Cmd
	started time.Time
	tail    *tailBuffer
	done    chan struct{}
	waitErr error
	drained sync.WaitGroup
}

// Done is closed once the process has exited and its output is drained.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Finished reports whether the process has exited, without blocking.
func (p *Process) Finished() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Adapter launches and interprets transcode processes.
type Adapter struct {
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
}

// New constructs an adapter.
func New(cfg *config.Config, logger *slog.Logger) *Adapter {
	return &Adapter{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "transcoder"),
		now:    time.Now,
	}
}

// Start launches a transcode of inputPath into outputPath. The child's
// output is drained by a background goroutine so a chatty tool can never
// fill its pipe and stall.
func (a *Adapter) Start(ctx context.Context, sourcePath, inputPath, outputPath string, selection Selection) (*Process, error) {
	log := logging.WithContext(ctx, a.logger)
	args := BuildArgs(&a.cfg.Transcoder, selection, a.cfg.Classify.TargetBitrateKbps, inputPath, outputPath)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = io.Discard
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "encode", "start", "open stderr pipe", err)
	}

	proc := &Process{
		SourcePath: sourcePath,
		OutputPath: outputPath,
		cmd:        cmd,
		tail:       newTailBuffer(stderrTailLines),
		done:       make(chan struct{}),
	}

	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "encode", "start",
			fmt.Sprintf("launch %s", args[0]), err)
	}
	proc.started = a.now()

	if err := setPriority(cmd.Process.Pid, a.cfg.Transcoder.NiceLevel); err != nil {
		log.Warn("failed to renice transcode process", logging.Error(err))
	}

	proc.drained.Add(1)
	go func() {
		defer proc.drained.Done()
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		scanner.Split(scanProgressLines)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			proc.tail.Add(line)
			log.Debug("transcoder output", logging.String("line", line))
		}
		// The scanner stops on oversized output. Keep the pipe moving no
		// matter what the child writes, or it blocks and never exits.
		_, _ = io.Copy(io.Discard, stderr)
	}()

	go func() {
		proc.drained.Wait()
		proc.waitErr = cmd.Wait()
		close(proc.done)
	}()

	log.Info("transcode started",
		logging.String("path", sourcePath),
		logging.String("output", outputPath),
		logging.Int("pid", cmd.Process.Pid),
	)
	return proc, nil
}

// Collect interprets a finished process. It returns an ErrExternalTool error
// for a failed transcode unless the rescue heuristic accepts the output. The
// caller must only invoke Collect after Done is closed.
func (a *Adapter) Collect(proc *Process) (Result, error) {
	result := Result{
		Duration:   a.now().Sub(proc.started),
		StderrTail: proc.tail.String(),
	}
	if proc.waitErr != nil {
		if exitErr, ok := proc.waitErr.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
	}
	if info, err := os.Stat(proc.OutputPath); err == nil {
		result.OutputSize = info.Size()
	}

	if result.ExitCode == 0 {
		return result, nil
	}

	if a.rescue(result) {
		result.Rescued = true
		a.logger.Warn("accepting output despite nonzero exit",
			logging.String("path", proc.SourcePath),
			logging.Int("exit_code", result.ExitCode),
			logging.Int64("output_bytes", result.OutputSize),
		)
		return result, nil
	}

	return result, services.Wrap(services.ErrExternalTool, "encode", "wait",
		fmt.Sprintf("transcoder exited %d: %s", result.ExitCode, lastLine(result.StderrTail)), proc.waitErr)
}

// rescue applies the configured heuristic: a nonzero exit still counts when
// the run lasted long enough and produced a plausibly complete file.
func (a *Adapter) rescue(result Result) bool {
	t := a.cfg.Transcoder
	if !t.RescueHeuristic {
		return false
	}
	if result.OutputSize < t.RescueMinSizeMiB*1024*1024 {
		return false
	}
	return result.Duration >= time.Duration(t.RescueMinSeconds)*time.Second
}

// scanProgressLines splits on newline or carriage return, so a tool that
// redraws one progress line with bare \r still yields bounded tokens.
func scanProgressLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func lastLine(tail string) string {
	tail = strings.TrimSpace(tail)
	if idx := strings.LastIndexByte(tail, '\n'); idx >= 0 {
		return tail[idx+1:]
	}
	return tail
}

// tailBuffer retains the last n lines written to it.
type tailBuffer struct {
	mu    sync.Mutex
	lines []string
	limit int
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Add(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	if len(b.lines) > b.limit {
		b.lines = b.lines[len(b.lines)-b.limit:]
	}
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "\n")
}
