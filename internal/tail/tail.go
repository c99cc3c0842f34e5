// Package tail follows a growing log file and collapses repeated lines as
// they arrive.
//
// A line that starts a new run is written immediately. When a run of
// equivalent lines ends, the number of repeats is reported once, in the
// style of syslog's "last message repeated N times".
package tail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/bimmerbailey/quell/internal/config"
	"github.com/bimmerbailey/quell/internal/dedup"
	"github.com/bimmerbailey/quell/internal/parser"
	"github.com/fsnotify/fsnotify"
)

// ErrRotated is returned when the file is rotated and FollowRotate is off.
var ErrRotated = errors.New("file rotated")

const (
	maxLineSize = 1024 * 1024

	// bytesPerLineGuess sizes the initial backwards read.
	bytesPerLineGuess = 300

	rotateWait = 10 * time.Second
	rotatePoll = 100 * time.Millisecond
)

// Options configures the tailer behavior.
type Options struct {
	FilePath     string
	Lines        int  // Number of initial lines to show
	Follow       bool // Keep reading as the file grows
	FollowRotate bool // Reopen the file after rotation
	Pattern      *regexp.Regexp
	LevelFilter  config.LogLevel // Minimum level; LevelUnknown disables
	Strategy     dedup.Strategy
	Parser       *parser.Parser
	Logger       *slog.Logger

	// OutputFunc receives every entry that starts a new run.
	OutputFunc func(config.LogEntry) error

	// RepeatFunc receives a closed run that suppressed at least one entry.
	// Optional.
	RepeatFunc func(dedup.Row) error
}

// Tailer handles tailing a log file with filtering and dedup.
type Tailer struct {
	opts    Options
	parser  *parser.Parser
	logger  *slog.Logger
	deduper *dedup.Deduper
	file    *os.File
	offset  int64
	lineNum int
	watcher *fsnotify.Watcher
}

// New creates a Tailer with the given options.
func New(opts Options) *Tailer {
	p := opts.Parser
	if p == nil {
		p = parser.New(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Tailer{
		opts:    opts,
		parser:  p,
		logger:  logger,
		deduper: dedup.NewDeduper(opts.Strategy),
	}
}

// Run starts tailing. It blocks until ctx is cancelled, the file is done
// (when not following) or an error occurs. The pending run is reported
// before Run returns.
func (t *Tailer) Run(ctx context.Context) (err error) {
	if err := t.openFile(); err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer t.close()
	defer func() {
		if flushErr := t.flush(); err == nil {
			err = flushErr
		}
	}()

	if t.opts.Lines > 0 {
		if err := t.readInitialLines(); err != nil {
			return fmt.Errorf("failed to read initial lines: %w", err)
		}
	}

	if !t.opts.Follow {
		return nil
	}

	if err := t.setupWatcher(); err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}

	return t.watch(ctx)
}

func (t *Tailer) openFile() error {
	f, err := os.Open(t.opts.FilePath)
	if err != nil {
		return err
	}
	t.file = f

	stat, err := f.Stat()
	if err != nil {
		return err
	}
	t.offset = stat.Size()
	return nil
}

// readInitialLines displays the last N matching lines of the file.
func (t *Tailer) readInitialLines() error {
	stat, err := t.file.Stat()
	if err != nil {
		return err
	}
	fileSize := stat.Size()
	if fileSize == 0 {
		return nil
	}

	startPos := fileSize - int64(t.opts.Lines*bytesPerLineGuess*2)
	if startPos < 0 {
		startPos = 0
	}
	if _, err := t.file.Seek(startPos, io.SeekStart); err != nil {
		return err
	}

	scanner := newScanner(t.file)

	// skip the partial first line
	if startPos > 0 {
		scanner.Scan()
	}

	var entries []config.LogEntry
	for scanner.Scan() {
		t.lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry := t.parser.ParseLine(line, t.lineNum)
		if t.shouldDisplay(entry) {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if len(entries) > t.opts.Lines {
		entries = entries[len(entries)-t.opts.Lines:]
	}
	for _, entry := range entries {
		if err := t.emit(entry); err != nil {
			return err
		}
	}

	t.offset, err = t.file.Seek(0, io.SeekEnd)
	return err
}

func (t *Tailer) setupWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	t.watcher = watcher
	return watcher.Add(t.opts.FilePath)
}

func (t *Tailer) watch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-t.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}
			if err := t.handleEvent(ctx, event); err != nil {
				return err
			}

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func (t *Tailer) handleEvent(ctx context.Context, event fsnotify.Event) error {
	switch {
	case event.Has(fsnotify.Write):
		return t.readNewContent()
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return t.handleRotation(ctx)
	}
	return nil
}

// readNewContent reads lines appended since the last read.
func (t *Tailer) readNewContent() error {
	stat, err := t.file.Stat()
	if err != nil {
		return err
	}
	// truncated in place
	if stat.Size() < t.offset {
		t.logger.Debug("file truncated, reading from start", "path", t.opts.FilePath)
		t.offset = 0
	}

	if _, err := t.file.Seek(t.offset, io.SeekStart); err != nil {
		return err
	}

	reader := bufio.NewReaderSize(t.file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			// leave a partial line for the next write event
			break
		}
		if err != nil {
			return err
		}
		t.offset += int64(len(line))
		t.lineNum++

		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry := t.parser.ParseLine(line, t.lineNum)
		if !t.shouldDisplay(entry) {
			continue
		}
		if err := t.emit(entry); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tailer) handleRotation(ctx context.Context) error {
	if !t.opts.FollowRotate {
		return ErrRotated
	}

	if err := t.flush(); err != nil {
		return err
	}
	if t.file != nil {
		t.file.Close()
		t.file = nil
	}

	timeout := time.After(rotateWait)
	ticker := time.NewTicker(rotatePoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timeout:
			return fmt.Errorf("timeout waiting for rotated file to reappear")
		case <-ticker.C:
			f, err := os.Open(t.opts.FilePath)
			if err != nil {
				continue
			}
			t.file = f
			t.offset = 0
			t.lineNum = 0

			if err := t.watcher.Add(t.opts.FilePath); err != nil {
				return fmt.Errorf("failed to watch rotated file: %w", err)
			}
			t.logger.Info("file rotated, following new file", "path", t.opts.FilePath)
			return t.readNewContent()
		}
	}
}

// emit pushes an entry through the deduper, writing it when it starts a new
// run and reporting the run it closes.
func (t *Tailer) emit(entry config.LogEntry) error {
	closed, ok := t.deduper.Push(entry)
	if ok {
		if err := t.reportRepeats(closed); err != nil {
			return err
		}
	}

	if pending, _ := t.deduper.Pending(); pending.Duplicates > 0 {
		return nil
	}
	return t.opts.OutputFunc(entry)
}

func (t *Tailer) flush() error {
	row, ok := t.deduper.Flush()
	if !ok {
		return nil
	}
	return t.reportRepeats(row)
}

func (t *Tailer) reportRepeats(row dedup.Row) error {
	if row.Duplicates == 0 || t.opts.RepeatFunc == nil {
		return nil
	}
	return t.opts.RepeatFunc(row)
}

// shouldDisplay applies the level and pattern filters. Entries of unknown
// level pass the level filter.
func (t *Tailer) shouldDisplay(entry config.LogEntry) bool {
	if t.opts.LevelFilter != config.LevelUnknown && entry.Level != config.LevelUnknown {
		if entry.Level < t.opts.LevelFilter {
			return false
		}
	}

	if t.opts.Pattern != nil && !t.opts.Pattern.MatchString(entry.Raw) {
		return false
	}

	return true
}

func (t *Tailer) close() {
	if t.file != nil {
		t.file.Close()
	}
	if t.watcher != nil {
		t.watcher.Close()
	}
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return scanner
}
