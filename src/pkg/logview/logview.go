// Package logview follows the JSON log files of a log folder and prints new
// entries in a compact, colored form, optionally filtered by a search string.
package logview

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-json"
)

var (
	timeColor  = color.New(color.FgMagenta)
	fieldColor = color.New(color.FgCyan)
	noteColor  = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed)
	levelColor = map[string]*color.Color{
		"DEBUG": color.New(color.FgBlue),
		"INFO":  color.New(color.FgGreen),
		"WARN":  color.New(color.FgYellow),
		"ERROR": color.New(color.FgRed),
	}
)

// gapAfter is the idle time after which a separator is printed.
const gapAfter = 100 * time.Millisecond

// Entry is one decoded log line.
type Entry map[string]interface{}

// Viewer tails every *.log file of a folder.
type Viewer struct {
	dir  string
	out  io.Writer
	poll time.Duration

	mu        sync.Mutex
	filter    string
	positions map[string]int64
	known     map[string]bool
	lastPrint time.Time
	gapShown  bool
}

// New creates a Viewer over dir. poll is the fallback rescan interval used
// alongside file system notifications.
func New(dir string, out io.Writer, poll time.Duration) *Viewer {
	if poll <= 0 {
		poll = time.Second
	}
	return &Viewer{
		dir:       dir,
		out:       out,
		poll:      poll,
		positions: make(map[string]int64),
		known:     make(map[string]bool),
		gapShown:  true,
	}
}

// Filter returns the current filter.
func (v *Viewer) Filter() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

// SetFilter replaces the filter. Entries are shown when their formatted text
// contains the filter, ignoring case.
func (v *Viewer) SetFilter(filter string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = filter
}

// FormatEntry renders an entry as a header line followed by one indented
// line per extra field, in key order.
func FormatEntry(entry Entry) string {
	timestamp, _ := entry["time"].(string)
	level, _ := entry["level"].(string)
	msg, _ := entry["msg"].(string)

	level = strings.ToUpper(level)
	c, ok := levelColor[level]
	if !ok {
		c = color.New(color.FgWhite)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", timeColor.Sprint(formatTimestamp(timestamp)), c.Sprintf("%-5s", level), msg)

	keys := make([]string, 0, len(entry))
	for key := range entry {
		if key != "time" && key != "level" && key != "msg" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, "\n    %s %v", fieldColor.Sprint(key+":"), entry[key])
	}
	return b.String()
}

func formatTimestamp(timestamp string) string {
	t, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return timestamp
	}
	return t.Format("06-01-02 15:04:05.000000")
}

// Poll prints the entries appended to every log file since the last call.
// A file that shrank is read again from the start.
func (v *Viewer) Poll() error {
	files, err := filepath.Glob(filepath.Join(v.dir, "*.log"))
	if err != nil {
		return fmt.Errorf("failed to list log files: %w", err)
	}
	sort.Strings(files)

	v.mu.Lock()
	defer v.mu.Unlock()
	for _, path := range files {
		if !v.known[path] {
			fmt.Fprintln(v.out, noteColor.Sprintf("New log file detected: %s", filepath.Base(path)))
			v.known[path] = true
		}
		if err := v.readFileLocked(path); err != nil {
			fmt.Fprintln(v.out, errorColor.Sprint(err.Error()))
		}
	}
	return nil
}

func (v *Viewer) readFileLocked(path string) error {
	name := filepath.Base(path)
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", name, err)
	}
	if stat.Size() < v.positions[path] {
		fmt.Fprintln(v.out, warnColor.Sprintf("%s has been truncated, starting from beginning", name))
		v.positions[path] = 0
	}
	if _, err := file.Seek(v.positions[path], io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek in %s: %w", name, err)
	}

	reader := bufio.NewReader(file)
	position := v.positions[path]
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			// A partial line is read again once it is complete.
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		position += int64(len(line))
		v.printLineLocked(strings.TrimRight(line, "\r\n"))
	}
	v.positions[path] = position
	return nil
}

func (v *Viewer) printLineLocked(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	var entry Entry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		fmt.Fprintln(v.out, errorColor.Sprintf("Error parsing log entry: %v", err))
		return
	}
	formatted := FormatEntry(entry)
	if v.filter != "" && !strings.Contains(strings.ToLower(formatted), strings.ToLower(v.filter)) {
		return
	}
	fmt.Fprintln(v.out, formatted)
	v.lastPrint = time.Now()
	v.gapShown = false
}

// markGap prints a separator once output has been idle for gapAfter.
func (v *Viewer) markGap(now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.gapShown && now.Sub(v.lastPrint) > gapAfter {
		fmt.Fprintln(v.out, timeColor.Sprint("◆"))
		v.gapShown = true
	}
}

// Watch prints new entries until ctx is done. File system events trigger a
// read; the poll interval rescans in case an event was missed.
func (v *Viewer) Watch(ctx context.Context) error {
	if _, err := os.Stat(v.dir); err != nil {
		return fmt.Errorf("log directory '%s' is not accessible: %w", v.dir, err)
	}

	var events <-chan fsnotify.Event
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		if err := watcher.Add(v.dir); err == nil {
			events = watcher.Events
		}
		defer watcher.Close()
	}

	if err := v.Poll(); err != nil {
		return err
	}

	poll := time.NewTicker(v.poll)
	defer poll.Stop()
	gap := time.NewTicker(gapAfter / 2)
	defer gap.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				if err := v.Poll(); err != nil {
					return err
				}
			}
		case <-poll.C:
			if err := v.Poll(); err != nil {
				return err
			}
		case now := <-gap.C:
			v.markGap(now)
		}
	}
}

// EditFilter applies one key press to the filter. It reports false when the
// key asks to quit.
func (v *Viewer) EditFilter(char rune, key keyboard.Key) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch key {
	case keyboard.KeyCtrlC, keyboard.KeyEsc:
		return false
	case keyboard.KeyBackspace, keyboard.KeyBackspace2:
		if r := []rune(v.filter); len(r) > 0 {
			v.filter = string(r[:len(r)-1])
		}
	case keyboard.KeySpace:
		v.filter += " "
	default:
		if char != 0 {
			v.filter += string(char)
		}
	}
	fmt.Fprintf(v.out, "\rCurrent filter: %s", v.filter)
	return true
}

// Run watches the folder and edits the filter from the keyboard until
// Ctrl-C, Esc or ctx cancellation.
func (v *Viewer) Run(ctx context.Context) error {
	keys, err := keyboard.GetKeys(10)
	if err != nil {
		return fmt.Errorf("failed to open keyboard: %w", err)
	}
	defer keyboard.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watchErr := make(chan error, 1)
	go func() { watchErr <- v.Watch(ctx) }()

	fmt.Fprintln(v.out, "Start typing to filter logs. Press Ctrl-C to exit.")
	for {
		select {
		case err := <-watchErr:
			return err
		case ev := <-keys:
			if ev.Err != nil {
				cancel()
				<-watchErr
				return fmt.Errorf("failed to read key: %w", ev.Err)
			}
			if !v.EditFilter(ev.Rune, ev.Key) {
				cancel()
				return <-watchErr
			}
		}
	}
}
