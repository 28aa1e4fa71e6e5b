// Package todo manages the per-repository task list stored as todo.json:
//
//	{"todo": {"<content>": [state, importance], ...}}
//
// Task order is the key order of the JSON object and is preserved across saves.
package todo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"notty-go/internal/notty"
)

type State int

const (
	Pending State = iota
	InProgress
	Finished
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case InProgress:
		return "in progress"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) valid() bool { return s >= Pending && s <= Finished }

type Importance int

const (
	Low Importance = iota
	Medium
	High
)

func (i Importance) String() string {
	switch i {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return fmt.Sprintf("importance(%d)", int(i))
	}
}

func (i Importance) valid() bool { return i >= Low && i <= High }

var (
	ErrInvalidIndex = errors.New("invalid task index")
	ErrInvalidLevel = errors.New("invalid level")
	ErrOutOfRange   = errors.New("level out of range")
	ErrDuplicate    = errors.New("task already exists")
	ErrEmptyContent = errors.New("task content is empty")
)

var importanceAliases = map[string]Importance{
	"l": Low, "low": Low, "1": Low,
	"m": Medium, "mid": Medium, "medium": Medium, "2": Medium,
	"h": High, "high": High, "!": High, "3": High,
}

var stateAliases = map[string]State{
	"p": Pending, "pending": Pending, "1": Pending,
	"i": InProgress, "in_progress": InProgress, "2": InProgress,
	"d": Finished, "done": Finished, "f": Finished, "finished": Finished, "3": Finished,
}

// ParseImportance resolves a case-insensitive importance alias.
func ParseImportance(s string) (Importance, error) {
	if imp, ok := importanceAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return imp, nil
	}
	return Low, fmt.Errorf("%w: %q, want [l]ow/[m]edium/[h]igh", ErrInvalidLevel, s)
}

// ParseState resolves a case-insensitive state alias.
func ParseState(s string) (State, error) {
	if st, ok := stateAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st, nil
	}
	return Pending, fmt.Errorf("%w: %q, want [p]ending/[i]n_progress/[f]inished", ErrInvalidLevel, s)
}

type Task struct {
	Content    string
	State      State
	Importance Importance
}

// List is a todo list bound to its file. Every mutation is saved immediately.
type List struct {
	path   string
	tasks  []Task
	logger notty.Logger
}

// BlankContent is the initial content of a todo file.
const BlankContent = `{"todo": {}}`

// Load reads the todo file at path. Out-of-range state or importance values
// are reset to pending / low with a warning.
func Load(path string, logger notty.Logger) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading todo list: %w", err)
	}

	l := &List{path: path, logger: logger}
	if err := l.decode(data); err != nil {
		return nil, fmt.Errorf("parsing todo list %s: %w", path, err)
	}
	return l, nil
}

func (l *List) decode(data []byte) error {
	var doc struct {
		Todo json.RawMessage `json:"todo"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Todo) == 0 || string(doc.Todo) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(doc.Todo))
	if tok, err := dec.Token(); err != nil {
		return err
	} else if tok != json.Delim('{') {
		return fmt.Errorf(`"todo" must be an object`)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		content, _ := tok.(string)

		var pair [2]int
		if err := dec.Decode(&pair); err != nil {
			return fmt.Errorf("task %q: %w", content, err)
		}

		task := Task{Content: content, State: State(pair[0]), Importance: Importance(pair[1])}
		if !task.State.valid() {
			l.logger.Warn("invalid state value in todo list, reset to pending", "task", content)
			task.State = Pending
		}
		if !task.Importance.valid() {
			l.logger.Warn("invalid importance value in todo list, reset to low", "task", content)
			task.Importance = Low
		}
		if i := l.find(content); i >= 0 {
			l.tasks[i] = task
			continue
		}
		l.tasks = append(l.tasks, task)
	}
	return nil
}

func (l *List) find(content string) int {
	for i, t := range l.tasks {
		if t.Content == content {
			return i
		}
	}
	return -1
}

// Tasks returns the tasks in file order.
func (l *List) Tasks() []Task {
	return append([]Task(nil), l.tasks...)
}

func (l *List) task(index int) (*Task, error) {
	if index < 0 || index >= len(l.tasks) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	return &l.tasks[index], nil
}

// Add appends a pending task.
func (l *List) Add(content string, importance Importance) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if l.find(content) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicate, content)
	}
	l.tasks = append(l.tasks, Task{Content: content, State: Pending, Importance: importance})
	return l.Save()
}

// Remove deletes the task at index.
func (l *List) Remove(index int) error {
	if _, err := l.task(index); err != nil {
		return err
	}
	l.tasks = append(l.tasks[:index], l.tasks[index+1:]...)
	return l.Save()
}

// SetImportance changes a task's importance. level is an alias accepted by
// ParseImportance, or "+" / "-" to step one level.
func (l *List) SetImportance(index int, level string) error {
	t, err := l.task(index)
	if err != nil {
		return err
	}

	var next Importance
	switch level {
	case "+", "-":
		next = t.Importance + Importance(step(level))
		if !next.valid() {
			return fmt.Errorf("%w: importance cannot go %s %s", ErrOutOfRange, direction(level), t.Importance)
		}
	default:
		if next, err = ParseImportance(level); err != nil {
			return err
		}
	}
	t.Importance = next
	return l.Save()
}

// SetState changes a task's state. level is an alias accepted by ParseState,
// or "+" / "-" to step one state.
func (l *List) SetState(index int, level string) error {
	t, err := l.task(index)
	if err != nil {
		return err
	}

	var next State
	switch level {
	case "+", "-":
		next = t.State + State(step(level))
		if !next.valid() {
			return fmt.Errorf("%w: state cannot go %s %s", ErrOutOfRange, direction(level), t.State)
		}
	default:
		if next, err = ParseState(level); err != nil {
			return err
		}
	}
	t.State = next
	return l.Save()
}

func step(level string) int {
	if level == "+" {
		return 1
	}
	return -1
}

func direction(level string) string {
	if level == "+" {
		return "above"
	}
	return "below"
}

// Save writes the list back to its file, keeping task order.
func (l *List) Save() error {
	var buf bytes.Buffer
	buf.WriteString(`{"todo": {`)
	for i, t := range l.tasks {
		if i > 0 {
			buf.WriteString(", ")
		}
		key, err := json.Marshal(t.Content)
		if err != nil {
			return fmt.Errorf("encoding task: %w", err)
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ": [%d, %d]", int(t.State), int(t.Importance))
	}
	buf.WriteString("}}")

	if err := notty.WriteFileAtomic(l.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("saving todo list: %w", err)
	}
	return nil
}
