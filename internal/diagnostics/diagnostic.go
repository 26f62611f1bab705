// Package diagnostics collects and reports lexer diagnostics.
//
// The tokenizer context itself retains only the single most-recent error;
// this package is the richer channel used at the stage level, where every
// file and every lenient-mode pattern compile can contribute messages
// without clobbering one another.
package diagnostics

import "fmt"

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Position is a location in a source buffer. Line and Column are 1-based,
// Offset is the 0-based byte offset.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Diagnostic represents one reportable condition (error, warning, info).
type Diagnostic struct {
	Severity Severity
	Message  string
	Code     string // Error code like "L0001"
	File     string // Source file, empty for pattern text
	Pos      *Position
	Help     string // Suggestion for resolving the condition
}

// NewError creates a new error diagnostic.
func NewError(message string) *Diagnostic {
	return &Diagnostic{Severity: Error, Message: message}
}

// NewWarning creates a new warning diagnostic.
func NewWarning(message string) *Diagnostic {
	return &Diagnostic{Severity: Warning, Message: message}
}

// NewInfo creates a new info diagnostic.
func NewInfo(message string) *Diagnostic {
	return &Diagnostic{Severity: Info, Message: message}
}

// WithCode sets the diagnostic code.
func (d *Diagnostic) WithCode(code string) *Diagnostic {
	d.Code = code
	return d
}

// WithPosition attaches a source location.
func (d *Diagnostic) WithPosition(file string, pos Position) *Diagnostic {
	d.File = file
	d.Pos = &pos
	return d
}

// WithHelp sets a suggestion for resolving the condition.
func (d *Diagnostic) WithHelp(help string) *Diagnostic {
	d.Help = help
	return d
}

func (d *Diagnostic) String() string {
	s := d.Severity.String()
	if d.Code != "" {
		s += "[" + d.Code + "]"
	}
	s += ": "
	if d.File != "" {
		s += d.File
		if d.Pos != nil {
			s += ":" + d.Pos.String()
		}
		s += ": "
	} else if d.Pos != nil {
		s += d.Pos.String() + ": "
	}
	return s + d.Message
}
