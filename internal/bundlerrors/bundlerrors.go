// Package bundlerrors defines the single error-kind-set that spans the
// whole tool, from CLI argument parsing through worker panics. Workers
// convert every collaborator error (os, encoding/json, fsnotify) into
// this taxonomy before sending it back to the driver.
package bundlerrors

import "fmt"

// Kind enumerates every distinguishable error condition the tool can
// report.
type Kind int

const (
	UsageHelp Kind = iota
	UsageVersion
	MissingFileName
	UnexpectedArg
	UnknownOption
	DuplicateOption
	MissingOptionValue
	BadUsage
	ExternalMain
	IgnoredMain
	MainNotFound
	EmptyModuleName
	ModuleNotFound
	RequireRoot
	InvalidUtf8
	Io
	Json
	Watch
	Lex
	ParseStrLit
	Esm
	WorkerPanic
)

func (k Kind) String() string {
	switch k {
	case UsageHelp:
		return "UsageHelp"
	case UsageVersion:
		return "UsageVersion"
	case MissingFileName:
		return "MissingFileName"
	case UnexpectedArg:
		return "UnexpectedArg"
	case UnknownOption:
		return "UnknownOption"
	case DuplicateOption:
		return "DuplicateOption"
	case MissingOptionValue:
		return "MissingOptionValue"
	case BadUsage:
		return "BadUsage"
	case ExternalMain:
		return "ExternalMain"
	case IgnoredMain:
		return "IgnoredMain"
	case MainNotFound:
		return "MainNotFound"
	case EmptyModuleName:
		return "EmptyModuleName"
	case ModuleNotFound:
		return "ModuleNotFound"
	case RequireRoot:
		return "RequireRoot"
	case InvalidUtf8:
		return "InvalidUtf8"
	case Io:
		return "Io"
	case Json:
		return "Json"
	case Watch:
		return "Watch"
	case Lex:
		return "Lex"
	case ParseStrLit:
		return "ParseStrLit"
	case Esm:
		return "Esm"
	case WorkerPanic:
		return "WorkerPanic"
	default:
		return "Unknown"
	}
}

// Error is the concrete error value carried through the tool. File and
// Specifier are optional context fields filled in where relevant (the
// requiring file, the specifier that failed to resolve); Cause wraps
// whatever collaborator error triggered this one, if any.
type Error struct {
	Kind      Kind
	Message   string
	File      string
	Specifier string
	Cause     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	switch {
	case e.File != "" && e.Specifier != "":
		return fmt.Sprintf("%s: %s (while resolving %q)", e.File, msg, e.Specifier)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, msg)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %s", msg, e.Cause)
	default:
		return msg
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds a bare Error of the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind that wraps an underlying
// collaborator error (os.PathError, json.SyntaxError, a fsnotify error,
// ...), preserving it for errors.As/errors.Is.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithFile returns a copy of e with the File context field set.
func (e *Error) WithFile(file string) *Error {
	cp := *e
	cp.File = file
	return &cp
}

// WithSpecifier returns a copy of e with the Specifier context field
// set.
func (e *Error) WithSpecifier(spec string) *Error {
	cp := *e
	cp.Specifier = spec
	return &cp
}
