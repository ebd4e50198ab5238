package workload

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Args is the positional argument tuple a workload is invoked with.
type Args []int

// Clone returns an independent copy, one per execution unit.
func (a Args) Clone() Args {
	if a == nil {
		return nil
	}
	c := make(Args, len(a))
	copy(c, a)
	return c
}

// String joins the arguments with "-", or "none" for an empty tuple.
func (a Args) String() string {
	if len(a) == 0 {
		return "none"
	}
	s := make([]string, len(a))
	for i, v := range a {
		s[i] = strconv.Itoa(v)
	}
	return strings.Join(s, "-")
}

// Workload is the unit of work under measurement. Run must be safe to call
// from several goroutines at once with the same arguments.
type Workload interface {
	Name() string
	Run(args Args) error
}

type funcWorkload struct {
	name string
	fn   func(Args) error
}

func (f *funcWorkload) Name() string { return f.name }

func (f *funcWorkload) Run(args Args) error { return f.fn(args) }

// Func wraps fn as a Workload called name.
func Func(name string, fn func(Args) error) Workload {
	return &funcWorkload{name: name, fn: fn}
}

var builtins = map[string]func(Args) error{
	"busyloop": busyLoop,
	"primes":   primes,
	"mixed":    mixed,
	"wait":     wait,
	"fail":     fail,
}

// New returns the built-in Workload registered under name.
// If the name is not recognized, it returns an error.
func New(name string) (Workload, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown workload: %s", name)
	}
	return Func(name, fn), nil
}

// Names lists the built-in workloads in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func single(args Args) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	if args[0] < 0 {
		return 0, fmt.Errorf("argument must be >= 0, got %d", args[0])
	}
	return args[0], nil
}
