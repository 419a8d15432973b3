package scripting

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/fieldroutes/routing"
	"github.com/milk9111/fieldroutes/specs"
)

// ErrNoAdvice is returned when reroute() returns something other than a string.
var ErrNoAdvice = errors.New("scripting: reroute returned no advice")

const rerouteDispatchScript = `
__advice := reroute(__req)
`

// RerouteScript runs a tengo reroute(req) function for every reroute request.
// req is a map with enemy, entrance, status and length keys.
type RerouteScript struct {
	name string

	mu       sync.Mutex
	compiled *tengo.Compiled
}

var _ routing.RerouteHook = (*RerouteScript)(nil)

// LoadRerouteScript compiles a script by path or embedded name.
func LoadRerouteScript(name string) (*RerouteScript, error) {
	src, err := specs.LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("scripting: load %s: %w", name, err)
	}
	rs, err := NewRerouteScript(name, src)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// NewRerouteScript compiles src, which must define reroute.
func NewRerouteScript(name string, src []byte) (*RerouteScript, error) {
	compiled, err := compile(name, src)
	if err != nil {
		return nil, err
	}
	return &RerouteScript{name: name, compiled: compiled}, nil
}

func compile(name string, src []byte) (*tengo.Compiled, error) {
	full := string(src) + "\n" + rerouteDispatchScript
	script := tengo.NewScript([]byte(full))
	_ = script.Add("__req", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("scripting: compile %s: %w", name, err)
	}
	return compiled, nil
}

// Reload swaps in a new version of the script. If src does not compile the
// running version is kept.
func (r *RerouteScript) Reload(src []byte) error {
	compiled, err := compile(r.name, src)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.compiled = compiled
	r.mu.Unlock()
	return nil
}

func (r *RerouteScript) Name() string { return r.name }

// Advise runs reroute for req. Scripts are not reentrant, so calls are serialised.
func (r *RerouteScript) Advise(req routing.RerouteRequest, current routing.Path) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	arg := map[string]any{
		"enemy":    req.Enemy,
		"entrance": req.Entrance,
		"status":   current.Status.String(),
		"length":   current.Len(),
	}
	if err := r.compiled.Set("__req", arg); err != nil {
		return "", err
	}
	if err := r.compiled.Run(); err != nil {
		return "", fmt.Errorf("scripting: run %s: %w", r.name, err)
	}

	v := r.compiled.Get("__advice")
	if v == nil || v.ValueType() != "string" {
		return "", ErrNoAdvice
	}
	return strings.TrimSpace(v.String()), nil
}
