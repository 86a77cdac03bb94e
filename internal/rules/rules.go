// Package rules runs site-owner validation hooks written in Lua. The
// editor core is schema-agnostic; domain rules like "a photo needs at
// least one category" live in a validate.lua next to the content.
package rules

import (
	"fmt"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/folio-sh/folio/internal/content"
)

// ValidationError is a rejected commit: the hook returned a reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// Engine holds a Lua state with the loaded validation script. A nil Engine
// validates everything, so wiring is optional.
type Engine struct {
	state *lua.LState
	mu    sync.Mutex
}

// Load compiles the validation script at path. A missing file yields a nil
// engine and no error: no rules means no validation.
func Load(path string) (*Engine, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	L := lua.NewState()
	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("load rules %s: %w", path, err)
	}
	if L.GetGlobal("validate") == lua.LNil {
		L.Close()
		return nil, fmt.Errorf("rules %s: no validate function", path)
	}
	return &Engine{state: L}, nil
}

// Close releases the Lua state.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Close()
}

// Validate calls validate(kind, record) in the script. The hook returns
// true to accept, or false plus a reason to reject; a rejection maps to a
// ValidationError. Script runtime errors are reported as plain errors.
func (e *Engine) Validate(kind string, record content.Record) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	L := e.state
	fn := L.GetGlobal("validate")

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    2,
		Protect: true,
	}, lua.LString(kind), toLua(L, record)); err != nil {
		return fmt.Errorf("validate hook: %w", err)
	}

	reason := L.Get(-1)
	ok := L.Get(-2)
	L.Pop(2)

	if lua.LVAsBool(ok) {
		return nil
	}
	msg := "rejected by validation rules"
	if s, isStr := reason.(lua.LString); isStr && string(s) != "" {
		msg = string(s)
	}
	return &ValidationError{Reason: msg}
}

// toLua converts a content node into a Lua value. Records become tables
// keyed by field name; lists become 1-based array tables.
func toLua(L *lua.LState, node content.Node) lua.LValue {
	switch nv := node.(type) {
	case content.String:
		return lua.LString(nv)
	case content.Number:
		return lua.LNumber(nv)
	case content.Bool:
		return lua.LBool(nv)
	case content.Record:
		tbl := L.NewTable()
		for k, v := range nv {
			tbl.RawSetString(k, toLua(L, v))
		}
		return tbl
	case content.List:
		tbl := L.NewTable()
		for i, v := range nv {
			tbl.RawSetInt(i+1, toLua(L, v))
		}
		return tbl
	}
	return lua.LNil
}
