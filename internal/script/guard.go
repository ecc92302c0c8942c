package script

import (
	"fmt"
)

// Hook names used in CallError.
const (
	HookInit   = "init"
	HookUpdate = "update"
	HookDie    = "die"
)

// CallError reports a failed callback: either a returned error or a panic
// recovered at the call boundary.
type CallError struct {
	ScriptID int
	Hook     string
	Err      error
	Panic    any
}

func (e *CallError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("script %d: %s panicked: %v", e.ScriptID, e.Hook, e.Panic)
	}
	return fmt.Sprintf("script %d: %s: %v", e.ScriptID, e.Hook, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func recoverCall(id int, hook string, err *error) {
	if p := recover(); p != nil {
		*err = &CallError{ScriptID: id, Hook: hook, Panic: p}
	}
}

// isolate hands the callback its own copy of the store so in-place
// mutation never reaches simulator state.
func isolate(ctx Context) Context {
	ctx.Entity.Store = ctx.Entity.Store.Clone()
	ctx.Keys = ctx.Keys.Clone()
	return ctx
}

// CallInit runs h.Init inside an isolation boundary. A nil handle or
// callback is a no-op.
func CallInit(id int, h *Handle, ctx Context) (res InitResult, err error) {
	if h == nil || h.Init == nil {
		return InitResult{}, nil
	}
	defer recoverCall(id, HookInit, &err)

	res, err = h.Init(isolate(ctx))
	if err != nil {
		return InitResult{}, &CallError{ScriptID: id, Hook: HookInit, Err: err}
	}
	return res, nil
}

// CallUpdate runs h.Update inside an isolation boundary.
func CallUpdate(id int, h *Handle, ctx Context) (res UpdateResult, err error) {
	if h == nil || h.Update == nil {
		return UpdateResult{}, nil
	}
	defer recoverCall(id, HookUpdate, &err)

	res, err = h.Update(isolate(ctx))
	if err != nil {
		return UpdateResult{}, &CallError{ScriptID: id, Hook: HookUpdate, Err: err}
	}
	return res, nil
}

// CallDie runs h.Die inside an isolation boundary.
func CallDie(id int, h *Handle, ctx Context) (res DieResult, err error) {
	if h == nil || h.Die == nil {
		return DieResult{}, nil
	}
	defer recoverCall(id, HookDie, &err)

	res, err = h.Die(isolate(ctx))
	if err != nil {
		return DieResult{}, &CallError{ScriptID: id, Hook: HookDie, Err: err}
	}
	return res, nil
}
