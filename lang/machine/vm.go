// Package machine implements the Execution Engine: a fetch-decode-dispatch
// interpreter over a unified value+locals stack and an explicit call-frame
// stack. It takes a *compiler.Program, built offline, and runs it with no
// host recursion, matching the calling convention and opcode semantics
// described by the instruction set in package compiler.
package machine

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/exp/slices"

	"github.com/burdockcascade/bytevm/lang/compiler"
	"github.com/burdockcascade/bytevm/lang/token"
	"github.com/burdockcascade/bytevm/lang/variant"
)

var arithmeticToken = map[compiler.Opcode]token.Token{
	compiler.Add:          token.PLUS,
	compiler.Sub:          token.MINUS,
	compiler.Mul:          token.STAR,
	compiler.Div:          token.SLASH,
	compiler.Mod:          token.PCT,
	compiler.Pow:          token.CARET,
	compiler.LessThan:     token.LT,
	compiler.LessEqual:    token.LE,
	compiler.GreaterThan:  token.GT,
	compiler.GreaterEqual: token.GE,
}

// ExecutionResult reports the outcome of a completed Run.
type ExecutionResult struct {
	// Value is the value returned by the entry function's top-level Return.
	// It is nil if the run ended via Halt instead.
	Value Value
	// Halted reports whether the run ended via a Halt instruction rather
	// than the entry function returning.
	Halted bool
	// Steps is the number of instructions dispatched.
	Steps int
	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration
}

// Value is an alias kept local to this package's exported surface, so
// callers constructing results don't need to import package variant just to
// name the type in a doc comment. It is exactly variant.Value.
type Value = variant.Value

// VM executes a loaded Program. The zero value is not usable; construct one
// with New.
type VM struct {
	// Stdout is where Print writes. Defaults to os.Stdout.
	Stdout io.Writer
	// Logger receives per-step debug tracing when non-nil. Defaults to a
	// discard logger.
	Logger *slog.Logger
	// MaxSteps caps the number of instructions a single Run may dispatch.
	// Zero means unlimited.
	MaxSteps int
	// InitialStackCapacity is a sizing hint for the value stack, avoiding
	// reallocation during typical runs. Defaults to 256.
	InitialStackCapacity int

	functions []*compiler.Function
	symbols   map[string]compiler.SymbolEntry
	natives   map[string]nativeEntry
}

// New returns a VM ready to load programs and native functions.
func New() *VM {
	return &VM{
		Stdout:               os.Stdout,
		Logger:               slog.New(slog.NewTextHandler(io.Discard, nil)),
		InitialStackCapacity: 256,
		symbols:              make(map[string]compiler.SymbolEntry),
		natives:              make(map[string]nativeEntry),
	}
}

// LoadProgram adds p's functions and symbols to the VM. A user-defined
// function whose name is already bound in the VM, to a loaded function or
// to a registered native, is rejected with DuplicateFunction, since
// silently shadowing a previous definition would make which body runs
// depend on load order.
func (vm *VM) LoadProgram(p *compiler.Program) error {
	for name, entry := range p.Symbols {
		if entry.Kind != compiler.UserDefinedFunction {
			continue
		}
		if _, exists := vm.symbols[name]; exists {
			return &Error{Kind: DuplicateFunction, Message: name}
		}
	}
	base := len(vm.functions)
	for _, fn := range p.Functions {
		for i, ins := range fn.Instructions {
			if ins.Op == compiler.FunctionCall && ins.Target.Resolved {
				fn.Instructions[i].Target.Index += base
			}
		}
		vm.functions = append(vm.functions, fn)
	}
	for name, entry := range p.Symbols {
		if entry.Kind == compiler.UserDefinedFunction {
			entry.Index += base
		}
		vm.symbols[name] = entry
	}
	return nil
}

// RegisterNativeFunction makes fn callable from bytecode under name, with
// the given fixed arity. It is an error to register a name already used by
// a loaded user-defined function.
func (vm *VM) RegisterNativeFunction(name string, arity int, fn NativeFunc) error {
	if entry, exists := vm.symbols[name]; exists && entry.Kind == compiler.UserDefinedFunction {
		return &Error{Kind: DuplicateFunction, Message: name}
	}
	vm.symbols[name] = compiler.SymbolEntry{Kind: compiler.NativeFunction, Arity: arity}
	vm.natives[name] = nativeEntry{arity: arity, fn: fn}
	return nil
}

// Run executes the user-defined function named entry (defaulting to "main"
// if entry is empty) with no arguments, and runs to completion: either the
// entry function (or a function it calls) executes Return with the call
// stack back at depth zero, or a Halt instruction is reached anywhere in
// the call stack, which ends the run immediately regardless of depth.
func (vm *VM) Run(entry string) (*ExecutionResult, error) {
	if entry == "" {
		entry = "main"
	}
	symEntry, ok := vm.symbols[entry]
	if !ok || symEntry.Kind != compiler.UserDefinedFunction {
		return nil, &Error{Kind: UnknownEntryPoint, Message: entry}
	}

	start := time.Now()
	r := &runner{vm: vm, stack: make([]variant.Value, 0, vm.InitialStackCapacity)}
	r.currentFn = symEntry.Index
	fn := vm.functions[r.currentFn]
	for i := 0; i < fn.LocalCount; i++ {
		r.stack = append(r.stack, variant.Null{})
	}

	result, halted, err := r.dispatch()
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}
	return &ExecutionResult{Value: result, Halted: halted, Steps: r.steps, Elapsed: elapsed}, nil
}

// runner holds the mutable execution state of a single Run call: the
// unified value+locals stack, the explicit call-frame stack, and the three
// registers (current_function, pc, base) the dispatch loop advances.
type runner struct {
	vm *VM

	stack  []variant.Value
	frames []frame

	currentFn int
	pc        int
	base      int
	steps     int
}

func (r *runner) dispatch() (result variant.Value, halted bool, err error) {
	for {
		fn := r.vm.functions[r.currentFn]
		if r.pc < 0 || r.pc >= len(fn.Instructions) {
			return nil, false, &Error{Kind: PcOutOfBounds, Message: fmt.Sprintf("fn=%s pc=%d", fn.Name, r.pc)}
		}
		ins := fn.Instructions[r.pc]
		r.pc++
		r.steps++
		if r.vm.MaxSteps > 0 && r.steps > r.vm.MaxSteps {
			return nil, false, &Error{Kind: StepLimitExceeded, Message: fmt.Sprintf("exceeded %d steps", r.vm.MaxSteps)}
		}
		if r.vm.Logger != nil {
			r.vm.Logger.Debug("step", "fn", fn.Name, "pc", r.pc-1, "op", ins.Op, "depth", len(r.frames))
		}

		switch ins.Op {
		case compiler.Push:
			r.push(ins.Value)

		case compiler.Pop:
			if _, err := r.pop(); err != nil {
				return nil, false, err
			}

		case compiler.GetLocal:
			idx := r.base + ins.Operand
			if idx < r.base || idx >= len(r.stack) {
				return nil, false, &Error{Kind: BadLocalIndex, Message: fmt.Sprintf("%d", ins.Operand)}
			}
			r.push(r.stack[idx])

		case compiler.SetLocal:
			v, err := r.pop()
			if err != nil {
				return nil, false, err
			}
			idx := r.base + ins.Operand
			if idx < r.base || idx >= len(r.stack) {
				return nil, false, &Error{Kind: BadLocalIndex, Message: fmt.Sprintf("%d", ins.Operand)}
			}
			r.stack[idx] = v

		case compiler.Add, compiler.Sub, compiler.Mul, compiler.Div, compiler.Mod, compiler.Pow:
			b, a, err := r.pop2()
			if err != nil {
				return nil, false, err
			}
			v, err := variant.Binary(arithmeticToken[ins.Op], a, b)
			if err != nil {
				return nil, false, arithErr(err)
			}
			r.push(v)

		case compiler.Negate:
			a, err := r.pop()
			if err != nil {
				return nil, false, err
			}
			v, err := variant.Negate(a)
			if err != nil {
				return nil, false, arithErr(err)
			}
			r.push(v)

		case compiler.Equal, compiler.NotEqual:
			b, a, err := r.pop2()
			if err != nil {
				return nil, false, err
			}
			eq, err := variant.Equal(a, b)
			if err != nil {
				return nil, false, arithErr(err)
			}
			if ins.Op == compiler.NotEqual {
				eq = !eq
			}
			r.push(variant.Boolean(eq))

		case compiler.LessThan, compiler.LessEqual, compiler.GreaterThan, compiler.GreaterEqual:
			b, a, err := r.pop2()
			if err != nil {
				return nil, false, err
			}
			ok, err := variant.Compare(arithmeticToken[ins.Op], a, b)
			if err != nil {
				return nil, false, arithErr(err)
			}
			r.push(variant.Boolean(ok))

		case compiler.And, compiler.Or:
			b, a, err := r.pop2()
			if err != nil {
				return nil, false, err
			}
			var v variant.Value
			if ins.Op == compiler.And {
				v, err = variant.And(a, b)
			} else {
				v, err = variant.Or(a, b)
			}
			if err != nil {
				return nil, false, arithErr(err)
			}
			r.push(v)

		case compiler.Not:
			a, err := r.pop()
			if err != nil {
				return nil, false, err
			}
			v, err := variant.Not(a)
			if err != nil {
				return nil, false, arithErr(err)
			}
			r.push(v)

		case compiler.Jump:
			r.pc = ins.Operand

		case compiler.JumpIfFalse:
			v, err := r.pop()
			if err != nil {
				return nil, false, err
			}
			b, ok := v.(variant.Boolean)
			if !ok {
				return nil, false, &Error{Kind: TypeError, Message: fmt.Sprintf("JumpIfFalse requires a boolean, got %s", v.Type())}
			}
			if !bool(b) {
				r.pc = ins.Operand
			}

		case compiler.CreateArray:
			n := ins.Operand
			if len(r.stack) < n {
				return nil, false, stackUnderflow()
			}
			elems := r.stack[len(r.stack)-n:]
			arr := variant.NewArray(elems)
			r.stack = r.stack[:len(r.stack)-n]
			r.push(arr)

		case compiler.GetArrayItem:
			idxV, arrV, err := r.pop2()
			if err != nil {
				return nil, false, err
			}
			v, err := getArrayItem(arrV, idxV)
			if err != nil {
				return nil, false, err
			}
			r.push(v)

		case compiler.SetArrayItem:
			value, err := r.pop()
			if err != nil {
				return nil, false, err
			}
			idxV, arrV, err := r.pop2()
			if err != nil {
				return nil, false, err
			}
			if err := setArrayItem(arrV, idxV, value); err != nil {
				return nil, false, err
			}
			r.push(arrV)

		case compiler.GetArrayLength:
			v, err := r.pop()
			if err != nil {
				return nil, false, err
			}
			a, ok := v.(*variant.Array)
			if !ok {
				return nil, false, &Error{Kind: TypeError, Message: fmt.Sprintf("GetArrayLength requires an array, got %s", v.Type())}
			}
			r.push(variant.Integer(a.Len()))

		case compiler.CreateDictionary:
			n := ins.Operand
			total := 2 * n
			if len(r.stack) < total {
				return nil, false, stackUnderflow()
			}
			base := len(r.stack) - total
			d := variant.NewDictionary(n)
			for i := 0; i < n; i++ {
				key := r.stack[base+2*i]
				value := r.stack[base+2*i+1]
				if err := d.Set(key, value); err != nil {
					return nil, false, arithErr(err)
				}
			}
			r.stack = r.stack[:base]
			r.push(d)

		case compiler.GetDictionaryItem:
			keyV, dictV, err := r.pop2()
			if err != nil {
				return nil, false, err
			}
			d, ok := dictV.(*variant.Dictionary)
			if !ok {
				return nil, false, &Error{Kind: TypeError, Message: fmt.Sprintf("GetDictionaryItem requires a dictionary, got %s", dictV.Type())}
			}
			v, found, err := d.Get(keyV)
			if err != nil {
				return nil, false, arithErr(err)
			}
			if !found {
				return nil, false, &Error{Kind: KeyNotFound, Message: keyV.String()}
			}
			r.push(v)

		case compiler.SetDictionaryItem:
			value, err := r.pop()
			if err != nil {
				return nil, false, err
			}
			keyV, dictV, err := r.pop2()
			if err != nil {
				return nil, false, err
			}
			d, ok := dictV.(*variant.Dictionary)
			if !ok {
				return nil, false, &Error{Kind: TypeError, Message: fmt.Sprintf("SetDictionaryItem requires a dictionary, got %s", dictV.Type())}
			}
			if err := d.Set(keyV, value); err != nil {
				return nil, false, arithErr(err)
			}

		case compiler.GetDictionaryKeys:
			v, err := r.pop()
			if err != nil {
				return nil, false, err
			}
			d, ok := v.(*variant.Dictionary)
			if !ok {
				return nil, false, &Error{Kind: TypeError, Message: fmt.Sprintf("GetDictionaryKeys requires a dictionary, got %s", v.Type())}
			}
			r.push(d.Keys())

		case compiler.FunctionCall:
			if err := r.call(ins.Target); err != nil {
				return nil, false, err
			}

		case compiler.Return:
			done, v, err := r.doReturn(fn.LocalCount)
			if err != nil {
				return nil, false, err
			}
			if done {
				return v, false, nil
			}

		case compiler.Print:
			v, err := r.pop()
			if err != nil {
				return nil, false, err
			}
			fmt.Fprintln(r.vm.Stdout, v.String())

		case compiler.Halt:
			return nil, true, nil

		case compiler.Panic:
			v, err := r.pop()
			if err != nil {
				return nil, false, err
			}
			return nil, false, &Error{Kind: RuntimePanic, Message: v.String()}

		case compiler.Assert:
			v, err := r.pop()
			if err != nil {
				return nil, false, err
			}
			if !bool(variant.Truth(v)) {
				return nil, false, &Error{Kind: AssertionFailed, Message: v.String()}
			}

		default:
			return nil, false, &Error{Kind: TypeError, Message: fmt.Sprintf("unknown opcode %d", ins.Op)}
		}
	}
}

func (r *runner) push(v variant.Value) { r.stack = append(r.stack, v) }

func (r *runner) pop() (variant.Value, error) {
	if len(r.stack) == 0 {
		return nil, stackUnderflow()
	}
	v := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	return v, nil
}

// pop2 pops the top two values, returning (top, second-from-top): the value
// pushed most recently, then the one pushed before it. Binary operators
// read this as (b, a) for "a OP b".
func (r *runner) pop2() (top, second variant.Value, err error) {
	top, err = r.pop()
	if err != nil {
		return nil, nil, err
	}
	second, err = r.pop()
	if err != nil {
		return nil, nil, err
	}
	return top, second, nil
}

func stackUnderflow() *Error {
	return &Error{Kind: StackUnderflow, Message: "stack underflow"}
}

// arithErr maps a variant-level error (OpError, ErrDivisionByZero, or an
// unhashable-key error from the hashing scheme) onto the runtime error
// taxonomy.
func arithErr(err error) *Error {
	if err == variant.ErrDivisionByZero {
		return &Error{Kind: DivisionByZero, Message: err.Error()}
	}
	if _, ok := err.(*variant.OpError); ok {
		return &Error{Kind: BadOperands, Message: err.Error()}
	}
	return &Error{Kind: TypeError, Message: err.Error()}
}

func getArrayItem(arrV, idxV variant.Value) (variant.Value, error) {
	a, ok := arrV.(*variant.Array)
	if !ok {
		return nil, &Error{Kind: TypeError, Message: fmt.Sprintf("GetArrayItem requires an array, got %s", arrV.Type())}
	}
	idx, ok := idxV.(variant.Integer)
	if !ok {
		return nil, &Error{Kind: TypeError, Message: fmt.Sprintf("GetArrayItem requires an integer index, got %s", idxV.Type())}
	}
	if idx < 0 || int(idx) >= a.Len() {
		return nil, &Error{Kind: IndexOutOfBounds, Message: fmt.Sprintf("index %d, length %d", idx, a.Len())}
	}
	return a.At(int(idx)), nil
}

func setArrayItem(arrV, idxV, value variant.Value) error {
	a, ok := arrV.(*variant.Array)
	if !ok {
		return &Error{Kind: TypeError, Message: fmt.Sprintf("SetArrayItem requires an array, got %s", arrV.Type())}
	}
	idx, ok := idxV.(variant.Integer)
	if !ok {
		return &Error{Kind: TypeError, Message: fmt.Sprintf("SetArrayItem requires an integer index, got %s", idxV.Type())}
	}
	if idx < 0 || int(idx) >= a.Len() {
		return &Error{Kind: IndexOutOfBounds, Message: fmt.Sprintf("index %d, length %d", idx, a.Len())}
	}
	a.Set(int(idx), value)
	return nil
}

// call implements FunctionCall: resolve the target, then either enter a
// user-defined function by growing the frame stack, or invoke a native
// function inline with no frame at all.
func (r *runner) call(target compiler.CallTarget) error {
	if target.Resolved {
		return r.callUserDefined(target.Index)
	}
	entry, ok := r.vm.symbols[target.Name]
	if !ok {
		return &Error{Kind: UnknownFunction, Message: target.Name}
	}
	switch entry.Kind {
	case compiler.UserDefinedFunction:
		return r.callUserDefined(entry.Index)
	case compiler.NativeFunction:
		return r.callNative(target.Name, entry.Arity)
	default:
		return &Error{Kind: UnknownFunction, Message: target.Name}
	}
}

func (r *runner) callUserDefined(index int) error {
	if index < 0 || index >= len(r.vm.functions) {
		return &Error{Kind: UnknownFunction, Message: fmt.Sprintf("index %d", index)}
	}
	callee := r.vm.functions[index]
	if len(r.stack) < callee.Arity {
		return stackUnderflow()
	}
	r.frames = append(r.frames, frame{fn: r.currentFn, pc: r.pc, base: r.base})
	newBase := len(r.stack) - callee.Arity
	for len(r.stack) < newBase+callee.LocalCount {
		r.stack = append(r.stack, variant.Null{})
	}
	r.currentFn = index
	r.base = newBase
	r.pc = 0
	return nil
}

func (r *runner) callNative(name string, arity int) error {
	entry, ok := r.vm.natives[name]
	if !ok {
		return &Error{Kind: UnknownNativeFunction, Message: name}
	}
	if len(r.stack) < arity {
		return stackUnderflow()
	}
	args := slices.Clone(r.stack[len(r.stack)-arity:])
	r.stack = r.stack[:len(r.stack)-arity]
	v, hasVal, err := entry.fn(args)
	if err != nil {
		return &Error{Kind: TypeError, Message: err.Error()}
	}
	if hasVal {
		r.push(v)
	}
	return nil
}

// doReturn implements Return. On a top-level return (no enclosing frame) it
// reports done=true with the result. Otherwise it restores the caller's
// registers, pushes the result onto the caller's stack, and reports
// done=false so the dispatch loop continues.
func (r *runner) doReturn(localCount int) (done bool, result variant.Value, err error) {
	if len(r.stack) <= r.base+localCount {
		return false, nil, &Error{Kind: ReturnWithoutValue, Message: "no value on the operand stack"}
	}
	value := r.stack[len(r.stack)-1]
	r.stack = r.stack[:r.base]

	if len(r.frames) == 0 {
		return true, value, nil
	}
	top := r.frames[len(r.frames)-1]
	r.frames = r.frames[:len(r.frames)-1]
	r.currentFn = top.fn
	r.pc = top.pc
	r.base = top.base
	r.push(value)
	return false, nil, nil
}
