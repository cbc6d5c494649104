package machine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/burdockcascade/bytevm/lang/compiler"
	"github.com/burdockcascade/bytevm/lang/variant"
)

func buildProgram(t *testing.T, fns ...*compiler.Function) *compiler.Program {
	t.Helper()
	pb := compiler.NewProgramBuilder()
	for _, fn := range fns {
		pb.AddFunction(fn)
	}
	return pb.Build()
}

func mustBuild(t *testing.T, name string, arity int, enc *compiler.BlockEncoder) *compiler.Function {
	t.Helper()
	fn, err := compiler.NewFunctionBuilder().Name(name).Arity(arity).Body(enc).Build()
	require.NoError(t, err)
	return fn
}

func TestRunArithmeticAndBooleanEquality(t *testing.T) {
	main := mustBuild(t, "main", 0, compiler.NewBlockEncoder().
		PushInteger(2).
		PushInteger(3).
		AddOp().
		PushInteger(5).
		EqualOp().
		ReturnValue())

	vm := New()
	require.NoError(t, vm.LoadProgram(buildProgram(t, main)))
	result, err := vm.Run("main")
	require.NoError(t, err)
	require.False(t, result.Halted)
	require.Equal(t, variant.Boolean(true), result.Value)
}

func TestRunWhileLoopCountsToTen(t *testing.T) {
	main := mustBuild(t, "main", 0, compiler.NewBlockEncoder().
		DeclareLocal("i").
		PushInteger(0).
		SetLocal("i").
		AddLabel("loop").
		GetLocal("i").
		PushInteger(10).
		LessThanOp().
		JumpIfFalse("done").
		GetLocal("i").
		PushInteger(1).
		AddOp().
		SetLocal("i").
		Jump("loop").
		AddLabel("done").
		GetLocal("i").
		ReturnValue())

	vm := New()
	require.NoError(t, vm.LoadProgram(buildProgram(t, main)))
	result, err := vm.Run("main")
	require.NoError(t, err)
	require.Equal(t, variant.Integer(10), result.Value)
}

// fib(n) = n < 2 ? n : fib(n-1) + fib(n-2), computed recursively to exercise
// the call-frame stack at real depth.
func fibFunction(t *testing.T) *compiler.Function {
	t.Helper()
	fn, err := compiler.NewFunctionBuilder().Name("fib").Arity(1).
		Body(compiler.NewBlockEncoder().
			DeclareLocal("n").
			GetLocal("n").
			PushInteger(2).
			LessThanOp().
			JumpIfFalse("recurse").
			GetLocal("n").
			ReturnValue().
			AddLabel("recurse").
			GetLocal("n").
			PushInteger(1).
			SubOp().
			CallFunctionByName("fib").
			GetLocal("n").
			PushInteger(2).
			SubOp().
			CallFunctionByName("fib").
			AddOp().
			ReturnValue()).
		Build()
	require.NoError(t, err)
	return fn
}

func TestRunRecursiveFibonacci(t *testing.T) {
	main := mustBuild(t, "main", 0, compiler.NewBlockEncoder().
		PushInteger(20).
		CallFunctionByName("fib").
		ReturnValue())

	vm := New()
	require.NoError(t, vm.LoadProgram(buildProgram(t, main, fibFunction(t))))
	result, err := vm.Run("main")
	require.NoError(t, err)
	require.Equal(t, variant.Integer(6765), result.Value)
}

func TestRunArrayIndexing(t *testing.T) {
	main := mustBuild(t, "main", 0, compiler.NewBlockEncoder().
		PushInteger(10).
		PushInteger(20).
		PushInteger(30).
		CreateArray(3).
		PushInteger(1).
		GetArrayItem().
		ReturnValue())

	vm := New()
	require.NoError(t, vm.LoadProgram(buildProgram(t, main)))
	result, err := vm.Run("main")
	require.NoError(t, err)
	require.Equal(t, variant.Integer(20), result.Value)
}

func TestRunArraySetItemPushesArrayBack(t *testing.T) {
	main := mustBuild(t, "main", 0, compiler.NewBlockEncoder().
		PushInteger(1).
		PushInteger(2).
		CreateArray(2).
		PushInteger(0).
		PushInteger(99).
		SetArrayItem().
		GetArrayLength().
		ReturnValue())

	vm := New()
	require.NoError(t, vm.LoadProgram(buildProgram(t, main)))
	result, err := vm.Run("main")
	require.NoError(t, err)
	require.Equal(t, variant.Integer(2), result.Value)
}

func TestRunDictionaryRoundTrip(t *testing.T) {
	main := mustBuild(t, "main", 0, compiler.NewBlockEncoder().
		PushString("name").
		PushString("ada").
		CreateDictionary(1).
		PushString("name").
		GetDictionaryItem().
		ReturnValue())

	vm := New()
	require.NoError(t, vm.LoadProgram(buildProgram(t, main)))
	result, err := vm.Run("main")
	require.NoError(t, err)
	require.Equal(t, variant.Str("ada"), result.Value)
}

func TestRunNativeFunctionCall(t *testing.T) {
	main := mustBuild(t, "main", 0, compiler.NewBlockEncoder().
		PushInteger(4).
		PushInteger(5).
		CallFunctionByName("multiply").
		ReturnValue())

	vm := New()
	require.NoError(t, vm.LoadProgram(buildProgram(t, main)))
	require.NoError(t, vm.RegisterNativeFunction("multiply", 2, func(args []variant.Value) (variant.Value, bool, error) {
		a := args[0].(variant.Integer)
		b := args[1].(variant.Integer)
		return a * b, true, nil
	}))

	result, err := vm.Run("main")
	require.NoError(t, err)
	require.Equal(t, variant.Integer(20), result.Value)
}

func TestRunHaltInsideNestedCallEndsRunImmediately(t *testing.T) {
	helper := mustBuild(t, "helper", 0, compiler.NewBlockEncoder().HaltOp())
	main := mustBuild(t, "main", 0, compiler.NewBlockEncoder().
		CallFunctionByName("helper").
		PushInteger(1). // never reached
		ReturnValue())

	vm := New()
	require.NoError(t, vm.LoadProgram(buildProgram(t, main, helper)))
	result, err := vm.Run("main")
	require.NoError(t, err)
	require.True(t, result.Halted)
	require.Nil(t, result.Value)
}

func TestRunDivisionByZero(t *testing.T) {
	main := mustBuild(t, "main", 0, compiler.NewBlockEncoder().
		PushInteger(1).
		PushInteger(0).
		DivOp().
		ReturnValue())

	vm := New()
	require.NoError(t, vm.LoadProgram(buildProgram(t, main)))
	_, err := vm.Run("main")
	require.ErrorIs(t, err, &Error{Kind: DivisionByZero})
}

func TestRunIndexOutOfBounds(t *testing.T) {
	main := mustBuild(t, "main", 0, compiler.NewBlockEncoder().
		PushInteger(1).
		CreateArray(1).
		PushInteger(5).
		GetArrayItem().
		ReturnValue())

	vm := New()
	require.NoError(t, vm.LoadProgram(buildProgram(t, main)))
	_, err := vm.Run("main")
	require.ErrorIs(t, err, &Error{Kind: IndexOutOfBounds})
}

func TestRunKeyNotFound(t *testing.T) {
	main := mustBuild(t, "main", 0, compiler.NewBlockEncoder().
		PushString("a").
		PushInteger(1).
		CreateDictionary(1).
		PushString("missing").
		GetDictionaryItem().
		ReturnValue())

	vm := New()
	require.NoError(t, vm.LoadProgram(buildProgram(t, main)))
	_, err := vm.Run("main")
	require.ErrorIs(t, err, &Error{Kind: KeyNotFound})
}

func TestRunJumpIfFalseRequiresStrictBoolean(t *testing.T) {
	main := mustBuild(t, "main", 0, compiler.NewBlockEncoder().
		PushInteger(0).
		JumpIfFalse("end").
		AddLabel("end").
		PushInteger(1).
		ReturnValue())

	vm := New()
	require.NoError(t, vm.LoadProgram(buildProgram(t, main)))
	_, err := vm.Run("main")
	require.ErrorIs(t, err, &Error{Kind: TypeError})
}

func TestRunAndOrDoNotShortCircuit(t *testing.T) {
	// The right operand comes from a native call that records whether it
	// ran; with no short-circuit, Or must evaluate the right side even
	// though the left side is already true.
	var rightEvaluated bool
	main := mustBuild(t, "main", 0, compiler.NewBlockEncoder().
		PushBoolean(true).
		CallFunctionByName("marked_true").
		OrOp().
		ReturnValue())

	vm := New()
	require.NoError(t, vm.LoadProgram(buildProgram(t, main)))
	require.NoError(t, vm.RegisterNativeFunction("marked_true", 0, func(args []variant.Value) (variant.Value, bool, error) {
		rightEvaluated = true
		return variant.Boolean(true), true, nil
	}))

	result, err := vm.Run("main")
	require.NoError(t, err)
	require.True(t, rightEvaluated)
	require.Equal(t, variant.Boolean(true), result.Value)
}

func TestRunPowNegativeIntegerExponentFails(t *testing.T) {
	main := mustBuild(t, "main", 0, compiler.NewBlockEncoder().
		PushInteger(2).
		PushInteger(-1).
		PowOp().
		ReturnValue())

	vm := New()
	require.NoError(t, vm.LoadProgram(buildProgram(t, main)))
	_, err := vm.Run("main")
	require.ErrorIs(t, err, &Error{Kind: BadOperands})
}

func TestRunAssertFailure(t *testing.T) {
	main := mustBuild(t, "main", 0, compiler.NewBlockEncoder().
		PushBoolean(false).
		AssertOp().
		ReturnValue())

	vm := New()
	require.NoError(t, vm.LoadProgram(buildProgram(t, main)))
	_, err := vm.Run("main")
	require.ErrorIs(t, err, &Error{Kind: AssertionFailed})
}

func TestRunPanicInstruction(t *testing.T) {
	main := mustBuild(t, "main", 0, compiler.NewBlockEncoder().
		PushString("boom").
		PanicOp())

	vm := New()
	require.NoError(t, vm.LoadProgram(buildProgram(t, main)))
	_, err := vm.Run("main")
	var machineErr *Error
	require.ErrorAs(t, err, &machineErr)
	require.Equal(t, RuntimePanic, machineErr.Kind)
	require.Equal(t, "boom", machineErr.Message)
}

func TestRunStepLimitExceeded(t *testing.T) {
	main := mustBuild(t, "main", 0, compiler.NewBlockEncoder().
		AddLabel("loop").
		Jump("loop"))

	vm := New()
	vm.MaxSteps = 100
	require.NoError(t, vm.LoadProgram(buildProgram(t, main)))
	_, err := vm.Run("main")
	require.ErrorIs(t, err, &Error{Kind: StepLimitExceeded})
}

func TestRunUnknownEntryPoint(t *testing.T) {
	vm := New()
	_, err := vm.Run("does_not_exist")
	require.ErrorIs(t, err, &Error{Kind: UnknownEntryPoint})
}

func TestLoadProgramRejectsDuplicateFunctionNames(t *testing.T) {
	main := mustBuild(t, "main", 0, compiler.NewBlockEncoder().PushInteger(1).ReturnValue())
	dup := mustBuild(t, "main", 0, compiler.NewBlockEncoder().PushInteger(2).ReturnValue())

	vm := New()
	require.NoError(t, vm.LoadProgram(buildProgram(t, main)))
	err := vm.LoadProgram(buildProgram(t, dup))
	require.ErrorIs(t, err, &Error{Kind: DuplicateFunction})
}

func TestLoadProgramRebasesResolvedCallsInMergedFunctions(t *testing.T) {
	first := mustBuild(t, "first", 0, compiler.NewBlockEncoder().PushInteger(1).ReturnValue())

	helper := mustBuild(t, "helper", 0, compiler.NewBlockEncoder().PushInteger(2).ReturnValue())
	pb := compiler.NewProgramBuilder()
	pb.AddFunction(mustBuild(t, "mainB", 0, compiler.NewBlockEncoder().
		CallFunctionByName("helper").
		ReturnValue()))
	pb.AddFunction(helper)
	programB := pb.Build()

	vm := New()
	require.NoError(t, vm.LoadProgram(buildProgram(t, first)))
	require.NoError(t, vm.LoadProgram(programB))

	result, err := vm.Run("mainB")
	require.NoError(t, err)
	require.Equal(t, variant.Integer(2), result.Value)
}

func TestRunPrintWritesToStdout(t *testing.T) {
	main := mustBuild(t, "main", 0, compiler.NewBlockEncoder().
		PushString("hello").
		PrintOp().
		PushInteger(0).
		ReturnValue())

	var out bytes.Buffer
	vm := New()
	vm.Stdout = &out
	require.NoError(t, vm.LoadProgram(buildProgram(t, main)))
	_, err := vm.Run("main")
	require.NoError(t, err)
	require.Equal(t, "hello\n", out.String())
}
