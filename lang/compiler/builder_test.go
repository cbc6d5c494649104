package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildMain(t *testing.T, callee string) *Function {
	t.Helper()
	fn, err := NewFunctionBuilder().
		Name("main").
		Arity(0).
		Body(NewBlockEncoder().CallFunctionByName(callee).ReturnValue()).
		Build()
	require.NoError(t, err)
	return fn
}

func TestProgramBuilderRewritesUserDefinedCallsToIndex(t *testing.T) {
	helper, err := NewFunctionBuilder().
		Name("helper").
		Arity(0).
		Body(NewBlockEncoder().PushInteger(1).ReturnValue()).
		Build()
	require.NoError(t, err)

	pb := NewProgramBuilder()
	pb.AddFunction(buildMain(t, "helper"))
	pb.AddFunction(helper)
	program := pb.Build()

	main, _, ok := program.FunctionByName("main")
	require.True(t, ok)
	require.Equal(t, FunctionCall, main.Instructions[0].Op)
	require.True(t, main.Instructions[0].Target.Resolved)
	require.Equal(t, 1, main.Instructions[0].Target.Index)
}

func TestProgramBuilderLeavesNativeCallsNameKeyed(t *testing.T) {
	pb := NewProgramBuilder()
	pb.AddFunction(buildMain(t, "add"))
	pb.AddSymbol("add", SymbolEntry{Kind: NativeFunction, Arity: 2})
	program := pb.Build()

	main, _, ok := program.FunctionByName("main")
	require.True(t, ok)
	require.False(t, main.Instructions[0].Target.Resolved)
	require.Equal(t, "add", main.Instructions[0].Target.Name)
}

func TestProgramBuilderAddSymbolDoesNotShadowUserDefinedFunction(t *testing.T) {
	helper, err := NewFunctionBuilder().Name("helper").Arity(0).
		Body(NewBlockEncoder().PushInteger(1).ReturnValue()).Build()
	require.NoError(t, err)

	pb := NewProgramBuilder()
	pb.AddFunction(helper)
	pb.AddSymbol("helper", SymbolEntry{Kind: NativeFunction, Arity: 2})
	pb.AddFunction(buildMain(t, "helper"))
	program := pb.Build()

	entry, ok := program.Symbols["helper"]
	require.True(t, ok)
	require.Equal(t, UserDefinedFunction, entry.Kind)

	main, _, ok := program.FunctionByName("main")
	require.True(t, ok)
	require.True(t, main.Instructions[0].Target.Resolved)
	require.Equal(t, entry.Index, main.Instructions[0].Target.Index)
}

func TestProgramBuilderAddFunctionReplacesInPlace(t *testing.T) {
	pb := NewProgramBuilder()
	first, err := NewFunctionBuilder().Name("f").Arity(0).
		Body(NewBlockEncoder().PushInteger(1).ReturnValue()).Build()
	require.NoError(t, err)
	pb.AddFunction(first)

	second, err := NewFunctionBuilder().Name("f").Arity(0).
		Body(NewBlockEncoder().PushInteger(2).ReturnValue()).Build()
	require.NoError(t, err)
	pb.AddFunction(second)

	program := pb.Build()
	require.Len(t, program.Functions, 1)
	fn, idx, ok := program.FunctionByName("f")
	require.True(t, ok)
	require.Equal(t, 0, idx)
	require.Same(t, second, fn)
}
