package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/burdockcascade/bytevm/lang/variant"
)

func TestEncodeJumpToLabel(t *testing.T) {
	instructions, err := NewBlockEncoder().
		DeclareLocal("i").
		DeclareLocal("max").
		PushInteger(0).
		SetLocal("i").
		PushInteger(10).
		SetLocal("max").
		AddLabel("start").
		GetLocal("i").
		GetLocal("max").
		LessThanOp().
		JumpIfFalse("end").
		GetLocal("i").
		PushInteger(1).
		AddOp().
		SetLocal("i").
		Jump("start").
		AddLabel("end").
		GetLocal("i").
		ReturnValue().
		Encode()
	require.NoError(t, err)

	want := []Instruction{
		{Op: Push, Value: variant.Integer(0)},
		{Op: SetLocal, Operand: 0},
		{Op: Push, Value: variant.Integer(10)},
		{Op: SetLocal, Operand: 1},
		{Op: GetLocal, Operand: 0}, // start
		{Op: GetLocal, Operand: 1},
		{Op: LessThan},
		{Op: JumpIfFalse, Operand: 13},
		{Op: GetLocal, Operand: 0},
		{Op: Push, Value: variant.Integer(1)},
		{Op: Add},
		{Op: SetLocal, Operand: 0},
		{Op: Jump, Operand: 4},
		{Op: GetLocal, Operand: 0}, // end
		{Op: Return},
	}
	require.Equal(t, want, instructions)
}

func TestEncodeUndeclaredLocal(t *testing.T) {
	enc := NewBlockEncoder()
	enc.DeclareLocal("x")
	enc.SetLocal("y") // y was never declared
	_, err := enc.Encode()
	require.ErrorIs(t, err, &Error{Kind: UndeclaredLocal})
}

func TestEncodeUndeclaredLabel(t *testing.T) {
	enc := NewBlockEncoder()
	enc.AddLabel("start")
	enc.Jump("end") // end was never defined
	_, err := enc.Encode()
	require.ErrorIs(t, err, &Error{Kind: UndeclaredLabel})
}

func TestEncodeAppendsTrailingHalt(t *testing.T) {
	instructions, err := NewBlockEncoder().PushInteger(1).Pop().Encode()
	require.NoError(t, err)
	require.Equal(t, Halt, instructions[len(instructions)-1].Op)
}

func TestEncodeDoesNotDoubleHaltAfterReturn(t *testing.T) {
	instructions, err := NewBlockEncoder().PushInteger(1).ReturnValue().Encode()
	require.NoError(t, err)
	require.Len(t, instructions, 2)
	require.Equal(t, Return, instructions[1].Op)
}

func TestEncodeIsPure(t *testing.T) {
	build := func() ([]Instruction, error) {
		return NewBlockEncoder().
			DeclareLocal("x").
			PushInteger(1).
			SetLocal("x").
			GetLocal("x").
			ReturnValue().
			Encode()
	}
	a, err := build()
	require.NoError(t, err)
	b, err := build()
	require.NoError(t, err)
	require.Equal(t, a, b)
}
