package compiler

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/burdockcascade/bytevm/lang/variant"
)

// This file implements a human-readable/writable form of a compiled
// program, used by tests and by the CLI host so that a Program can be
// constructed without going through a surface-syntax parser.
//
// The format looks like this (indentation is cosmetic only):
//
//	program:
//		native: add 2
//	function: main arity=0 locals=1
//		push.int 1
//		push.int 2
//		add
//		return
//
// Every function's instructions run until the next "function:" line or the
// end of input. A "native: NAME ARITY" line registers a NativeFunction
// symbol; it takes no function body, since native functions are supplied by
// the host at VM.RegisterNativeFunction time.

var mnemonics = map[string]Opcode{
	"pop":             Pop,
	"add":             Add,
	"sub":             Sub,
	"mul":             Mul,
	"div":             Div,
	"mod":             Mod,
	"pow":             Pow,
	"negate":          Negate,
	"eq":              Equal,
	"neq":             NotEqual,
	"lt":              LessThan,
	"le":              LessEqual,
	"gt":              GreaterThan,
	"ge":              GreaterEqual,
	"and":             And,
	"or":           Or,
	"not":          Not,
	"getarrayitem": GetArrayItem,
	"setarrayitem": SetArrayItem,
	"arraylen":     GetArrayLength,
	"getdictitem":  GetDictionaryItem,
	"setdictitem":  SetDictionaryItem,
	"dictkeys":     GetDictionaryKeys,
	"return":       Return,
	"print":        Print,
	"halt":         Halt,
	"panic":        Panic,
	"assert":       Assert,
}

var mnemonicByOpcode = func() map[Opcode]string {
	m := make(map[Opcode]string, len(mnemonics))
	for name, op := range mnemonics {
		m[op] = name
	}
	return m
}()

// Disassemble renders p in the textual assembly format. Output is
// deterministic for a given Program value.
func Disassemble(p *Program) []byte {
	var b bytes.Buffer
	b.WriteString("program:\n")
	natives := make([]string, 0, len(p.Symbols))
	for name, entry := range p.Symbols {
		if entry.Kind == NativeFunction {
			natives = append(natives, name)
		}
	}
	sort.Strings(natives)
	for _, name := range natives {
		fmt.Fprintf(&b, "\tnative: %s %d\n", name, p.Symbols[name].Arity)
	}
	for _, fn := range p.Functions {
		fmt.Fprintf(&b, "function: %s arity=%d locals=%d\n", fn.Name, fn.Arity, fn.LocalCount)
		for _, ins := range fn.Instructions {
			b.WriteString("\t")
			writeInstruction(&b, ins)
			b.WriteString("\n")
		}
	}
	return b.Bytes()
}

func writeInstruction(b *bytes.Buffer, ins Instruction) {
	switch ins.Op {
	case Push:
		writePush(b, ins.Value)
	case GetLocal:
		fmt.Fprintf(b, "getlocal %d", ins.Operand)
	case SetLocal:
		fmt.Fprintf(b, "setlocal %d", ins.Operand)
	case Jump:
		fmt.Fprintf(b, "jump %d", ins.Operand)
	case JumpIfFalse:
		fmt.Fprintf(b, "jumpiffalse %d", ins.Operand)
	case CreateArray:
		fmt.Fprintf(b, "createarray %d", ins.Operand)
	case CreateDictionary:
		fmt.Fprintf(b, "createdict %d", ins.Operand)
	case FunctionCall:
		if ins.Target.Resolved {
			fmt.Fprintf(b, "call.index %d", ins.Target.Index)
		} else {
			fmt.Fprintf(b, "call.name %s", ins.Target.Name)
		}
	default:
		b.WriteString(mnemonicByOpcode[ins.Op])
	}
}

func writePush(b *bytes.Buffer, v variant.Value) {
	switch x := v.(type) {
	case variant.Integer:
		fmt.Fprintf(b, "push.int %d", int64(x))
	case variant.Float:
		fmt.Fprintf(b, "push.float %s", strconv.FormatFloat(float64(x), 'g', -1, 64))
	case variant.Str:
		fmt.Fprintf(b, "push.str %s", strconv.Quote(string(x)))
	case variant.Boolean:
		fmt.Fprintf(b, "push.bool %t", bool(x))
	case variant.Symbol:
		fmt.Fprintf(b, "push.symbol %s", string(x))
	case variant.Null:
		b.WriteString("push.null")
	default:
		fmt.Fprintf(b, "push.int 0 # unrepresentable value %s", v.Type())
	}
}

// Assemble parses the textual assembly format into a Program. Name-keyed
// calls are left as-is; callers that need index resolution for user-defined
// targets should route the result through ProgramBuilder.
func Assemble(b []byte) (*Program, error) {
	sc := bufio.NewScanner(bytes.NewReader(b))
	program := &Program{Symbols: make(map[string]SymbolEntry)}

	var cur *Function
	sawHeader := false
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch {
		case !sawHeader:
			if fields[0] != "program:" {
				return nil, asmErr(lineNo, "expected 'program:'")
			}
			sawHeader = true

		case fields[0] == "native:":
			if len(fields) != 3 {
				return nil, asmErr(lineNo, "expected 'native: NAME ARITY'")
			}
			arity, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, asmErr(lineNo, "bad arity: %v", err)
			}
			program.Symbols[fields[1]] = SymbolEntry{Kind: NativeFunction, Arity: arity}

		case fields[0] == "function:":
			fn, err := parseFunctionHeader(lineNo, fields)
			if err != nil {
				return nil, err
			}
			if cur != nil {
				appendFunction(program, cur)
			}
			cur = fn

		default:
			if cur == nil {
				return nil, asmErr(lineNo, "instruction outside of any function")
			}
			ins, err := parseInstruction(lineNo, fields)
			if err != nil {
				return nil, err
			}
			cur.Instructions = append(cur.Instructions, ins)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if cur != nil {
		appendFunction(program, cur)
	}
	if !sawHeader {
		return nil, asmErr(lineNo, "empty input, expected 'program:'")
	}
	return program, nil
}

func appendFunction(program *Program, fn *Function) {
	program.Symbols[fn.Name] = SymbolEntry{Kind: UserDefinedFunction, Index: len(program.Functions)}
	program.Functions = append(program.Functions, fn)
}

func parseFunctionHeader(lineNo int, fields []string) (*Function, error) {
	if len(fields) != 4 {
		return nil, asmErr(lineNo, "expected 'function: NAME arity=K locals=N'")
	}
	fn := &Function{Name: fields[1]}
	arity, err := parseKeyValueInt(fields[2], "arity")
	if err != nil {
		return nil, asmErr(lineNo, "%v", err)
	}
	locals, err := parseKeyValueInt(fields[3], "locals")
	if err != nil {
		return nil, asmErr(lineNo, "%v", err)
	}
	fn.Arity = arity
	fn.LocalCount = locals
	return fn, nil
}

func parseKeyValueInt(field, key string) (int, error) {
	prefix := key + "="
	if !strings.HasPrefix(field, prefix) {
		return 0, fmt.Errorf("expected %sN", prefix)
	}
	return strconv.Atoi(strings.TrimPrefix(field, prefix))
}

func parseInstruction(lineNo int, fields []string) (Instruction, error) {
	head := fields[0]
	if op, ok := mnemonics[head]; ok {
		return Instruction{Op: op}, nil
	}

	switch head {
	case "getlocal", "setlocal", "jump", "jumpiffalse", "createarray", "createdict":
		if len(fields) != 2 {
			return Instruction{}, asmErr(lineNo, "%s requires one operand", head)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return Instruction{}, asmErr(lineNo, "bad operand for %s: %v", head, err)
		}
		op := map[string]Opcode{
			"getlocal":    GetLocal,
			"setlocal":    SetLocal,
			"jump":        Jump,
			"jumpiffalse": JumpIfFalse,
			"createarray": CreateArray,
			"createdict":  CreateDictionary,
		}[head]
		return Instruction{Op: op, Operand: n}, nil

	case "call.name":
		if len(fields) != 2 {
			return Instruction{}, asmErr(lineNo, "call.name requires a function name")
		}
		return Instruction{Op: FunctionCall, Target: CallTarget{Name: fields[1]}}, nil

	case "call.index":
		if len(fields) != 2 {
			return Instruction{}, asmErr(lineNo, "call.index requires an index")
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil {
			return Instruction{}, asmErr(lineNo, "bad index: %v", err)
		}
		return Instruction{Op: FunctionCall, Target: CallTarget{Index: idx, Resolved: true}}, nil

	case "push.int":
		n, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return Instruction{}, asmErr(lineNo, "bad push.int operand: %v", err)
		}
		return Instruction{Op: Push, Value: variant.Integer(n)}, nil

	case "push.float":
		f, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return Instruction{}, asmErr(lineNo, "bad push.float operand: %v", err)
		}
		return Instruction{Op: Push, Value: variant.Float(f)}, nil

	case "push.str":
		rest := joinFrom(fields, 1)
		s, err := strconv.Unquote(rest)
		if err != nil {
			return Instruction{}, asmErr(lineNo, "bad push.str operand: %v", err)
		}
		return Instruction{Op: Push, Value: variant.Str(s)}, nil

	case "push.bool":
		v, err := strconv.ParseBool(fields[1])
		if err != nil {
			return Instruction{}, asmErr(lineNo, "bad push.bool operand: %v", err)
		}
		return Instruction{Op: Push, Value: variant.Boolean(v)}, nil

	case "push.symbol":
		return Instruction{Op: Push, Value: variant.Symbol(fields[1])}, nil

	case "push.null":
		return Instruction{Op: Push, Value: variant.Null{}}, nil
	}

	return Instruction{}, asmErr(lineNo, "unknown instruction: %s", head)
}

// joinFrom rejoins fields[i:] with single spaces, needed for push.str since
// a quoted string may itself contain spaces.
func joinFrom(fields []string, i int) string {
	return strings.Join(fields[i:], " ")
}

func asmErr(lineNo int, format string, args ...any) error {
	return &Error{Kind: AssembleSyntax, Message: fmt.Sprintf("line %d: %s", lineNo, fmt.Sprintf(format, args...))}
}
