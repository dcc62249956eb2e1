package compiler_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/loxvm/lang/bytecode"
	"github.com/mna/loxvm/lang/compiler"
	"github.com/mna/loxvm/lang/heap"
)

func compileOK(t *testing.T, src string) []byte {
	t.Helper()
	h := heap.New(0, false)
	fn, errs := compiler.Compile(src, h)
	require.Empty(t, errs, "unexpected compile errors for %q: %v", src, errs)
	require.NotNil(t, fn)
	return fn.Chunk.Code
}

func compileErr(t *testing.T, src string) []error {
	t.Helper()
	h := heap.New(0, false)
	fn, errs := compiler.Compile(src, h)
	require.NotEmpty(t, errs, "expected compile errors for %q", src)
	require.Nil(t, fn)
	return errs
}

func containsOp(code []byte, op bytecode.Opcode) bool {
	for _, b := range code {
		if bytecode.Opcode(b) == op {
			return true
		}
	}
	return false
}

func TestExpressionStatementEmitsPop(t *testing.T) {
	code := compileOK(t, "1 + 2;")
	assert.True(t, containsOp(code, bytecode.ADD))
	assert.True(t, containsOp(code, bytecode.POP))
}

func TestVarDeclarationDefinesGlobal(t *testing.T) {
	code := compileOK(t, "var x = 1;")
	assert.True(t, containsOp(code, bytecode.DEFINE_GLOBAL))
}

func TestConstDeclarationRequiresInitializer(t *testing.T) {
	compileErr(t, "const x;")
}

func TestConstReassignmentIsCompileErrorForGlobal(t *testing.T) {
	compileErr(t, `
		const x = 1;
		x = 2;
	`)
}

func TestConstRedeclarationIsCompileError(t *testing.T) {
	compileErr(t, `
		const x = 1;
		var x = 2;
	`)
}

func TestLocalConstReassignmentIsCompileError(t *testing.T) {
	compileErr(t, `
		{
			const x = 1;
			x = 2;
		}
	`)
}

func TestReadLocalInOwnInitializerIsCompileError(t *testing.T) {
	compileErr(t, `
		{
			var x = x;
		}
	`)
}

func TestDuplicateLocalInSameScopeIsCompileError(t *testing.T) {
	compileErr(t, `
		{
			var x = 1;
			var x = 2;
		}
	`)
}

func TestShadowingInNestedScopeIsAllowed(t *testing.T) {
	code := compileOK(t, `
		var x = 1;
		{
			var x = 2;
		}
	`)
	assert.True(t, containsOp(code, bytecode.DEFINE_GLOBAL))
}

func TestClosureCapturesEnclosingLocal(t *testing.T) {
	code := compileOK(t, `
		fun outer() {
			var x = 1;
			fun inner() {
				return x;
			}
			return inner;
		}
	`)
	assert.True(t, containsOp(code, bytecode.CLOSURE))
}

func TestWhileLoopCompiles(t *testing.T) {
	code := compileOK(t, `
		var i = 0;
		while (i < 10) {
			i = i + 1;
		}
	`)
	assert.True(t, containsOp(code, bytecode.LOOP))
	assert.True(t, containsOp(code, bytecode.JUMP_IF_FALSE))
}

func TestForLoopCompiles(t *testing.T) {
	code := compileOK(t, `
		for (var i = 0; i < 10; i = i + 1) {
			print i;
		}
	`)
	assert.True(t, containsOp(code, bytecode.LOOP))
	assert.True(t, containsOp(code, bytecode.PRINT))
}

func TestBreakOutsideLoopIsCompileError(t *testing.T) {
	compileErr(t, "break;")
}

func TestContinueOutsideLoopIsCompileError(t *testing.T) {
	compileErr(t, "continue;")
}

func TestBreakAndContinueInsideLoopCompile(t *testing.T) {
	code := compileOK(t, `
		for (var i = 0; i < 10; i = i + 1) {
			if (i == 3) continue;
			if (i == 5) break;
			print i;
		}
	`)
	assert.True(t, containsOp(code, bytecode.LOOP))
}

func TestSwitchStatementCompiles(t *testing.T) {
	code := compileOK(t, `
		var x = 1;
		switch (x) {
			case 1: print "one";
			case 2: print "two";
			default: print "other";
		}
	`)
	assert.True(t, containsOp(code, bytecode.DUP))
	assert.True(t, containsOp(code, bytecode.EQUAL))
}

func TestReturnAtTopLevelIsCompileError(t *testing.T) {
	compileErr(t, "return 1;")
}

func TestReturnValueFromInitializerIsCompileError(t *testing.T) {
	compileErr(t, `
		class Foo {
			init() {
				return 1;
			}
		}
	`)
}

func TestBareReturnFromInitializerIsAllowed(t *testing.T) {
	code := compileOK(t, `
		class Foo {
			init() {
				return;
			}
		}
	`)
	assert.True(t, containsOp(code, bytecode.CLASS))
}

func TestClassWithSuperclassEmitsInherit(t *testing.T) {
	code := compileOK(t, `
		class Animal {
			speak() { print "..."; }
		}
		class Dog : Animal {
			speak() { super.speak(); }
		}
	`)
	assert.True(t, containsOp(code, bytecode.INHERIT))
	assert.True(t, containsOp(code, bytecode.SUPER_INVOKE))
}

func TestClassInheritingFromItselfIsCompileError(t *testing.T) {
	compileErr(t, "class Foo : Foo {}")
}

func TestSuperOutsideClassIsCompileError(t *testing.T) {
	compileErr(t, `
		fun f() {
			super.bar();
		}
	`)
}

func TestThisOutsideClassIsCompileError(t *testing.T) {
	compileErr(t, "print this;")
}

func TestNotAndBangAreEquivalent(t *testing.T) {
	bangCode := compileOK(t, "print !true;")
	notCode := compileOK(t, "print not true;")
	assert.True(t, containsOp(bangCode, bytecode.NOT))
	assert.True(t, containsOp(notCode, bytecode.NOT))
}

func TestListAndMapLiteralsCompile(t *testing.T) {
	code := compileOK(t, `
		var l = [1, 2, 3];
		var m = {"a": 1, "b": 2};
	`)
	assert.True(t, containsOp(code, bytecode.BUILD_LIST))
	assert.True(t, containsOp(code, bytecode.BUILD_MAP))
}

func TestIndexGetAndSetCompile(t *testing.T) {
	code := compileOK(t, `
		var l = [1, 2, 3];
		l[0] = l[1];
	`)
	assert.True(t, containsOp(code, bytecode.INDEX_GET))
	assert.True(t, containsOp(code, bytecode.INDEX_SET))
}

func TestAndOrShortCircuitCompiles(t *testing.T) {
	code := compileOK(t, `print true and false or true;`)
	assert.True(t, containsOp(code, bytecode.JUMP_IF_FALSE))
	assert.True(t, containsOp(code, bytecode.JUMP))
}

func TestManyConstantsWidenToLongVariant(t *testing.T) {
	var src string
	for i := 0; i < 300; i++ {
		src += "print " + strconv.Itoa(i) + ";\n"
	}
	code := compileOK(t, src)
	assert.True(t, containsOp(code, bytecode.CONST_LONG))
}
