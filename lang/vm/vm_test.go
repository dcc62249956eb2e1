package vm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/loxvm/lang/compiler"
	"github.com/mna/loxvm/lang/heap"
	"github.com/mna/loxvm/lang/vm"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	h := heap.New(0, false)
	fn, errs := compiler.Compile(src, h)
	require.Empty(t, errs, "unexpected compile errors: %v", errs)

	var out strings.Builder
	th := vm.New(h, &out)
	err := th.Interpret(fn)
	return out.String(), err
}

func runOK(t *testing.T, src string) string {
	t.Helper()
	out, err := run(t, src)
	require.NoError(t, err)
	return out
}

func runStressOK(t *testing.T, src string) string {
	t.Helper()
	h := heap.New(0, true)
	fn, errs := compiler.Compile(src, h)
	require.Empty(t, errs, "unexpected compile errors: %v", errs)

	var out strings.Builder
	th := vm.New(h, &out)
	require.NoError(t, th.Interpret(fn))
	return out.String()
}

func TestArithmeticAndPrint(t *testing.T) {
	out := runOK(t, `print 1 + 2 * 3;`)
	assert.Equal(t, "7\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out := runOK(t, `print "foo" + "bar";`)
	assert.Equal(t, "foobar\n", out)
}

func TestIntDivisionPromotesToDouble(t *testing.T) {
	out := runOK(t, `print 7 / 2;`)
	assert.Equal(t, "3.5\n", out)
}

func TestExactIntDivisionPrintsWithoutTrailingZero(t *testing.T) {
	out := runOK(t, `print 8 / 2;`)
	assert.Equal(t, "4\n", out)
}

func TestFloatDivisionByZeroYieldsInfinity(t *testing.T) {
	out := runOK(t, `print 1.0 / 0.0;`)
	assert.Equal(t, "inf\n", out)
}

func TestIntDivisionByZeroIsRuntimeError(t *testing.T) {
	_, err := run(t, `print 1 / 0;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Division by zero")
}

func TestGlobalVarReadWrite(t *testing.T) {
	out := runOK(t, `
		var x = 1;
		x = x + 1;
		print x;
	`)
	assert.Equal(t, "2\n", out)
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, err := run(t, `print nope;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined variable")
}

func TestLocalVariables(t *testing.T) {
	out := runOK(t, `
		{
			var x = 10;
			var y = 20;
			print x + y;
		}
	`)
	assert.Equal(t, "30\n", out)
}

// TestClosuresShareUpvalue mirrors the upvalue-capture invariant: two
// closures created in the same call share the variable they both captured,
// so current() observes increment()'s writes.
func TestClosuresShareUpvalue(t *testing.T) {
	out := runOK(t, `
		fun makeCounter() {
			var count = 0;
			fun increment() {
				count = count + 1;
				return count;
			}
			fun current() {
				return count;
			}
			print increment();
			print increment();
			print current();
		}
		makeCounter();
	`)
	assert.Equal(t, "1\n2\n2\n", out)
}

func TestWhileLoop(t *testing.T) {
	out := runOK(t, `
		var i = 0;
		var sum = 0;
		while (i < 5) {
			sum = sum + i;
			i = i + 1;
		}
		print sum;
	`)
	assert.Equal(t, "10\n", out)
}

func TestForLoopWithBreakAndContinue(t *testing.T) {
	out := runOK(t, `
		for (var i = 0; i < 10; i = i + 1) {
			if (i == 2) continue;
			if (i == 5) break;
			print i;
		}
	`)
	assert.Equal(t, "0\n1\n3\n4\n", out)
}

func TestSwitchStatement(t *testing.T) {
	out := runOK(t, `
		var x = 2;
		switch (x) {
			case 1: print "one";
			case 2: print "two";
			default: print "other";
		}
	`)
	assert.Equal(t, "two\n", out)
}

func TestSwitchFallsToDefault(t *testing.T) {
	out := runOK(t, `
		var x = 99;
		switch (x) {
			case 1: print "one";
			default: print "other";
		}
	`)
	assert.Equal(t, "other\n", out)
}

func TestClassInitAndMethods(t *testing.T) {
	out := runOK(t, `
		class Counter {
			init(start) {
				this.n = start;
			}
			increment() {
				this.n = this.n + 1;
				return this.n;
			}
		}
		var c = Counter(10);
		print c.increment();
		print c.increment();
	`)
	assert.Equal(t, "11\n12\n", out)
}

func TestInheritanceAndSuper(t *testing.T) {
	out := runOK(t, `
		class Animal {
			speak() {
				print "...";
			}
			describe() {
				print "an animal that says:";
				this.speak();
			}
		}
		class Dog : Animal {
			speak() {
				print "woof";
			}
			describe() {
				super.describe();
				print "(a dog)";
			}
		}
		Dog().describe();
	`)
	assert.Equal(t, "an animal that says:\nwoof\n(a dog)\n", out)
}

func TestUndefinedMethodIsRuntimeError(t *testing.T) {
	_, err := run(t, `
		class Foo {}
		Foo().bar();
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined property")
}

func TestCallingNonCallableIsRuntimeError(t *testing.T) {
	_, err := run(t, `
		var x = 1;
		x();
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Can only call functions and classes")
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `
		fun f(a, b) { return a + b; }
		f(1);
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected 2 arguments but got 1")
}

func TestPropertyAccessOnNonInstanceIsRuntimeError(t *testing.T) {
	_, err := run(t, `
		var x = 1;
		print x.foo;
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Only instances have properties")
}

func TestListLiteralAndIndex(t *testing.T) {
	out := runOK(t, `
		var l = [1, 2, 3];
		print l[1];
		l[1] = 99;
		print l;
	`)
	assert.Equal(t, "2\n[1, 99, 3]\n", out)
}

func TestListLiteralKeepsRuntimeComputedElementsRootedUnderStressGC(t *testing.T) {
	out := runStressOK(t, `
		fun concat(a, b) { return a + b; }
		var l = [concat("he", "llo")];
		print l[0] == "hello";
	`)
	assert.Equal(t, "true\n", out)
}

func TestListIndexOutOfRangeIsRuntimeError(t *testing.T) {
	_, err := run(t, `
		var l = [1, 2];
		print l[5];
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestMapLiteralAndIndex(t *testing.T) {
	out := runOK(t, `
		var m = {"a": 1, "b": 2};
		print m["a"];
		m["c"] = 3;
		print m["c"];
	`)
	assert.Equal(t, "1\n3\n", out)
}

func TestIndexingNonContainerIsRuntimeError(t *testing.T) {
	_, err := run(t, `
		var x = 1;
		print x[0];
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Can only index")
}

func TestAndOrShortCircuit(t *testing.T) {
	out := runOK(t, `
		print false and (1 / 0 == 1);
		print true or (1 / 0 == 1);
	`)
	assert.Equal(t, "false\ntrue\n", out)
}

func TestRecursion(t *testing.T) {
	out := runOK(t, `
		fun fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`)
	assert.Equal(t, "55\n", out)
}

func TestConstGlobalCannotBeReassignedAtRuntimeIsCaughtAtCompileTime(t *testing.T) {
	_, errs := compiler.Compile(`
		const x = 1;
		x = 2;
	`, heap.New(0, false))
	require.NotEmpty(t, errs)
}
