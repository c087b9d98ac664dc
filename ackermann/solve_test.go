package ackermann

import (
	"fmt"
	"testing"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func TestClosedFormsMatchMemoizedRecursion(t *testing.T) {
	for _, p := range []uint32{1, 2, 3, 5, 8, 13, 16} {
		for m := uint32(0); m <= 3; m++ {
			for n := uint32(0); n <= 6; n++ {
				got := A(m, n, p)
				want := Memoized(m, n, p)
				assert(t, got == want, "A(%d,%d,%d) = %d, memoized = %d", m, n, p, got, want)
			}
		}
	}
}

func TestM4MatchesMemoizedForSmallP(t *testing.T) {
	for _, p := range []uint32{1, 2, 3, 4, 5, 6, 7, 8} {
		got := A(4, 1, p)
		want := Memoized(4, 1, p)
		assert(t, got == want, "A(4,1,%d) = %d, memoized = %d", p, got, want)
	}
}

func TestSolveFindsRegisterSeven(t *testing.T) {
	p, ok := Solve()
	assert(t, ok, "expected Solve to find a value")
	assert(t, A(4, 1, uint32(p)) == 6, "A(4,1,%d) should equal 6", p)
}

func TestABaseCase(t *testing.T) {
	assert(t, A(0, 0, 5) == 1, "A(0,0,5) should equal 1")
	assert(t, A(0, 32767, 5) == 0, "A(0,32767,5) should wrap to 0 mod 32768")
}
