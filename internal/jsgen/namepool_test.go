package jsgen

import "testing"

func TestNamePoolBase36(t *testing.T) {
	p := NewNamePool("a")
	want := []string{"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9", "aa", "ab"}
	for i, w := range want {
		if got := p.Next(); got != w {
			t.Fatalf("Next() #%d = %q, want %q", i, got, w)
		}
	}
	for i := 12; i < 36; i++ {
		p.Next()
	}
	if got := p.Next(); got != "a10" {
		t.Errorf("Next() #36 = %q, want a10", got)
	}
}

func TestPoolsArePrefixed(t *testing.T) {
	pools := NewPools()
	if got := pools.Factory.Next(); got != "factory0" {
		t.Errorf("factory pool = %q", got)
	}
	if got := pools.Function.Next(); got != "fun0" {
		t.Errorf("function pool = %q", got)
	}
	if got := pools.Generator.Next(); got != "gen0" {
		t.Errorf("generator pool = %q", got)
	}
}
