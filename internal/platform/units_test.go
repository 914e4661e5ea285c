package platform

import "testing"

func TestParseSizeToBytes(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantNil bool
	}{
		{"6.05G", 6496138035, false},
		{"2.62M", 2747269, false},
		{"1K", 1024, false},
		{"-", 0, true},
		{"none", 0, true},
		{"128", 128, false},
	}
	for _, c := range cases {
		got, ok := ParseSizeToBytes(c.in)
		if !ok {
			t.Errorf("ParseSizeToBytes(%q): unparseable", c.in)
			continue
		}
		if c.wantNil {
			if got != nil {
				t.Errorf("ParseSizeToBytes(%q) = %v, want nil", c.in, *got)
			}
			continue
		}
		if got == nil {
			t.Fatalf("ParseSizeToBytes(%q) = nil, want %d", c.in, c.want)
		}
		// Allow rounding slack since the multiplier math is float-based.
		diff := *got - c.want
		if diff < -1 || diff > 1 {
			t.Errorf("ParseSizeToBytes(%q) = %d, want ~%d", c.in, *got, c.want)
		}
	}
}

func TestParseSizeToBytesInvalid(t *testing.T) {
	_, ok := ParseSizeToBytes("not-a-size")
	if ok {
		t.Error("expected unparseable result for garbage input")
	}
}

func TestCapacity(t *testing.T) {
	alloc := int64(50)
	free := int64(50)
	pct := Capacity(&alloc, &free)
	if pct == nil || *pct != 50.0 {
		t.Errorf("Capacity(50,50) = %v, want 50.0", pct)
	}

	if Capacity(nil, &free) != nil {
		t.Error("Capacity with nil alloc should be nil")
	}
	if Capacity(&alloc, nil) != nil {
		t.Error("Capacity with nil free should be nil")
	}
}

func TestARCEfficiency(t *testing.T) {
	hits := int64(90)
	misses := int64(10)
	eff := ARCEfficiency(&hits, &misses)
	if eff == nil || *eff != 90.0 {
		t.Errorf("ARCEfficiency(90,10) = %v, want 90.0", eff)
	}
	if ARCEfficiency(nil, &misses) != nil {
		t.Error("ARCEfficiency with nil hits should be nil")
	}
}

func TestParseInt64OrNilNullTokens(t *testing.T) {
	for _, tok := range []string{"-", "none", "unknown", ""} {
		if v := ParseInt64OrNil(tok); v != nil {
			t.Errorf("ParseInt64OrNil(%q) = %v, want nil", tok, *v)
		}
	}
	v := ParseInt64OrNil("42")
	if v == nil || *v != 42 {
		t.Errorf("ParseInt64OrNil(42) = %v, want 42", v)
	}
}

func TestParseFloat64OrNilRejectsNaN(t *testing.T) {
	if v := ParseFloat64OrNil("NaN"); v != nil {
		t.Errorf("ParseFloat64OrNil(NaN) = %v, want nil", *v)
	}
}

func TestUnescapeColonMAC(t *testing.T) {
	got := UnescapeColonMAC(`2\:a\:b\:c\:d\:e`)
	want := "2:a:b:c:d:e"
	if got != want {
		t.Errorf("UnescapeColonMAC = %q, want %q", got, want)
	}
}
