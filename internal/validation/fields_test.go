package validation

import "testing"

func TestValidEmail(t *testing.T) {
	valids := []string{"a@b.co", "user+tag@example.org", "x.y@sub.example.com"}
	for _, v := range valids {
		if !ValidEmail(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
	invalids := []string{"", "plain", "@x.co", "a@b", "a b@x.co", "a@@x.co"}
	for _, v := range invalids {
		if ValidEmail(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestValidDate(t *testing.T) {
	if !ValidDate("1990-02-28") {
		t.Fatal("expected valid date")
	}
	for _, v := range []string{"", "1990-2-28", "1990-02-30", "28/02/1990"} {
		if ValidDate(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestValidPassword(t *testing.T) {
	if ValidPassword("short") {
		t.Fatal("expected too short")
	}
	if !ValidPassword("long-enough-pass") {
		t.Fatal("expected valid")
	}
}
