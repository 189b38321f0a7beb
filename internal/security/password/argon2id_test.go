package password

import (
	"strings"
	"testing"
)

func TestHashVerify_RoundTrip(t *testing.T) {
	phc, err := Hash(Default, "correct horse battery staple")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(phc, "$argon2id$v=19$") {
		t.Fatalf("unexpected PHC prefix: %s", phc)
	}
	if !Verify("correct horse battery staple", phc) {
		t.Fatal("expected match")
	}
	if Verify("wrong password", phc) {
		t.Fatal("expected mismatch")
	}
}

func TestVerify_Malformed(t *testing.T) {
	for _, phc := range []string{"", "$argon2id$", "$bcrypt$v=19$m=1,t=1,p=1$a$b", "not-a-phc"} {
		if Verify("anything", phc) {
			t.Fatalf("expected reject: %q", phc)
		}
	}
}

func TestHash_EmptyPasswordRejected(t *testing.T) {
	if _, err := Hash(Default, ""); err == nil {
		t.Fatal("expected error")
	}
}
