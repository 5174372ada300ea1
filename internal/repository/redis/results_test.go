package redis

import "testing"

func TestTupleFieldRoundTrip(t *testing.T) {
	roles := [4]int{12, 0, 7, 7}
	got, err := parseTupleField(tupleField(roles))
	if err != nil {
		t.Fatalf("parseTupleField failed: %v", err)
	}
	if got != roles {
		t.Errorf("Expected %v, got %v", roles, got)
	}
	for _, bad := range []string{"", "1,2,3", "1,2,3,x"} {
		if _, err := parseTupleField(bad); err == nil {
			t.Errorf("Expected an error for %q", bad)
		}
	}
}

func TestRunKeys(t *testing.T) {
	keys := runKeys("abc")
	if len(keys) != 5 || keys[0] != "run:abc" || keys[1] != "run:abc:rows" {
		t.Errorf("unexpected keys %v", keys)
	}
}
