package accounts

import "testing"

func TestAdminList(t *testing.T) {
	list := NewAdminList([]string{" Boss@Example.COM ", "", "second@example.com"})

	if !list.IsElevated("boss@example.com") {
		t.Error("lowercased lookup should match")
	}
	if !list.IsElevated("BOSS@EXAMPLE.COM") {
		t.Error("lookup should be case-insensitive")
	}
	if !list.IsElevated(" second@example.com ") {
		t.Error("lookup should trim whitespace")
	}
	if list.IsElevated("nobody@example.com") {
		t.Error("unknown email must not be elevated")
	}
	if list.IsElevated("") {
		t.Error("empty email must not be elevated")
	}

	var nilList *AdminList
	if nilList.IsElevated("boss@example.com") {
		t.Error("nil list must not elevate anyone")
	}
}
