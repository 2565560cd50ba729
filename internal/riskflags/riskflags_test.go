package riskflags

import "testing"

func TestIsDisposableDomain(t *testing.T) {
	if !IsDisposableDomain("Mailinator.com") {
		t.Error("expected mailinator.com to be disposable")
	}
	if IsDisposableDomain("gmail.com") {
		t.Error("did not expect gmail.com to be disposable")
	}
}

func TestIsRoleAccount(t *testing.T) {
	if !IsRoleAccount("Admin") {
		t.Error("expected admin to be a role account")
	}
	if IsRoleAccount("alice") {
		t.Error("did not expect alice to be a role account")
	}
}
