package credential

import "testing"

func TestResolvePasswordPrefersExplicit(t *testing.T) {
	got, err := ResolvePassword("s3cret")
	if err != nil {
		t.Fatalf("ResolvePassword: %v", err)
	}

	if got != "s3cret" {
		t.Fatalf("unexpected password %q", got)
	}
}

func TestFileDirIsScopedToService(t *testing.T) {
	t.Setenv("HOME", "/tmp/home")

	if got := fileDir(); got != "/tmp/home/.config/unreadwatch/credentials" {
		t.Fatalf("unexpected dir %s", got)
	}
}
