package util

import "testing"

func TestSanitizeFileName(t *testing.T) {
	if _, err := SanitizeFileName("../etc/passwd"); err == nil {
		t.Fatalf("expected error for traversal name")
	}
	if _, err := SanitizeFileName("   "); err == nil {
		t.Fatalf("expected error for blank name")
	}
	got, err := SanitizeFileName("dir/ktp scan.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "dir_ktp scan.jpg" {
		t.Fatalf("got %q", got)
	}
}

func TestHashUserKeyStable(t *testing.T) {
	a := HashUserKey("user-1")
	b := HashUserKey("user-1")
	if a != b {
		t.Fatalf("hash not stable: %q vs %q", a, b)
	}
	if a == HashUserKey("user-2") {
		t.Fatalf("distinct users should hash differently")
	}
}
