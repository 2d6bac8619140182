package imap

import "testing"

func TestFolderCacheGetCreatesOnFirstReference(t *testing.T) {
	fc := newFolderCache()
	f := fc.get("INBOX")
	if f.Name != "INBOX" {
		t.Fatalf("name = %q", f.Name)
	}
	f.Exists = 10

	again := fc.get("INBOX")
	if again != f {
		t.Fatal("get should return the same Folder on repeat reference")
	}
	if again.Exists != 10 {
		t.Fatalf("Exists = %d, want 10", again.Exists)
	}
}

func TestFolderCacheINBOXCanonicalisation(t *testing.T) {
	fc := newFolderCache()
	fc.setDelimiter('/')
	f := fc.get("inbox")
	other, ok := fc.lookup("INBOX")
	if !ok || other != f {
		t.Fatal("INBOX lookup should canonicalise case regardless of original reference casing")
	}
}

func TestFolderCacheRename(t *testing.T) {
	fc := newFolderCache()
	f := fc.get("Drafts")
	f.UIDValidity = 99

	fc.rename("Drafts", "Archive/Drafts")
	if _, ok := fc.lookup("Drafts"); ok {
		t.Fatal("old name should no longer resolve")
	}
	moved, ok := fc.lookup("Archive/Drafts")
	if !ok || moved.UIDValidity != 99 {
		t.Fatalf("renamed folder missing or state lost: %+v", moved)
	}
}

func TestFolderCacheRemove(t *testing.T) {
	fc := newFolderCache()
	fc.get("Trash")
	fc.remove("Trash")
	if _, ok := fc.lookup("Trash"); ok {
		t.Fatal("removed folder should not resolve")
	}
}

func TestFolderCacheSetDelimiterRekeysExisting(t *testing.T) {
	fc := newFolderCache()
	f := fc.get("INBOX.Sent") // referenced before delimiter is known ('.' not yet set)
	fc.setDelimiter('.')
	again, ok := fc.lookup("INBOX.Sent")
	if !ok || again != f {
		t.Fatal("folder referenced before delimiter was known should still resolve after setDelimiter")
	}
	if f.Delimiter != '.' {
		t.Fatalf("Delimiter = %q, want '.'", f.Delimiter)
	}
}
