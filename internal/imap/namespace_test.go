package imap

import "testing"

func TestNamespaceHandler(t *testing.T) {
	wire := `(("" "/")) (("Other Users/" "/")) (("Shared/" "/") ("Public Folders/" "/"))` + "\r\n"
	tz := newTestTokenizer(wire)
	eng := newTestEngine()
	cmd := newCommand("A001", "NAMESPACE")

	if err := NamespaceHandler(eng, cmd, tz); err != nil {
		t.Fatalf("NamespaceHandler: %v", err)
	}

	ns, ok := cmd.UserData.(*Namespaces)
	if !ok {
		t.Fatalf("UserData = %T, want *Namespaces", cmd.UserData)
	}
	if len(ns.Personal) != 1 || ns.Personal[0].Prefix != "" || ns.Personal[0].Delimiter != '/' {
		t.Errorf("personal = %+v", ns.Personal)
	}
	// The trailing delimiter is trimmed by canonicalization.
	if len(ns.OtherUsers) != 1 || ns.OtherUsers[0].Prefix != "Other Users" {
		t.Errorf("other users = %+v", ns.OtherUsers)
	}
	if len(ns.Shared) != 2 || ns.Shared[1].Prefix != "Public Folders" {
		t.Errorf("shared = %+v", ns.Shared)
	}

	if _, ok := eng.folders.lookup("Other Users"); !ok {
		t.Error("expected a folder cache entry registered for the OtherUsers prefix")
	}
	if f, ok := eng.folders.lookup("Public Folders"); !ok || f.Delimiter != '/' {
		t.Errorf("expected a registered folder for Public Folders with delimiter '/', got %+v", f)
	}
}

func TestNamespaceHandlerNilGroups(t *testing.T) {
	wire := "NIL NIL NIL\r\n"
	tz := newTestTokenizer(wire)
	eng := newTestEngine()
	cmd := newCommand("A001", "NAMESPACE")

	if err := NamespaceHandler(eng, cmd, tz); err != nil {
		t.Fatalf("NamespaceHandler: %v", err)
	}
	ns := cmd.UserData.(*Namespaces)
	if ns.Personal != nil || ns.OtherUsers != nil || ns.Shared != nil {
		t.Errorf("expected all-nil groups, got %+v", ns)
	}
}
