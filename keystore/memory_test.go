package keystore

import (
	"bytes"
	"errors"
	"testing"
)

// Both implementations must satisfy the interface.
var (
	_ KeyStore = (*MemoryKeyStore)(nil)
	_ KeyStore = (*FileKeyStore)(nil)
)

func testKey(fill byte) []byte {
	key := make([]byte, IdentityKeySize)
	for i := range key {
		key[i] = fill
	}
	return key
}

func TestMemoryKeyStore_IdentityLifecycle(t *testing.T) {
	store := NewMemoryKeyStore()
	key := testKey(0x42)

	if err := store.StoreIdentity("alice", key); err != nil {
		t.Fatalf("StoreIdentity failed: %v", err)
	}

	ok, err := store.HasIdentity("alice")
	if err != nil {
		t.Fatalf("HasIdentity failed: %v", err)
	}
	if !ok {
		t.Error("Stored identity not reported present")
	}

	loaded, err := store.LoadIdentity("alice")
	if err != nil {
		t.Fatalf("LoadIdentity failed: %v", err)
	}
	if !bytes.Equal(loaded, key) {
		t.Error("Loaded key doesn't match stored key")
	}

	ids, err := store.ListIdentities()
	if err != nil {
		t.Fatalf("ListIdentities failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "alice" {
		t.Errorf("ListIdentities = %v, want [alice]", ids)
	}

	if err := store.DeleteIdentity("alice"); err != nil {
		t.Fatalf("DeleteIdentity failed: %v", err)
	}
	ok, _ = store.HasIdentity("alice")
	if ok {
		t.Error("Deleted identity still reported present")
	}
	if _, err := store.LoadIdentity("alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadIdentity after delete = %v, want ErrNotFound", err)
	}
}

func TestMemoryKeyStore_KeySizeEnforced(t *testing.T) {
	store := NewMemoryKeyStore()

	for _, size := range []int{0, 1, 16, 31, 33, 64} {
		err := store.StoreIdentity("bad", make([]byte, size))
		if !errors.Is(err, ErrInvalidKeySize) {
			t.Errorf("StoreIdentity with %d-byte key = %v, want ErrInvalidKeySize", size, err)
		}
	}
}

func TestMemoryKeyStore_InvalidIDs(t *testing.T) {
	store := NewMemoryKeyStore()
	key := testKey(1)

	for _, id := range []string{"", "a/b", `a\b`, "..", "a..b", ".hidden"} {
		if err := store.StoreIdentity(id, key); !errors.Is(err, ErrInvalidID) {
			t.Errorf("StoreIdentity(%q) = %v, want ErrInvalidID", id, err)
		}
		if _, err := store.LoadIdentity(id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("LoadIdentity(%q) = %v, want ErrInvalidID", id, err)
		}
	}
}

func TestMemoryKeyStore_OverwriteReplacesKey(t *testing.T) {
	store := NewMemoryKeyStore()

	if err := store.StoreIdentity("alice", testKey(1)); err != nil {
		t.Fatal(err)
	}
	if err := store.StoreIdentity("alice", testKey(2)); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.LoadIdentity("alice")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(loaded, testKey(2)) {
		t.Error("Overwrite did not replace the stored key")
	}

	ids, _ := store.ListIdentities()
	if len(ids) != 1 {
		t.Errorf("Expected 1 identity after overwrite, got %d", len(ids))
	}
}

func TestMemoryKeyStore_LoadReturnsCopy(t *testing.T) {
	store := NewMemoryKeyStore()
	if err := store.StoreIdentity("alice", testKey(7)); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.LoadIdentity("alice")
	if err != nil {
		t.Fatal(err)
	}
	loaded[0] = 0xFF

	again, err := store.LoadIdentity("alice")
	if err != nil {
		t.Fatal(err)
	}
	if again[0] != 7 {
		t.Error("Mutating a loaded key changed the stored copy")
	}
}

func TestMemoryKeyStore_StoreCopiesInput(t *testing.T) {
	store := NewMemoryKeyStore()
	key := testKey(9)
	if err := store.StoreIdentity("alice", key); err != nil {
		t.Fatal(err)
	}

	// Wiping the caller's buffer must not affect the stored key.
	for i := range key {
		key[i] = 0
	}

	loaded, err := store.LoadIdentity("alice")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(loaded, testKey(9)) {
		t.Error("Store retained the caller's buffer instead of copying")
	}
}

func TestMemoryKeyStore_Sessions(t *testing.T) {
	store := NewMemoryKeyStore()
	blob := []byte{1, 2, 3, 4, 5}

	if err := store.StoreSession("conn-1", blob); err != nil {
		t.Fatalf("StoreSession failed: %v", err)
	}

	loaded, err := store.LoadSession("conn-1")
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if !bytes.Equal(loaded, blob) {
		t.Error("Loaded session doesn't match stored blob")
	}

	if err := store.DeleteSession("conn-1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := store.LoadSession("conn-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadSession after delete = %v, want ErrNotFound", err)
	}

	// Deleting again is a no-op.
	if err := store.DeleteSession("conn-1"); err != nil {
		t.Errorf("Second DeleteSession = %v, want nil", err)
	}
}

func TestMemoryKeyStore_SessionsIndependentOfIdentities(t *testing.T) {
	store := NewMemoryKeyStore()

	if err := store.StoreIdentity("shared", testKey(3)); err != nil {
		t.Fatal(err)
	}
	if err := store.StoreSession("shared", []byte("state")); err != nil {
		t.Fatal(err)
	}

	if err := store.DeleteSession("shared"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.LoadIdentity("shared"); err != nil {
		t.Errorf("Identity removed by session delete: %v", err)
	}
}

func TestMemoryKeyStore_Clear(t *testing.T) {
	store := NewMemoryKeyStore()
	if err := store.StoreIdentity("alice", testKey(1)); err != nil {
		t.Fatal(err)
	}
	if err := store.StoreSession("conn-1", []byte("state")); err != nil {
		t.Fatal(err)
	}

	store.Clear()

	ids, _ := store.ListIdentities()
	if len(ids) != 0 {
		t.Errorf("Expected no identities after Clear, got %v", ids)
	}
	if _, err := store.LoadSession("conn-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadSession after Clear = %v, want ErrNotFound", err)
	}
}

func TestMemoryKeyStore_ListSorted(t *testing.T) {
	store := NewMemoryKeyStore()
	for _, id := range []string{"charlie", "alice", "bob"} {
		if err := store.StoreIdentity(id, testKey(1)); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := store.ListIdentities()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"alice", "bob", "charlie"}
	if len(ids) != len(want) {
		t.Fatalf("ListIdentities = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ListIdentities[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestMemoryKeyStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryKeyStore()
	done := make(chan struct{})

	for i := 0; i < 8; i++ {
		go func(n byte) {
			defer func() { done <- struct{}{} }()
			id := string(rune('a' + n))
			for j := 0; j < 50; j++ {
				if err := store.StoreIdentity(id, testKey(n)); err != nil {
					t.Errorf("StoreIdentity: %v", err)
					return
				}
				if _, err := store.LoadIdentity(id); err != nil {
					t.Errorf("LoadIdentity: %v", err)
					return
				}
				if _, err := store.ListIdentities(); err != nil {
					t.Errorf("ListIdentities: %v", err)
					return
				}
			}
		}(byte(i))
	}

	for i := 0; i < 8; i++ {
		<-done
	}
}
