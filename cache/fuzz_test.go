//go:build go1.18

package cache

import (
	"fmt"
	"testing"
)

// Fuzz basic Add/Commit/FindByID/Delete semantics under arbitrary ids and
// DN suffixes. Guards against panics and checks the invariants that must
// hold regardless of input.
func FuzzCache_AddCommitFind(f *testing.F) {
	f.Add(uint64(0), "")
	f.Add(uint64(1), "a")
	f.Add(uint64(2), "αβγ")
	f.Add(uint64(1<<32), "emoji🙂")

	f.Fuzz(func(t *testing.T, id uint64, dnSuffix string) {
		// Cap the DN length to keep memory bounded during fuzzing.
		const limit = 1 << 10
		if len(dnSuffix) > limit {
			dnSuffix = dnSuffix[:limit]
		}
		ndn := fmt.Sprintf("uid=%s", dnSuffix)

		c := New(Options{MaxSize: 16})
		t.Cleanup(func() { c.ReleaseAll() })

		e := testEntry{id: id, ndn: ndn}

		b, err := c.Add(e, LockRead)
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if err := b.Commit(); err != nil {
			t.Fatalf("Commit: %v", err)
		}
		b.Release()

		// A committed entry must be findable by both indices.
		gotID, err := c.FindByDN([]byte(ndn))
		if err != nil || gotID != id {
			t.Fatalf("FindByDN: id=%d err=%v, want id=%d", gotID, err, id)
		}
		found, err := c.FindByID(id, LockRead)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if found.Entry().ID() != id {
			t.Fatalf("FindByID returned wrong entry: %d, want %d", found.Entry().ID(), id)
		}
		found.Release()

		// A second Add under the same DN or id must be rejected, and must
		// not corrupt either index.
		dup, err := c.Add(testEntry{id: id, ndn: ndn}, LockRead)
		if err == nil {
			dup.Release()
			t.Fatalf("duplicate Add succeeded")
		}
		if err != ErrDuplicate {
			t.Fatalf("duplicate Add: got %v, want ErrDuplicate", err)
		}

		// Delete must remove it from both indices.
		del, err := c.FindByID(id, LockRead)
		if err != nil {
			t.Fatalf("FindByID before delete: %v", err)
		}
		if err := c.Delete(del); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := c.FindByID(id, LockRead); err != ErrNotFound {
			t.Fatalf("FindByID after delete: got %v, want ErrNotFound", err)
		}
		if _, err := c.FindByDN([]byte(ndn)); err != ErrNotFound {
			t.Fatalf("FindByDN after delete: got %v, want ErrNotFound", err)
		}

		// Re-adding under the same key after deletion must succeed.
		if again, err := c.Add(testEntry{id: id, ndn: ndn}, LockRead); err != nil {
			t.Fatalf("Add after delete: %v", err)
		} else {
			again.Release()
		}
	})
}
