package directory

import (
	"errors"
	"testing"
)

// TestMemoryStore tests the in-memory store implementation
func TestMemoryStore(t *testing.T) {
	t.Run("new store is empty", func(t *testing.T) {
		store := NewMemoryStore()

		if store.Len() != 0 {
			t.Errorf("Expected empty store, got %d users", store.Len())
		}

		// FindFirst should return ErrNotFound
		_, err := store.FindFirst(ByID(1))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("insert assigns ids", func(t *testing.T) {
		store := NewMemoryStore()

		u := User{FirstName: "Ann", LastName: "Lee", Age: 30}
		id, err := store.Insert(&u)
		if err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
		if id == 0 {
			t.Error("Expected a non-zero assigned id")
		}
		if u.ID != id {
			t.Errorf("Expected record id rewritten to %d, got %d", id, u.ID)
		}

		// A second insert gets a different id
		u2 := User{FirstName: "Bob", LastName: "Ray", Age: 41}
		id2, err := store.Insert(&u2)
		if err != nil {
			t.Fatalf("Failed to insert second record: %v", err)
		}
		if id2 == id {
			t.Errorf("Expected unique ids, got %d twice", id)
		}
	})

	t.Run("insert overwrites caller-supplied id", func(t *testing.T) {
		store := NewMemoryStore()

		u := User{ID: 999, FirstName: "Ann", LastName: "Lee", Age: 30}
		id, err := store.Insert(&u)
		if err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
		if id == 999 {
			t.Error("Store must assign the authoritative id, not trust the caller's")
		}
	})

	t.Run("insert then find returns equal record", func(t *testing.T) {
		store := NewMemoryStore()

		u := User{FirstName: "Ann", LastName: "Lee", Age: 30}
		id, _ := store.Insert(&u)

		got, err := store.FindFirst(ByID(id))
		if err != nil {
			t.Fatalf("Failed to find inserted record: %v", err)
		}
		if got != u {
			t.Errorf("Expected %+v, got %+v", u, got)
		}
		if !got.Equal(u) {
			t.Error("Expected id-based equality to hold")
		}
	})

	t.Run("put preserves existing id", func(t *testing.T) {
		store := NewMemoryStore()

		u := User{ID: 42, FirstName: "Ann", LastName: "Lee", Age: 30}
		if err := store.Put(u); err != nil {
			t.Fatalf("Failed to put: %v", err)
		}

		got, err := store.FindFirst(ByID(42))
		if err != nil {
			t.Fatalf("Failed to find record: %v", err)
		}
		if got.ID != 42 {
			t.Errorf("Expected id 42 preserved, got %d", got.ID)
		}
	})

	t.Run("put rejects duplicate id", func(t *testing.T) {
		store := NewMemoryStore()

		u := User{ID: 42, FirstName: "Ann", LastName: "Lee", Age: 30}
		if err := store.Put(u); err != nil {
			t.Fatalf("Failed to put: %v", err)
		}
		err := store.Put(User{ID: 42, FirstName: "Bob", LastName: "Ray", Age: 41})
		if !errors.Is(err, ErrDuplicateID) {
			t.Errorf("Expected ErrDuplicateID, got %v", err)
		}
		if store.Len() != 1 {
			t.Errorf("Expected store unchanged after rejected put, got %d users", store.Len())
		}
	})

	t.Run("remove deletes the record", func(t *testing.T) {
		store := NewMemoryStore()

		u := User{FirstName: "Ann", LastName: "Lee", Age: 30}
		id, _ := store.Insert(&u)

		if err := store.Remove(id); err != nil {
			t.Fatalf("Failed to remove: %v", err)
		}
		if store.Len() != 0 {
			t.Errorf("Expected empty store after remove, got %d users", store.Len())
		}
	})

	t.Run("remove of absent id returns ErrNotFound", func(t *testing.T) {
		store := NewMemoryStore()

		err := store.Remove(999)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		if store.Len() != 0 {
			t.Errorf("Expected store unchanged, got %d users", store.Len())
		}
	})

	t.Run("removal is not idempotent", func(t *testing.T) {
		store := NewMemoryStore()

		u := User{FirstName: "Ann", LastName: "Lee", Age: 30}
		id, _ := store.Insert(&u)

		if err := store.Remove(id); err != nil {
			t.Fatalf("First remove failed: %v", err)
		}
		if err := store.Remove(id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second remove, got %v", err)
		}
	})

	t.Run("find returns matches ordered by id", func(t *testing.T) {
		store := NewMemoryStore()

		for _, u := range []User{
			{FirstName: "Ann", LastName: "Lee", Age: 30},
			{FirstName: "Bob", LastName: "Ray", Age: 41},
			{FirstName: "Cat", LastName: "Lee", Age: 30},
		} {
			u := u
			if _, err := store.Insert(&u); err != nil {
				t.Fatalf("Failed to insert: %v", err)
			}
		}

		matches := store.Find(ByAge(30))
		if len(matches) != 2 {
			t.Fatalf("Expected 2 matches, got %d", len(matches))
		}
		if matches[0].ID >= matches[1].ID {
			t.Errorf("Expected results ordered by id, got %d before %d", matches[0].ID, matches[1].ID)
		}

		byName := store.Find(ByLastName("Ray"))
		if len(byName) != 1 || byName[0].FirstName != "Bob" {
			t.Errorf("Expected to find Bob Ray, got %+v", byName)
		}
	})

	t.Run("all returns every record", func(t *testing.T) {
		store := NewMemoryStore()

		for i := 0; i < 3; i++ {
			u := User{FirstName: "U", LastName: "Ser", Age: 20 + i}
			if _, err := store.Insert(&u); err != nil {
				t.Fatalf("Failed to insert: %v", err)
			}
		}

		all := store.All()
		if len(all) != 3 {
			t.Errorf("Expected 3 records, got %d", len(all))
		}
	})
}

// TestSequenceGenerator verifies monotonic id assignment
func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator()

	prev := int64(0)
	for i := 0; i < 100; i++ {
		id := gen.Generate()
		if id <= prev {
			t.Fatalf("Expected monotonic ids, got %d after %d", id, prev)
		}
		prev = id
	}
}
