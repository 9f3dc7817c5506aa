package store

import (
	"sync"
	"testing"

	"eventfair/backend/internal/session/domain"
)

func TestCreateGetDelete(t *testing.T) {
	s := NewMemoryStore()

	sid, err := s.Create(domain.Token{AccessToken: "t1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(sid) != 64 {
		t.Errorf("sid length = %d, want 64 hex chars", len(sid))
	}

	ent := s.Get(sid)
	if ent == nil {
		t.Fatal("Get returned nil for known sid")
	}
	if ent.Token.AccessToken != "t1" {
		t.Errorf("token = %q, want t1", ent.Token.AccessToken)
	}

	s.Delete(sid)
	if s.Get(sid) != nil {
		t.Error("Get should return nil after Delete")
	}
	s.Delete(sid) // no-op
}

func TestGet_UnknownSID(t *testing.T) {
	if NewMemoryStore().Get("nope") != nil {
		t.Error("Get of unknown sid should return nil")
	}
}

func TestCreate_UniqueSIDs(t *testing.T) {
	s := NewMemoryStore()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		sid, err := s.Create(domain.Token{})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if seen[sid] {
			t.Fatalf("duplicate sid %s", sid)
		}
		seen[sid] = true
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sid, err := s.Create(domain.Token{AccessToken: "t"})
			if err != nil {
				t.Error(err)
				return
			}
			if s.Get(sid) == nil {
				t.Error("entry missing after create")
			}
			s.Delete(sid)
		}()
	}
	wg.Wait()
}
