package param

import (
	"errors"
	"sync"
	"testing"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s := NewStore()
	if err := s.Register("a", []float64{10}); err != nil {
		t.Fatalf("Failed to register a: %v", err)
	}
	if err := s.Register("b", []float64{2}); err != nil {
		t.Fatalf("Failed to register b: %v", err)
	}
	if err := s.Register("c", []float64{3}); err != nil {
		t.Fatalf("Failed to register c: %v", err)
	}
	return s
}

func TestRegisterDuplicate(t *testing.T) {
	s := setupTestStore(t)

	if err := s.Register("a", []float64{1}); err == nil {
		t.Fatal("Expected error for duplicate registration")
	}
}

func TestRegisterEmptyName(t *testing.T) {
	s := NewStore()

	if err := s.Register("", []float64{1}); err == nil {
		t.Fatal("Expected error for empty name")
	}
}

func TestReadWriteRoundtrip(t *testing.T) {
	s := setupTestStore(t)

	values, err := s.Read([]string{"a", "b"})
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if values[0][0] != 10 || values[1][0] != 2 {
		t.Errorf("Expected [10] [2], got %v %v", values[0], values[1])
	}

	if err := s.Write([]string{"a", "b"}, [][]float64{{100}, {20}}); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	values, err = s.Read([]string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Failed to read after write: %v", err)
	}
	if values[0][0] != 100 || values[1][0] != 20 || values[2][0] != 3 {
		t.Errorf("Expected [100] [20] [3], got %v %v %v", values[0], values[1], values[2])
	}
}

func TestReadUnknownName(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Read([]string{"a", "missing"})
	if err == nil {
		t.Fatal("Expected error for unknown name")
	}
	if !errors.Is(err, &UnknownParamError{}) {
		t.Errorf("Expected UnknownParamError, got %v", err)
	}
}

func TestWriteLengthMismatch(t *testing.T) {
	s := setupTestStore(t)

	// One value for two names
	if err := s.Write([]string{"a", "b"}, [][]float64{{1}}); err == nil {
		t.Fatal("Expected error for name/value count mismatch")
	}

	// Wrong vector length
	if err := s.Write([]string{"a"}, [][]float64{{1, 2}}); err == nil {
		t.Fatal("Expected error for vector length change")
	}
}

func TestFailedWriteChangesNothing(t *testing.T) {
	s := setupTestStore(t)

	// Second name is unknown, so the whole write must be rejected
	err := s.Write([]string{"a", "missing"}, [][]float64{{100}, {1}})
	if err == nil {
		t.Fatal("Expected error for unknown name")
	}

	v, _ := s.Get("a")
	if v[0] != 10 {
		t.Errorf("Expected a untouched at 10, got %f", v[0])
	}
}

func TestReadReturnsCopies(t *testing.T) {
	s := setupTestStore(t)

	values, err := s.Read([]string{"a"})
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}

	// Mutating the returned slice must not affect the store
	values[0][0] = 999

	v, _ := s.Get("a")
	if v[0] != 10 {
		t.Errorf("Store value changed through returned slice: got %f", v[0])
	}
}

func TestRegisterCopiesInit(t *testing.T) {
	s := NewStore()
	init := []float64{1, 2, 3}

	if err := s.Register("x", init); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	init[0] = 999

	v, _ := s.Get("x")
	if v[0] != 1 {
		t.Errorf("Store value changed through init slice: got %f", v[0])
	}
}

func TestNamesSorted(t *testing.T) {
	s := NewStore()
	s.Register("zeta", []float64{1})
	s.Register("alpha", []float64{1})
	s.Register("mid", []float64{1})

	names := s.Names()
	if len(names) != 3 {
		t.Fatalf("Expected 3 names, got %d", len(names))
	}
	if names[0] != "alpha" || names[1] != "mid" || names[2] != "zeta" {
		t.Errorf("Names not sorted: %v", names)
	}
}

func TestConcurrentReadWrite(t *testing.T) {
	s := setupTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			if err := s.Write([]string{"a"}, [][]float64{{float64(n)}}); err != nil {
				t.Errorf("Concurrent write failed: %v", err)
			}
		}(i)
		go func() {
			defer wg.Done()
			if _, err := s.Read([]string{"a", "b", "c"}); err != nil {
				t.Errorf("Concurrent read failed: %v", err)
			}
		}()
	}
	wg.Wait()
}
