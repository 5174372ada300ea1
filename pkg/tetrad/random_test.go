package tetrad

import (
	"math"
	"testing"
)

func TestStreamReproducible(t *testing.T) {
	a, b := NewStream(99), NewStream(99)
	for i := 0; i < 100; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("Draw %d differs between equally seeded streams", i)
		}
	}
	if seed, ok := a.Seed(); !ok || seed != 99 {
		t.Errorf("Expected seed 99 (seeded), got %d (%v)", seed, ok)
	}
	if _, ok := NewUnseededStream().Seed(); ok {
		t.Error("Expected unseeded stream to report no caller seed")
	}
}

func TestRandomChoiceDegenerate(t *testing.T) {
	s := NewStream(1)
	for i := 0; i < 100; i++ {
		if a := s.RandomChoice(1, 0, 0); a != W {
			t.Fatalf("Expected W, got %s", a)
		}
		if a := s.RandomChoice(0, 1, 0); a != X {
			t.Fatalf("Expected X, got %s", a)
		}
		if a := s.RandomChoice(0, 0, 1); a != Y {
			t.Fatalf("Expected Y, got %s", a)
		}
		if a := s.RandomChoice(0, 0, 0); a != Z {
			t.Fatalf("Expected Z, got %s", a)
		}
	}
}

func TestRandomChoiceFrequencies(t *testing.T) {
	const trials = 40000
	probs := [NumActions]float64{0.1, 0.2, 0.3, 0.4}
	s := NewStream(5)
	var counts [NumActions]int
	for i := 0; i < trials; i++ {
		counts[s.RandomChoice(probs[0], probs[1], probs[2])]++
	}
	for a, p := range probs {
		got := float64(counts[a]) / trials
		if math.Abs(got-p) > 0.015 {
			t.Errorf("Action %s: expected frequency %.2f, got %.4f", Action(a), p, got)
		}
	}
}

func TestRandomFlipThreshold(t *testing.T) {
	s := NewStream(11)
	for i := 0; i < 100; i++ {
		if s.RandomFlip(X, 0) != X {
			t.Fatal("Expected no flip at threshold 0")
		}
		if s.RandomFlip(X, 1) == X {
			t.Fatal("Expected a flip at threshold 1")
		}
	}

	// threshold 0 must not consume a draw
	a, b := NewStream(4), NewStream(4)
	a.RandomFlip(W, 0)
	if a.Float64() != b.Float64() {
		t.Error("RandomFlip with threshold 0 consumed a draw")
	}
}

func TestRandomVector(t *testing.T) {
	v := NewStream(2).RandomVector(6)
	var sum float64
	for _, x := range v {
		if x < 0 {
			t.Errorf("Negative component %v", x)
		}
		sum += x
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("Expected components to sum to 1, got %v", sum)
	}
}

func TestRange(t *testing.T) {
	s := NewStream(8)
	for i := 0; i < 1000; i++ {
		if n := s.Range(3, 7); n < 3 || n >= 7 {
			t.Fatalf("Range(3, 7) returned %d", n)
		}
	}
}

func TestPdf(t *testing.T) {
	if NewPdf([]Action{W, X}, []int{0, 0}, NewStream(1)) != nil {
		t.Error("Expected nil pdf for all-zero counts")
	}
	if NewPdf([]Action{W, X}, []int{1}, NewStream(1)) != nil {
		t.Error("Expected nil pdf for mismatched lengths")
	}

	pdf := NewPdf([]Action{W, X, Y}, []int{1, 0, 3}, NewStream(1))
	var counts [NumActions]int
	for i := 0; i < 8000; i++ {
		counts[pdf.Sample()]++
	}
	if counts[X] != 0 {
		t.Errorf("Sampled a zero-count outcome %d times", counts[X])
	}
	if ratio := float64(counts[Y]) / float64(counts[W]); ratio < 2.6 || ratio > 3.4 {
		t.Errorf("Expected Y:W about 3, got %.2f (%v)", ratio, counts)
	}
}

func TestBulkSeederIndependentOfBatchSize(t *testing.T) {
	const n = 2500
	ref := NewBulkSeeder(1234, DefaultSeedBatch)
	want := make([]uint64, n)
	for i := range want {
		want[i] = ref.Next()
		if want[i] >= math.MaxUint32 {
			t.Fatalf("Seed %d out of range: %d", i, want[i])
		}
	}

	for _, batch := range []int{1, 7, 64, 5000} {
		s := NewBulkSeeder(1234, batch)
		for i := range want {
			if got := s.Next(); got != want[i] {
				t.Fatalf("Batch %d: seed %d expected %d, got %d", batch, i, want[i], got)
			}
		}
	}
}

func TestBulkSeederDiffersBySeed(t *testing.T) {
	a, b := NewBulkSeeder(1, 10), NewBulkSeeder(2, 10)
	same := 0
	for i := 0; i < 20; i++ {
		if a.Next() == b.Next() {
			same++
		}
	}
	if same == 20 {
		t.Error("Expected different seed sequences for different tournament seeds")
	}
}
