package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 5},
		{"default bucket size for negative", -1, 5},
		{"custom bucket size", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSampler_NilSampler(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "track 1 burst") {
		t.Error("ShouldLog on nil sampler should always return true")
	}
	s.Reset() // should not panic
}

func TestProgressSampler_ScopeChangeAlwaysEmits(t *testing.T) {
	s := NewProgressSampler(5)

	if !s.ShouldLog(0, "track 1 burst") {
		t.Error("first scope should log")
	}
	if s.ShouldLog(0, "track 1 burst") {
		t.Error("same scope and percent should not log again")
	}
	if !s.ShouldLog(0, "track 1 paranoia") {
		t.Error("phase change should log")
	}
	if !s.ShouldLog(0, "track 2 paranoia") {
		t.Error("track change should log")
	}
	if s.lastScope != "track 2 paranoia" {
		t.Errorf("lastScope = %q, want track 2 paranoia", s.lastScope)
	}
}

func TestProgressSampler_PercentBuckets(t *testing.T) {
	s := NewProgressSampler(5)

	if !s.ShouldLog(0, "track 3 burst") {
		t.Error("0%% should log")
	}
	if s.ShouldLog(3, "track 3 burst") {
		t.Error("3%% stays in bucket 0, should not log")
	}
	if !s.ShouldLog(5, "track 3 burst") {
		t.Error("5%% crosses into bucket 1, should log")
	}
	if s.ShouldLog(9.9, "track 3 burst") {
		t.Error("9.9%% stays in bucket 1, should not log")
	}
	if !s.ShouldLog(100, "track 3 burst") {
		t.Error("100%% should log")
	}
	if s.ShouldLog(100, "track 3 burst") {
		t.Error("repeated 100%% should not log")
	}
}

func TestProgressSampler_UnknownPercentIgnoresBuckets(t *testing.T) {
	s := NewProgressSampler(5)

	if !s.ShouldLog(-1, "track 1 burst") {
		t.Error("first call with unknown percent should log on scope change")
	}
	if s.ShouldLog(-1, "track 1 burst") {
		t.Error("unknown percent with same scope should not log")
	}
}

func TestProgressSampler_ScopeChangeResetsBuckets(t *testing.T) {
	s := NewProgressSampler(5)

	s.ShouldLog(95, "track 1 burst")
	if !s.ShouldLog(5, "track 2 burst") {
		t.Error("new scope should log even at lower percent")
	}
	if !s.ShouldLog(10, "track 2 burst") {
		t.Error("bucket tracking should restart for new scope")
	}
}

func TestProgressSampler_Reset(t *testing.T) {
	s := NewProgressSampler(5)

	s.ShouldLog(50, "track 1 burst")
	s.Reset()
	if !s.ShouldLog(50, "track 1 burst") {
		t.Error("reset sampler should log again for the same scope and percent")
	}
}
