package domain

import "testing"

func TestJobStatusTerminal(t *testing.T) {
	terminal := []JobStatus{JobStatusCompleted, JobStatusCompletedWithErrors, JobStatusFailed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%q should be terminal", s)
		}
	}
	for _, s := range []JobStatus{JobStatusPending, JobStatusProcessing, JobStatus("bogus")} {
		if s.Terminal() {
			t.Errorf("%q should not be terminal", s)
		}
	}
}

func TestBatchJobPercentage(t *testing.T) {
	cases := []struct {
		name      string
		total     int
		completed int
		failed    int
		want      float64
	}{
		{"empty job", 0, 0, 0, 0},
		{"untouched", 4, 0, 0, 0},
		{"halfway mixed", 4, 1, 1, 50},
		{"all done", 4, 3, 1, 100},
		{"thirds", 3, 1, 0, 100.0 / 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job := BatchJob{TotalPosts: tc.total, CompletedPosts: tc.completed, FailedPosts: tc.failed}
			if got := job.Percentage(); got != tc.want {
				t.Fatalf("Percentage() = %v, want %v", got, tc.want)
			}
		})
	}
}
