package cmd

import (
	"errors"
	"strings"
	"testing"

	"imgsweep/internal/dedupe"
	"imgsweep/internal/processor"
)

func TestFormatReport(t *testing.T) {
	cases := []struct {
		report processor.Report
		want   []string
	}{
		{processor.Report{Path: "/in/a.jpg", Outcome: dedupe.Unique}, []string{"a.jpg", "keep"}},
		{processor.Report{Path: "/in/b.jpg", Outcome: dedupe.ExactDuplicate, Match: "/in/a.jpg"}, []string{"b.jpg", "remove", "identical to a.jpg"}},
		{processor.Report{Path: "/in/c.png", Outcome: dedupe.NearDuplicateLoser, Match: "/in/a.jpg", Similarity: 0.987}, []string{"remove", "SSIM=0.99"}},
		{processor.Report{Path: "/in/d.png", Outcome: dedupe.NearDuplicateWinner, Match: "/in/c.png", Similarity: 0.96}, []string{"keep", "replaces c.png"}},
		{processor.Report{Path: "/in/e.jpg", Outcome: dedupe.Skipped, Err: errors.New("open: bad")}, []string{"unreadable", "open: bad"}},
	}
	for _, tc := range cases {
		got := formatReport(tc.report)
		for _, want := range tc.want {
			if !strings.Contains(got, want) {
				t.Fatalf("formatReport(%s) = %q, missing %q", tc.report.Path, got, want)
			}
		}
	}
}
