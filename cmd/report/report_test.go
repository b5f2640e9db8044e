package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/JaimeStill/certify/internal/progress"
	"github.com/JaimeStill/certify/internal/scores"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		done, total int
		want        string
	}{
		{0, 0, "0.0%"},
		{1, 3, "33.3%"},
		{2, 3, "66.7%"},
		{12, 12, "100.0%"},
	}

	for _, tt := range tests {
		if got := percent(tt.done, tt.total); got != tt.want {
			t.Errorf("percent(%d, %d) = %q, want %q", tt.done, tt.total, got, tt.want)
		}
	}
}

func TestRows(t *testing.T) {
	contest := &progress.Contest{
		ContestID: uuid.New(),
		Categories: []progress.Category{
			{
				CategoryName:        "Talent",
				ScoreStatus:         scores.NewStatus(12, 0),
				TallyCertifications: progress.TallyStatus{Required: 2, Completed: 2},
				AuditorCertified:    true,
			},
			{
				CategoryName:        "Interview",
				ScoreStatus:         scores.NewStatus(12, 6),
				TallyCertifications: progress.TallyStatus{Required: 2, Completed: 1},
			},
			{
				CategoryName: "Evening Gown",
			},
		},
	}

	got := rows(contest)
	want := [][]string{
		{"Talent", "12/12", "100.0%", "2/2", "signed", "CERTIFIED"},
		{"Interview", "6/12", "50.0%", "1/2", "pending", "AWAITING TALLY"},
		{"Evening Gown", "0/0", "0.0%", "0/0", "pending", "NO SCORES"},
	}

	if len(got) != len(want) {
		t.Fatalf("rows = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if strings.Join(got[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("row %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRender(t *testing.T) {
	color.NoColor = true

	contest := &progress.Contest{
		ContestID:           uuid.New(),
		TotalCategories:     1,
		CertifiedCategories: 1,
		ReadyForBoard:       true,
		Categories: []progress.Category{{
			CategoryName:        "Talent",
			ScoreStatus:         scores.NewStatus(4, 0),
			TallyCertifications: progress.TallyStatus{Required: 1, Completed: 1},
			AuditorCertified:    true,
		}},
	}

	var buf bytes.Buffer
	render(&buf, contest)

	out := buf.String()
	for _, want := range []string{"1/1 categories certified", "CATEGORY", "Talent", "CERTIFIED", "ready for board certification"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
