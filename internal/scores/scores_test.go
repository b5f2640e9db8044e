package scores_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JaimeStill/certify/internal/events"
	"github.com/JaimeStill/certify/internal/scores"
	"github.com/JaimeStill/certify/pkg/apperr"
)

func sampleCategory() (*events.Category, uuid.UUID) {
	crit := uuid.New()
	return &events.Category{
		ID:          uuid.New(),
		Criteria:    []events.Criterion{{ID: crit, Name: "Pitch", MaxScore: decimal.NewFromInt(10)}},
		Judges:      []events.Judge{{JudgeID: "judge-1"}},
		Contestants: []events.Contestant{{ContestantID: "c-1"}},
	}, crit
}

func value(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestSubmitCommandCheck(t *testing.T) {
	category, crit := sampleCategory()

	tests := []struct {
		name  string
		cmd   scores.SubmitCommand
		judge string
		field string
	}{
		{"valid", scores.SubmitCommand{ContestantID: "c-1", CriterionID: crit, Value: value("9.5")}, "judge-1", ""},
		{"max inclusive", scores.SubmitCommand{ContestantID: "c-1", CriterionID: crit, Value: value("10")}, "judge-1", ""},
		{"zero inclusive", scores.SubmitCommand{ContestantID: "c-1", CriterionID: crit, Value: value("0")}, "judge-1", ""},
		{"null placeholder", scores.SubmitCommand{ContestantID: "c-1", CriterionID: crit}, "judge-1", ""},
		{"above max", scores.SubmitCommand{ContestantID: "c-1", CriterionID: crit, Value: value("10.01")}, "judge-1", "value"},
		{"negative", scores.SubmitCommand{ContestantID: "c-1", CriterionID: crit, Value: value("-1")}, "judge-1", "value"},
		{"unassigned judge", scores.SubmitCommand{ContestantID: "c-1", CriterionID: crit, Value: value("5")}, "judge-9", "judgeId"},
		{"unknown contestant", scores.SubmitCommand{ContestantID: "c-9", CriterionID: crit, Value: value("5")}, "judge-1", "contestantId"},
		{"unknown criterion", scores.SubmitCommand{ContestantID: "c-1", CriterionID: uuid.New(), Value: value("5")}, "judge-1", "criterionId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Check(category, tt.judge)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Check() error = %v", err)
				}
				return
			}
			if !errors.Is(err, scores.ErrInvalid) {
				t.Fatalf("Check() error = %v, want ErrInvalid", err)
			}
			details, _ := apperr.DetailsOf(err).(map[string]string)
			if _, ok := details[tt.field]; !ok {
				t.Errorf("details = %v, want key %q", details, tt.field)
			}
		})
	}
}

func TestNewStatus(t *testing.T) {
	tests := []struct {
		total, uncertified int
		want               bool
	}{
		{0, 0, true},
		{12, 0, true},
		{12, 3, false},
	}

	for _, tt := range tests {
		s := scores.NewStatus(tt.total, tt.uncertified)
		if s.Completed != tt.want {
			t.Errorf("NewStatus(%d, %d).Completed = %v, want %v", tt.total, tt.uncertified, s.Completed, tt.want)
		}
	}
}

func TestErrorStatuses(t *testing.T) {
	if got := scores.MapHTTPStatus(scores.ErrCertified); got != 409 {
		t.Errorf("ErrCertified status = %d, want 409", got)
	}
	if got := scores.MapHTTPStatus(scores.ErrInvalid.WithDetails(map[string]string{"value": "x"})); got != 422 {
		t.Errorf("ErrInvalid status = %d, want 422", got)
	}
}
