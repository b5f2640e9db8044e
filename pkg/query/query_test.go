package query_test

import (
	"testing"

	"github.com/JaimeStill/certify/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "scores", "s").
		Project("id", "ID").
		Project("judge_id", "JudgeID").
		Project("certified", "Certified").
		Project("notes", "Notes").
		Join("public", "categories", "c", "JOIN", "c.id = s.category_id").
		Project("name", "CategoryName").
		Alias("c", "contest_id", "ContestID")
}

func ptr[T any](v T) *T { return &v }

func TestProjectionFrom(t *testing.T) {
	got := testProjection().From()
	want := "public.scores s JOIN public.categories c ON c.id = s.category_id"
	if got != want {
		t.Errorf("From() = %q, want %q", got, want)
	}
}

func TestProjectionColumns(t *testing.T) {
	got := testProjection().Columns()
	want := "s.id, s.judge_id, s.certified, s.notes, c.name"
	if got != want {
		t.Errorf("Columns() = %q, want %q", got, want)
	}
}

func TestProjectionColumnLookup(t *testing.T) {
	p := testProjection()

	tests := []struct {
		view   string
		want   string
		wantOK bool
	}{
		{"ID", "s.id", true},
		{"CategoryName", "c.name", true},
		{"ContestID", "c.contest_id", true},
		{"unknown", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.view, func(t *testing.T) {
			got, ok := p.Column(tt.view)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Column(%q) = (%q, %v), want (%q, %v)", tt.view, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		input string
		want  []query.SortField
	}{
		{"", nil},
		{"Notes", []query.SortField{{Field: "Notes"}}},
		{"Notes,-ID", []query.SortField{{Field: "Notes"}, {Field: "ID", Descending: true}}},
		{" , -ID ,", []query.SortField{{Field: "ID", Descending: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuilderConditionsNumbering(t *testing.T) {
	sql, args := query.NewBuilder(testProjection()).
		WhereEquals("JudgeID", ptr("j1")).
		WhereEquals("Certified", (*bool)(nil)).
		WhereIn("ID", []any{"a", "b"}).
		WhereEquals("ContestID", "k1").
		Build()

	want := "SELECT s.id, s.judge_id, s.certified, s.notes, c.name " +
		"FROM public.scores s JOIN public.categories c ON c.id = s.category_id " +
		"WHERE s.judge_id = $1 AND s.id IN ($2, $3) AND c.contest_id = $4"
	if sql != want {
		t.Errorf("sql =\n%q\nwant\n%q", sql, want)
	}
	if len(args) != 4 {
		t.Fatalf("args len = %d, want 4", len(args))
	}
}

func TestBuilderIgnoresUnknownFields(t *testing.T) {
	sql, args := query.NewBuilder(testProjection()).
		WhereEquals("id; DROP TABLE scores", "x").
		OrderByFields([]query.SortField{{Field: "1; DROP TABLE scores"}}).
		Build()

	want := "SELECT s.id, s.judge_id, s.certified, s.notes, c.name " +
		"FROM public.scores s JOIN public.categories c ON c.id = s.category_id"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
}

func TestBuilderSearchAndNull(t *testing.T) {
	sql, args := query.NewBuilder(testProjection()).
		WhereSearch(ptr("fix"), "Notes", "CategoryName").
		WhereNull("Notes", ptr(false)).
		Build()

	want := "SELECT s.id, s.judge_id, s.certified, s.notes, c.name " +
		"FROM public.scores s JOIN public.categories c ON c.id = s.category_id " +
		"WHERE (s.notes ILIKE $1 OR c.name ILIKE $2) AND s.notes IS NOT NULL"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 2 || args[0] != "%fix%" {
		t.Errorf("args = %v", args)
	}
}

func TestBuilderPageAndSort(t *testing.T) {
	defaultSort := query.SortField{Field: "ID", Descending: true}

	t.Run("default sort", func(t *testing.T) {
		sql, _ := query.NewBuilder(testProjection(), defaultSort).BuildPage(3, 10)
		want := "SELECT s.id, s.judge_id, s.certified, s.notes, c.name " +
			"FROM public.scores s JOIN public.categories c ON c.id = s.category_id " +
			"ORDER BY s.id DESC LIMIT 10 OFFSET 20"
		if sql != want {
			t.Errorf("sql = %q, want %q", sql, want)
		}
	})

	t.Run("override sort", func(t *testing.T) {
		sql, _ := query.NewBuilder(testProjection(), defaultSort).
			OrderByFields(query.ParseSortFields("CategoryName,-Notes")).
			Build()
		want := "SELECT s.id, s.judge_id, s.certified, s.notes, c.name " +
			"FROM public.scores s JOIN public.categories c ON c.id = s.category_id " +
			"ORDER BY c.name ASC, s.notes DESC"
		if sql != want {
			t.Errorf("sql = %q, want %q", sql, want)
		}
	})
}

func TestBuilderCountAndSingle(t *testing.T) {
	count, args := query.NewBuilder(testProjection()).WhereEquals("JudgeID", "j1").BuildCount()
	if count != "SELECT COUNT(*) FROM public.scores s JOIN public.categories c ON c.id = s.category_id WHERE s.judge_id = $1" {
		t.Errorf("count = %q", count)
	}
	if len(args) != 1 {
		t.Errorf("args = %v", args)
	}

	single, _ := query.NewBuilder(testProjection()).BuildSingle("ID", "x")
	if single != "SELECT s.id, s.judge_id, s.certified, s.notes, c.name "+
		"FROM public.scores s JOIN public.categories c ON c.id = s.category_id WHERE s.id = $1" {
		t.Errorf("single = %q", single)
	}

	forUpdate, _ := query.NewBuilder(testProjection()).WhereEquals("ID", "x").BuildForUpdate()
	if forUpdate != single+" FOR UPDATE OF s" {
		t.Errorf("forUpdate = %q", forUpdate)
	}
}
