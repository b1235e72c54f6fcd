package frame

import "testing"

func TestFactorMapsOntoLevels(t *testing.T) {
	levels := []string{"mRNA", "lincRNA", "lncRNA", "pseudogene"}
	col := Factor([]string{"lncRNA", "mRNA", "snoRNA", "pseudogene"}, levels)

	if col.Kind() != Categorical {
		t.Fatalf("expected categorical column, got kind %d", col.Kind())
	}

	cases := []struct {
		row  int
		code int
		want string
		ok   bool
	}{
		{0, 2, "lncRNA", true},
		{1, 0, "mRNA", true},
		{2, -1, "", false}, // out-of-domain becomes missing, not an error
		{3, 3, "pseudogene", true},
	}
	for _, tc := range cases {
		if got := col.Code(tc.row); got != tc.code {
			t.Errorf("row %d: code = %d, want %d", tc.row, got, tc.code)
		}
		v, ok := col.Level(tc.row)
		if v != tc.want || ok != tc.ok {
			t.Errorf("row %d: level = (%q, %v), want (%q, %v)", tc.row, v, ok, tc.want, tc.ok)
		}
	}
}

func TestFactorLevelOrderPreserved(t *testing.T) {
	levels := []string{"A", "T", "C", "G"}
	col := Factor([]string{"G", "A"}, levels)

	got := col.Levels()
	if len(got) != len(levels) {
		t.Fatalf("expected %d levels, got %d", len(levels), len(got))
	}
	for i, l := range levels {
		if got[i] != l {
			t.Errorf("level %d = %q, want %q", i, got[i], l)
		}
	}
}

func TestSetRejectsLengthMismatch(t *testing.T) {
	f := New()
	if err := f.Set("a", Numbers(1, 2, 3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Set("b", Numbers(1, 2)); err == nil {
		t.Error("expected error adding a 2-row column to a 3-row frame")
	}
}

func TestSetReplacesColumnKeepingOrder(t *testing.T) {
	f := New()
	_ = f.Set("a", Numbers(1))
	_ = f.Set("b", Numbers(2))
	_ = f.Set("a", Numbers(9))

	names := f.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected column order: %v", names)
	}
	col, _ := f.Get("a")
	if col.Float(0) != 9 {
		t.Errorf("replaced column value = %g, want 9", col.Float(0))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	f := New()
	_ = f.Set("a", Numbers(1, 2))

	clone := f.Clone()
	_ = clone.Set("b", Numbers(3, 4))

	if f.Has("b") {
		t.Error("adding a column to the clone mutated the original")
	}
	if !clone.Has("a") || !clone.Has("b") {
		t.Error("clone is missing expected columns")
	}
}

func TestValuesDecodesMissingToEmpty(t *testing.T) {
	col := Factor([]string{"CDS", "promoter"}, []string{"CDS", "intron", "3'UTR", "5'UTR"})
	values := col.Values()
	if values[0] != "CDS" || values[1] != "" {
		t.Errorf("values = %v, want [CDS \"\"]", values)
	}
}

func TestRowsEmptyFrame(t *testing.T) {
	if rows := New().Rows(); rows != 0 {
		t.Errorf("empty frame rows = %d, want 0", rows)
	}
}
