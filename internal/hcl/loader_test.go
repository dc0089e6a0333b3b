package hcl_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/cashgrid/internal/hcl"
	"github.com/vk/cashgrid/internal/model"
	"github.com/vk/cashgrid/internal/node"
	"github.com/vk/cashgrid/internal/table"
	"github.com/zclconf/go-cty/cty"
)

// writeFiles writes each file into a fresh directory and returns it.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

// load writes a single model file and loads it.
func load(t *testing.T, src string, opts ...hcl.LoaderOption) (*hcl.Result, error) {
	t.Helper()
	dir := writeFiles(t, map[string]string{"main.hcl": src})
	return hcl.NewLoader(opts...).Load(context.Background(), dir)
}

// run loads src and runs it for steps.
func run(t *testing.T, src string, steps int, opts ...hcl.LoaderOption) *table.Table {
	t.Helper()
	res, err := load(t, src, opts...)
	require.NoError(t, err)
	tbl, err := res.Model.Run(context.Background(), steps)
	require.NoError(t, err)
	return tbl
}

// requireColumn asserts that a column holds exactly the given numbers.
func requireColumn(t *testing.T, tbl *table.Table, column string, want ...float64) {
	t.Helper()
	got, ok := tbl.Column(column)
	require.True(t, ok, "missing column %q", column)
	require.Len(t, got, len(want), "column %q", column)
	for i, v := range got {
		require.True(t, v.Type() == cty.Number, "column %q step %d is %s", column, i, v.Type().FriendlyName())
		f, _ := v.AsBigFloat().Float64()
		assert.Equal(t, want[i], f, "column %q step %d", column, i)
	}
}

const simpleModel = `
model "simple" {
  steps = 4
}

section "revenue" {
  item "r1" { value = 1000 }
  item "r2" { value = 100 + 10 * t }
  output = revenue.r1 + revenue.r2
}

section "costs" {
  item "c1" { value = 500 }
  output = costs.c1
}

item "profit" {
  value = revenue.output - costs.output
}
`

func TestLoad_SimpleModel(t *testing.T) {
	res, err := load(t, simpleModel)
	require.NoError(t, err)

	assert.Equal(t, "simple", res.Model.Name())
	assert.True(t, res.HasSteps)
	assert.Equal(t, 4, res.Steps)
	require.Len(t, res.Files, 1)

	cols, err := res.Model.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"revenue", "revenue_r1", "revenue_r2", "costs", "costs_c1", "profit"}, cols)

	tbl, err := res.Model.Run(context.Background(), res.Steps)
	require.NoError(t, err)
	requireColumn(t, tbl, "revenue_r2", 100, 110, 120, 130)
	requireColumn(t, tbl, "revenue", 1100, 1110, 1120, 1130)
	requireColumn(t, tbl, "profit", 600, 610, 620, 630)
}

func TestLoad_DefaultsWithoutModelBlock(t *testing.T) {
	res, err := load(t, `item "x" { value = t }`)
	require.NoError(t, err)
	assert.Equal(t, hcl.DefaultModelName, res.Model.Name())
	assert.False(t, res.HasSteps)
}

func TestLoad_Recurrence(t *testing.T) {
	src := `
item "cumulative" {
  value = t == 0 ? 0 : self(t - 1) + t
}

item "fib" {
  value = t < 2 ? t : self(t - 1) + self(t - 2)
}
`
	tbl := run(t, src, 7)
	requireColumn(t, tbl, "cumulative", 0, 1, 3, 6, 10, 15, 21)
	requireColumn(t, tbl, "fib", 0, 1, 1, 2, 3, 5, 8)

	memoized := run(t, src, 7, hcl.WithMemoization())
	requireColumn(t, memoized, "fib", 0, 1, 1, 2, 3, 5, 8)
}

func TestLoad_Previous(t *testing.T) {
	src := `
section "revenue" {
  item "r2" { value = 100 + 10 * t }
  output = revenue.r2
}

item "last_step" {
  value = previous("revenue.r2")
}

item "two_back" {
  value = previous("revenue.output", 2)
}
`
	tbl := run(t, src, 3)
	requireColumn(t, tbl, "last_step", 90, 100, 110)
	requireColumn(t, tbl, "two_back", 80, 90, 100)
}

func TestLoad_PreviousOfRecursiveItemHasNoSelf(t *testing.T) {
	src := `
item "running" {
  value = t <= 0 ? 100 : self(t - 1) + 1
}

item "before" {
  value = previous("running")
}
`
	res, err := load(t, src)
	require.NoError(t, err)

	tbl, err := res.Model.Run(context.Background(), 2)
	require.NoError(t, err, "the base case never calls self")
	requireColumn(t, tbl, "before", 100, 100)

	_, err = res.Model.Run(context.Background(), 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, node.ErrSelfUnavailable)

	var cellErr *model.CellError
	require.ErrorAs(t, err, &cellErr)
	assert.Equal(t, 2, cellErr.Step)
	assert.Equal(t, "before", cellErr.Column)
}

func TestLoad_ConditionalsAreLazy(t *testing.T) {
	src := `
item "guarded" {
  value = t > 0 && self(t - 1) >= 0 ? 1 : 0
}

item "either" {
  value = t == 0 || self(t - 1) == 1 ? 1 : 0
}
`
	tbl := run(t, src, 3)
	requireColumn(t, tbl, "guarded", 0, 1, 1)
	requireColumn(t, tbl, "either", 1, 1, 1)
}

func TestLoad_Functions(t *testing.T) {
	src := `
item "power" { value = pow(2, t) }
item "floored" { value = floordiv(7, 2) - floor(-0.5) }
item "clamped" { value = max(min(t, 2), 1) }
item "label" { value = upper(format("step-%d", t)) }
item "fallback" { value = coalesce(null, t) }
item "message" { value = "at ${t}" }
`
	tbl := run(t, src, 4)
	requireColumn(t, tbl, "power", 1, 2, 4, 8)
	requireColumn(t, tbl, "floored", 4, 4, 4, 4)
	requireColumn(t, tbl, "clamped", 1, 1, 2, 2)
	requireColumn(t, tbl, "fallback", 0, 1, 2, 3)

	v, ok := tbl.Value(3, "label")
	require.True(t, ok)
	assert.Equal(t, cty.StringVal("STEP-3"), v)

	v, ok = tbl.Value(1, "message")
	require.True(t, ok)
	assert.Equal(t, cty.StringVal("at 1"), v)
}

func TestLoad_MergesFilesAndDirectories(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a_model.hcl":        `model "merged" { steps = 2 }`,
		"b_revenue.hcl":      `section "revenue" { output = 10 }`,
		"nested/c_cost.hcl":  `item "cost" { value = revenue.output / 2 }`,
		"nested/ignored.txt": `not a model`,
	})

	res, err := hcl.NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, res.Files, 3)
	assert.Equal(t, "merged", res.Model.Name())

	tbl, err := res.Model.Run(context.Background(), res.Steps)
	require.NoError(t, err)
	requireColumn(t, tbl, "cost", 5, 5)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name      string
		src       string
		expectErr string
	}{
		{
			name:      "syntax error",
			src:       `item "x" {`,
			expectErr: "failed to parse",
		},
		{
			name:      "missing value",
			src:       `item "x" {}`,
			expectErr: "failed to decode",
		},
		{
			name:      "missing value in section item",
			src:       "section \"s\" {\n  item \"a\" {}\n  output = 1\n}",
			expectErr: `The argument "value" is required in item "a"`,
		},
		{
			name:      "unknown reference",
			src:       `item "x" { value = missing + 1 }`,
			expectErr: `There is no entry named "missing"`,
		},
		{
			name:      "unknown section member",
			src:       "section \"s\" {\n  output = 1\n}\nitem \"x\" { value = s.nope }",
			expectErr: `Section "s" has no member "nope"`,
		},
		{
			name:      "bare section reference",
			src:       "section \"s\" {\n  output = 1\n}\nitem \"x\" { value = s }",
			expectErr: `"s" is a section`,
		},
		{
			name:      "item member reference",
			src:       "item \"a\" { value = 1 }\nitem \"x\" { value = a.b }",
			expectErr: `"a" is an item and has no members`,
		},
		{
			name:      "self reference by name",
			src:       `item "x" { value = x + 1 }`,
			expectErr: "use self(k)",
		},
		{
			name:      "reference cycle",
			src:       "item \"a\" { value = b }\nitem \"b\" { value = a }",
			expectErr: "cycle detected",
		},
		{
			name:      "previous with computed target",
			src:       "item \"a\" { value = 1 }\nitem \"x\" { value = previous(upper(\"a\")) }",
			expectErr: "must be a literal string address",
		},
		{
			name:      "previous of unknown entry",
			src:       `item "x" { value = previous("nope") }`,
			expectErr: `There is no entry named "nope"`,
		},
		{
			name:      "unknown function",
			src:       `item "x" { value = sqrt(4) }`,
			expectErr: `calls "sqrt"`,
		},
		{
			name:      "reserved entry name",
			src:       `item "t" { value = 1 }`,
			expectErr: `"t" is reserved`,
		},
		{
			name:      "item named output",
			src:       "section \"s\" {\n  item \"output\" { value = 1 }\n}",
			expectErr: "names the section output",
		},
		{
			name:      "duplicate entry",
			src:       "item \"a\" { value = 1 }\nsection \"a\" {}",
			expectErr: `An entry named "a" was already declared`,
		},
		{
			name:      "duplicate section item",
			src:       "section \"s\" {\n  item \"a\" { value = 1 }\n  item \"a\" { value = 2 }\n}",
			expectErr: `already has an item named "a"`,
		},
		{
			name:      "duplicate model block",
			src:       "model \"a\" {}\nmodel \"b\" {}",
			expectErr: "Duplicate model block",
		},
		{
			name:      "negative steps",
			src:       `model "a" { steps = -1 }`,
			expectErr: "steps must not be negative",
		},
		{
			name:      "colliding columns",
			src:       "section \"a\" {\n  item \"b\" { value = 1 }\n  output = 1\n}\nitem \"a_b\" { value = 2 }",
			expectErr: `column "a_b"`,
		},
		{
			name:      "attribute of t",
			src:       `item "x" { value = t.year }`,
			expectErr: "current step and has no attributes",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := load(t, tc.src)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Contains(t, err.Error(), tc.expectErr)
		})
	}
}

func TestLoad_MissingPath(t *testing.T) {
	_, err := hcl.NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope.hcl"))
	assert.ErrorContains(t, err, "error accessing path")

	_, err = hcl.NewLoader().Load(context.Background(), t.TempDir())
	assert.ErrorContains(t, err, "no .hcl files found")
}

func TestLoad_EvaluationErrors(t *testing.T) {
	testCases := []struct {
		name      string
		src       string
		expectErr string
	}{
		{name: "zero by zero", src: `item "x" { value = 0 / t }`, expectErr: "can't divide zero by zero"},
		{name: "arithmetic on a string", src: `item "x" { value = "a" + t }`, expectErr: "Unsuitable value for left operand"},
		{name: "non-scalar value", src: `item "x" { value = [t] }`, expectErr: "must be a number, bool or string"},
		{name: "fractional self step", src: `item "x" { value = self(t - 0.5) }`, expectErr: "whole number"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := load(t, tc.src)
			require.NoError(t, err, "evaluation problems surface only when the model runs")

			_, err = res.Model.Run(context.Background(), 1)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectErr)
		})
	}
}

func TestLoad_UnboundedRecursion(t *testing.T) {
	res, err := load(t, `item "x" { value = self(t - 1) + 1 }`)
	require.NoError(t, err)

	_, err = res.Model.Run(context.Background(), 1, model.WithMaxDepth(50))
	require.Error(t, err)

	var recErr *node.RecursionError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, 50, recErr.MaxDepth)
}

func TestLoad_MissingValueNeverDefaultsToNull(t *testing.T) {
	res, err := load(t, "model \"m\" { steps = 2 }\nitem \"x\" {}")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "Missing required argument")
}

func TestLoad_SectionWithoutOutput(t *testing.T) {
	res, err := load(t, "section \"s\" {\n  item \"a\" { value = 1 }\n}")
	require.Error(t, err)
	assert.Nil(t, res, "a section without output is rejected before any run")
	assert.ErrorIs(t, err, model.ErrNoOutput)
	assert.Contains(t, err.Error(), `section "s"`)
}

func TestLoad_AbsentValues(t *testing.T) {
	tbl := run(t, `item "gap" { value = t == 1 ? null : t }`, 3)

	v, ok := tbl.Value(1, "gap")
	require.True(t, ok)
	assert.True(t, v.IsNull())
}
