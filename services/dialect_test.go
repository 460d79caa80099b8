package services

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bert-gateway/models"
)

func TestLookupDialect(t *testing.T) {
	for _, name := range []string{"r", "R", "julia", "python", "Python3"} {
		d, err := LookupDialect(name)
		require.NoError(t, err, name)
		assert.NotNil(t, d)
	}

	_, err := LookupDialect("cobol")
	assert.Error(t, err)
}

func TestRLiterals(t *testing.T) {
	d := rDialect{}
	cases := []struct {
		in   models.TypedValue
		want string
	}{
		{models.IntegerValue(15), "15L"},
		{models.IntegerValue(-3), "-3L"},
		{models.IntegerValue(1 << 40), "1099511627776"},
		{models.DoubleValue(3.14159), "3.14159"},
		{models.DoubleValue(2), "2"},
		{models.DoubleValue(math.NaN()), "NaN"},
		{models.DoubleValue(math.Inf(-1)), "-Inf"},
		{models.StringValue(`say "hi"`), `"say \"hi\""`},
		{models.StringValue("a\\b\nc"), `"a\\b\nc"`},
		{models.NullValue(), "NULL"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, d.Literal(tc.in))
	}
}

func TestJuliaLiterals(t *testing.T) {
	d := juliaDialect{}
	assert.Equal(t, "7", d.Literal(models.IntegerValue(7)))
	assert.Equal(t, "2.0", d.Literal(models.DoubleValue(2)))
	assert.Equal(t, "1e+21", d.Literal(models.DoubleValue(1e21)))
	assert.Equal(t, `"cost \$5"`, d.Literal(models.StringValue("cost $5")))
	assert.Equal(t, "nothing", d.Literal(models.NullValue()))
	assert.Equal(t, "Inf", d.Literal(models.DoubleValue(math.Inf(1))))
}

func TestPythonLiterals(t *testing.T) {
	d := pythonDialect{}
	assert.Equal(t, "7", d.Literal(models.IntegerValue(7)))
	assert.Equal(t, "0.5", d.Literal(models.DoubleValue(0.5)))
	assert.Equal(t, `"cost $5"`, d.Literal(models.StringValue("cost $5")))
	assert.Equal(t, "None", d.Literal(models.NullValue()))
	assert.Equal(t, `float("nan")`, d.Literal(models.DoubleValue(math.NaN())))
	assert.Equal(t, `"\u0001"`, d.Literal(models.StringValue("\x01")))
}

func TestCallExpression(t *testing.T) {
	args := []models.TypedValue{
		models.IntegerValue(1),
		models.DoubleValue(2.5),
		models.StringValue("x"),
		models.NullValue(),
	}
	assert.Equal(t, `f(1L, 2.5, "x", NULL)`, CallExpression(rDialect{}, "f", args))
	assert.Equal(t, `f(1, 2.5, "x", None)`, CallExpression(pythonDialect{}, "f", args))
	assert.Equal(t, "g()", CallExpression(juliaDialect{}, "g", nil))
}

func TestWrapEmbedsMarkersAndExpression(t *testing.T) {
	for _, d := range []Dialect{rDialect{}, juliaDialect{}, pythonDialect{}} {
		script := d.Wrap("x = 1", "sum(1, 2)", "<<S>>", "<<E>>")
		assert.Contains(t, script, "x = 1", d.Name())
		assert.Contains(t, script, "(sum(1, 2))", d.Name())
		assert.Contains(t, script, "<<S>>", d.Name())
		assert.Contains(t, script, "<<E>>", d.Name())
		assert.Less(t, strings.Index(script, "<<S>>"), strings.Index(script, "<<E>>"), d.Name())
	}
}

func TestScriptAnalysis(t *testing.T) {
	r := rDialect{}
	script := "library(dplyr)\nrequire('tidyr')\nlibrary(dplyr)\nclean <- function(df) df\nsummarise_all = function(x, n) x\n"
	assert.Equal(t, []string{"dplyr", "tidyr"}, r.Libraries(script))
	assert.Equal(t, []string{"clean", "summarise_all"}, r.Functions(script))

	py := pythonDialect{}
	pyScript := "import numpy as np\nfrom pandas import DataFrame\n\ndef analyze(data, k):\n    return k\n"
	assert.Equal(t, []string{"numpy", "pandas"}, py.Libraries(pyScript))
	assert.Equal(t, []string{"analyze"}, py.Functions(pyScript))

	jl := juliaDialect{}
	jlScript := "using Statistics\nimport CSV\n\nfunction analyze(data)\n  mean(data)\nend\n"
	assert.Equal(t, []string{"Statistics", "CSV"}, jl.Libraries(jlScript))
	assert.Equal(t, []string{"analyze"}, jl.Functions(jlScript))
}

func TestDataLoaderQuotesPath(t *testing.T) {
	path := `/tmp/bert_data_1.csv`
	assert.Equal(t, `data <- read.csv("/tmp/bert_data_1.csv", stringsAsFactors = FALSE)`, rDialect{}.DataLoader(path))
	assert.Contains(t, pythonDialect{}.DataLoader(path), `open("/tmp/bert_data_1.csv"`)
	assert.Contains(t, juliaDialect{}.DataLoader(path), `readdlm("/tmp/bert_data_1.csv"`)
}
