package services

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bert-gateway/models"
)

func TestValidateCall(t *testing.T) {
	valid := models.FunctionCall{FunctionName: "stats::sd", Language: "R"}
	require.NoError(t, ValidateCall(valid))

	cases := map[string]models.FunctionCall{
		"missing function": {Language: "R"},
		"missing language": {FunctionName: "sum"},
		"blank both":       {FunctionName: " ", Language: ""},
		"code injection":   {FunctionName: "system('rm -rf /'); sum", Language: "R"},
		"negative timeout": {FunctionName: "sum", Language: "R", Context: models.ExecutionContext{TimeoutMs: -1}},
		"negative memory":  {FunctionName: "sum", Language: "R", Context: models.ExecutionContext{MemoryLimitBytes: -1}},
	}
	for name, call := range cases {
		t.Run(name, func(t *testing.T) {
			err := ValidateCall(call)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}

	err := ValidateCall(models.FunctionCall{})
	assert.EqualError(t, err, "Missing required fields: function_name, language")
}

func TestFunctionNames(t *testing.T) {
	for _, name := range []string{"sum", "base::paste", "Base.sum", "push!", ".hidden", "my_fn2"} {
		assert.NoError(t, validateFunctionName(name), name)
	}
	for _, name := range []string{"", "1abc", "a b", "f(x)", "a::b::c", "a;b", "+"} {
		assert.Error(t, validateFunctionName(name), name)
	}
}

func TestToWorkerInvocation(t *testing.T) {
	lang := &Language{Name: "r", Dialect: rDialect{}, Preamble: "options(digits = 15)"}
	call := models.FunctionCall{
		ID:           "call-1",
		FunctionName: "sum",
		Language:     "R",
		Arguments: []models.TypedValue{
			models.IntegerValue(1), models.IntegerValue(2), models.IntegerValue(3),
			models.IntegerValue(4), models.IntegerValue(5),
		},
	}

	inv, err := ToWorkerInvocation(call, lang)
	require.NoError(t, err)
	assert.Equal(t, "call-1", inv.Tag)
	assert.Equal(t, "options(digits = 15)", inv.Preamble)
	assert.Equal(t, "sum(1L, 2L, 3L, 4L, 5L)", inv.Expression)
	assert.Equal(t, "options(digits = 15)\nsum(1L, 2L, 3L, 4L, 5L)", inv.Script())
}

func TestJobInvocation(t *testing.T) {
	lang := &Language{Name: "r", Dialect: rDialect{}}
	inv, err := JobInvocation("job-1", lang, "analyze <- function(d, k) nrow(d) * k", "/tmp/d.csv", "analyze",
		[]models.TypedValue{models.DoubleValue(1.5)})
	require.NoError(t, err)

	assert.Equal(t, "analyze(data, 1.5)", inv.Expression)
	assert.Equal(t, "analyze <- function(d, k) nrow(d) * k\n"+`data <- read.csv("/tmp/d.csv", stringsAsFactors = FALSE)`, inv.Preamble)

	_, err = JobInvocation("job-1", lang, "", "/tmp/d.csv", "x; quit()", nil)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestFromWorkerOutputSuccess(t *testing.T) {
	cases := []struct {
		payload string
		want    models.TypedValue
	}{
		{`{"success":true,"result":15}`, models.DoubleValue(15)},
		{`{"success":true,"result":-2.5e3}`, models.DoubleValue(-2500)},
		{`{"success":true,"result":"hello"}`, models.StringValue("hello")},
		{`{"success":true,"result":null}`, models.NullValue()},
		{`{"success":true}`, models.NullValue()},
		{`{"success":true,"result":[1, 2, 3]}`, models.StringValue("[1,2,3]")},
		{`{"success":true,"result":{"mean": 2}}`, models.StringValue(`{"mean":2}`)},
		{`{"success":true,"result":true}`, models.StringValue("true")},
	}

	for _, tc := range cases {
		res, err := FromWorkerOutput(&WorkerOutput{Payload: []byte(tc.payload)}, 42*time.Millisecond)
		require.NoError(t, err, tc.payload)
		assert.Equal(t, models.StatusSuccess, res.Status, tc.payload)
		assert.Equal(t, tc.want, res.Result, tc.payload)
		assert.Equal(t, int64(42), res.ExecutionTimeMs)
		assert.NotNil(t, res.Warnings)
		assert.NotNil(t, res.OutputLogs)
	}
}

func TestFromWorkerOutputFailure(t *testing.T) {
	out := &WorkerOutput{
		Payload: []byte(`{"success":false,"result":null,"error":"object 'x' not found","warnings":["w1"],"output":["printed"]}`),
		Logs:    []string{"before"},
	}
	res, err := FromWorkerOutput(out, time.Second)
	require.NoError(t, err)

	assert.Equal(t, models.StatusError, res.Status)
	assert.True(t, res.Result.IsNull())
	assert.Equal(t, "object 'x' not found", res.ErrorDetails)
	assert.Equal(t, []string{"w1"}, res.Warnings)
	assert.Equal(t, []string{"before", "printed"}, res.OutputLogs)
	assert.False(t, res.Succeeded())

	res, err = FromWorkerOutput(&WorkerOutput{Payload: []byte(`{"success":false,"error":["a","b"]}`)}, 0)
	require.NoError(t, err)
	assert.Equal(t, "a\nb", res.ErrorDetails)

	res, err = FromWorkerOutput(&WorkerOutput{Payload: []byte(`{"success":false}`)}, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, res.ErrorDetails)
}

func TestFromWorkerOutputMalformed(t *testing.T) {
	for _, payload := range []string{`[1,2]`, `"text"`, `{"result":1}`} {
		_, err := FromWorkerOutput(&WorkerOutput{Payload: []byte(payload)}, 0)
		assert.True(t, errors.Is(err, ErrMalformedOutput), payload)
	}
}

func TestDoubleRoundTrip(t *testing.T) {
	const original = 3.14159
	for _, d := range []Dialect{rDialect{}, juliaDialect{}, pythonDialect{}} {
		literal := d.Literal(models.DoubleValue(original))

		// A worker echoing the literal back prints it as a JSON number
		payload := `{"success":true,"result":` + literal + `}`
		res, err := FromWorkerOutput(&WorkerOutput{Payload: []byte(payload)}, 0)
		require.NoError(t, err, d.Name())

		require.Equal(t, models.KindDouble, res.Result.Kind)
		assert.InDelta(t, original, res.Result.Double, 1e-10, d.Name())
		assert.False(t, math.IsNaN(res.Result.Double))
	}
}
