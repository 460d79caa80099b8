package services

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bert-gateway/models"
)

// Function names are identifiers, optionally namespaced (stats::sd, Base.sum).
// Anything else is rejected so request text never becomes arbitrary code.
var functionNamePattern = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.!]*(::[A-Za-z_.][A-Za-z0-9_.]*)?$`)

// ValidateCall checks the fields every FunctionCall needs before dispatch
func ValidateCall(call models.FunctionCall) error {
	var missing []string
	if strings.TrimSpace(call.FunctionName) == "" {
		missing = append(missing, "function_name")
	}
	if strings.TrimSpace(call.Language) == "" {
		missing = append(missing, "language")
	}
	if len(missing) > 0 {
		return newError(KindValidation, "Missing required fields: %s", strings.Join(missing, ", "))
	}
	if err := validateFunctionName(call.FunctionName); err != nil {
		return err
	}
	if call.Context.TimeoutMs < 0 {
		return newError(KindValidation, "execution_context.timeout must not be negative")
	}
	if call.Context.MemoryLimitBytes < 0 {
		return newError(KindValidation, "execution_context.memory_limit must not be negative")
	}
	return nil
}

func validateFunctionName(name string) error {
	if !functionNamePattern.MatchString(name) {
		return newError(KindValidation, "invalid function name: %q", name)
	}
	return nil
}

// ToWorkerInvocation renders call as functionName(arg1, arg2, ...) in the
// target language, prefixed by the language preamble.
func ToWorkerInvocation(call models.FunctionCall, lang *Language) (Invocation, error) {
	if err := validateFunctionName(call.FunctionName); err != nil {
		return Invocation{}, err
	}
	return Invocation{
		Tag:        call.ID,
		Language:   lang.Name,
		Preamble:   lang.Preamble,
		Expression: CallExpression(lang.Dialect, call.FunctionName, call.Arguments),
	}, nil
}

// JobInvocation builds the invocation of an async job: the uploaded script and
// the data loader run first, then functionName(data, params...).
func JobInvocation(tag string, lang *Language, script, dataPath, functionName string, params []models.TypedValue) (Invocation, error) {
	if err := validateFunctionName(functionName); err != nil {
		return Invocation{}, err
	}

	var preamble []string
	if lang.Preamble != "" {
		preamble = append(preamble, lang.Preamble)
	}
	if script != "" {
		preamble = append(preamble, script)
	}
	preamble = append(preamble, lang.Dialect.DataLoader(dataPath))

	args := []string{"data"}
	for _, p := range params {
		args = append(args, lang.Dialect.Literal(p))
	}

	return Invocation{
		Tag:        tag,
		Language:   lang.Name,
		Preamble:   strings.Join(preamble, "\n"),
		Expression: functionName + "(" + strings.Join(args, ", ") + ")",
	}, nil
}

type workerPayload struct {
	Success  *bool           `json:"success"`
	Result   json.RawMessage `json:"result"`
	Error    json.RawMessage `json:"error"`
	Warnings []string        `json:"warnings"`
	Output   []string        `json:"output"`
}

// FromWorkerOutput maps a worker payload {success, result, error} into an
// ExecutionResult. elapsed is measured by the caller around the whole call.
func FromWorkerOutput(out *WorkerOutput, elapsed time.Duration) (*models.ExecutionResult, error) {
	var p workerPayload
	if err := json.Unmarshal(out.Payload, &p); err != nil {
		return nil, &Error{Kind: KindMalformedOutput, Message: "worker payload is not a JSON object", Output: string(out.Payload), Err: err}
	}
	if p.Success == nil {
		return nil, &Error{Kind: KindMalformedOutput, Message: "worker payload has no success flag", Output: string(out.Payload)}
	}

	res := &models.ExecutionResult{
		ExecutionTimeMs: elapsed.Milliseconds(),
		OutputLogs:      append(append([]string{}, out.Logs...), p.Output...),
		Warnings:        append([]string{}, p.Warnings...),
	}

	if *p.Success {
		res.Status = models.StatusSuccess
		res.Result = tagResult(p.Result)
		return res, nil
	}

	res.Status = models.StatusError
	res.Result = models.NullValue()
	res.ErrorDetails = errorText(p.Error)
	if res.ErrorDetails == "" {
		res.ErrorDetails = "worker reported failure without an error message"
	}
	return res, nil
}

// tagResult applies the result typing rule: numbers are doubles, strings stay
// strings, null stays null and anything else is re-serialized as JSON text.
func tagResult(raw json.RawMessage) models.TypedValue {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return models.NullValue()
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return models.StringValue(s)
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if f, err := strconv.ParseFloat(string(trimmed), 64); err == nil {
			return models.DoubleValue(f)
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return models.StringValue(string(trimmed))
	}
	return models.StringValue(compact.String())
}

func errorText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(trimmed, &list); err == nil {
		return strings.Join(list, "\n")
	}
	return string(trimmed)
}
