package services

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"bert-gateway/models"
)

// Dialect knows the source syntax of one language runtime: how to write
// literals, how to wrap an expression so its value is reported between the
// result markers, and how to load data and check dependencies.
type Dialect interface {
	Name() string
	Literal(v models.TypedValue) string
	Wrap(preamble, expression, startMarker, endMarker string) string
	DataLoader(path string) string
	DependencyCheck(library string) (preamble, expression string)
	Libraries(script string) []string
	Functions(script string) []string
}

// LookupDialect returns the dialect registered under name
func LookupDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "r":
		return rDialect{}, nil
	case "julia":
		return juliaDialect{}, nil
	case "python", "python3":
		return pythonDialect{}, nil
	default:
		return nil, fmt.Errorf("unknown dialect: %q", name)
	}
}

// DialectForFile picks a dialect from a script file extension, defaulting to R
func DialectForFile(fileName string) Dialect {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".jl":
		return juliaDialect{}
	case ".py":
		return pythonDialect{}
	default:
		return rDialect{}
	}
}

// CallExpression renders functionName(arg1, arg2, ...) in the given dialect
func CallExpression(d Dialect, functionName string, args []models.TypedValue) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = d.Literal(arg)
	}
	return functionName + "(" + strings.Join(parts, ", ") + ")"
}

// ============================================================
// R
// ============================================================

type rDialect struct{}

var (
	rLibraryPattern  = regexp.MustCompile(`(?:library|require|requireNamespace)\s*\(\s*['"]?([A-Za-z][A-Za-z0-9._]*)['"]?`)
	rFunctionPattern = regexp.MustCompile(`([A-Za-z_.][A-Za-z0-9_.]*)\s*(?:<-|=)\s*function\s*\(`)
)

func (rDialect) Name() string { return "r" }

func (rDialect) Literal(v models.TypedValue) string {
	switch v.Kind {
	case models.KindString:
		return quoteString(v.String, false)
	case models.KindInteger:
		// R integers are 32-bit
		if v.Integer >= math.MinInt32+1 && v.Integer <= math.MaxInt32 {
			return strconv.FormatInt(v.Integer, 10) + "L"
		}
		return strconv.FormatInt(v.Integer, 10)
	case models.KindDouble:
		switch {
		case math.IsNaN(v.Double):
			return "NaN"
		case math.IsInf(v.Double, 1):
			return "Inf"
		case math.IsInf(v.Double, -1):
			return "-Inf"
		}
		return strconv.FormatFloat(v.Double, 'g', -1, 64)
	default:
		return "NULL"
	}
}

func (rDialect) Wrap(preamble, expression, startMarker, endMarker string) string {
	var b strings.Builder
	b.WriteString("suppressPackageStartupMessages(library(jsonlite))\n")
	if preamble != "" {
		b.WriteString(preamble)
		b.WriteString("\n")
	}
	b.WriteString(".bert_warnings <- character(0)\n")
	b.WriteString(".bert_result <- withCallingHandlers(\n")
	b.WriteString("  tryCatch(\n")
	fmt.Fprintf(&b, "    list(success = TRUE, result = (%s)),\n", expression)
	b.WriteString("    error = function(e) list(success = FALSE, result = NULL, error = conditionMessage(e))\n")
	b.WriteString("  ),\n")
	b.WriteString("  warning = function(w) {\n")
	b.WriteString("    .bert_warnings <<- c(.bert_warnings, conditionMessage(w))\n")
	b.WriteString("    invokeRestart(\"muffleWarning\")\n")
	b.WriteString("  }\n")
	b.WriteString(")\n")
	b.WriteString(".bert_result$warnings <- I(.bert_warnings)\n")
	fmt.Fprintf(&b, "cat(\"\\n%s\\n\")\n", startMarker)
	b.WriteString("cat(jsonlite::toJSON(.bert_result, auto_unbox = TRUE, null = \"null\", na = \"null\", digits = NA))\n")
	fmt.Fprintf(&b, "cat(\"\\n%s\\n\")\n", endMarker)
	return b.String()
}

func (rDialect) DataLoader(path string) string {
	return fmt.Sprintf("data <- read.csv(%s, stringsAsFactors = FALSE)", quoteString(path, false))
}

func (rDialect) DependencyCheck(library string) (string, string) {
	lib := quoteString(library, false)
	expr := fmt.Sprintf(
		`if (!requireNamespace(%[1]s, quietly = TRUE)) { install.packages(%[1]s, repos = "https://cran.r-project.org", dependencies = TRUE); if (!requireNamespace(%[1]s, quietly = TRUE)) stop(paste("unable to install", %[1]s)); "installed" } else "available"`,
		lib)
	return "", expr
}

func (rDialect) Libraries(script string) []string {
	return uniqueMatches(rLibraryPattern, script)
}

func (rDialect) Functions(script string) []string {
	return uniqueMatches(rFunctionPattern, script)
}

// ============================================================
// Julia
// ============================================================

type juliaDialect struct{}

var (
	juliaLibraryPattern  = regexp.MustCompile(`(?m)^\s*(?:using|import)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	juliaFunctionPattern = regexp.MustCompile(`(?m)^\s*function\s+([A-Za-z_][A-Za-z0-9_!]*)\s*\(`)
)

func (juliaDialect) Name() string { return "julia" }

func (juliaDialect) Literal(v models.TypedValue) string {
	switch v.Kind {
	case models.KindString:
		return quoteString(v.String, true)
	case models.KindInteger:
		return strconv.FormatInt(v.Integer, 10)
	case models.KindDouble:
		switch {
		case math.IsNaN(v.Double):
			return "NaN"
		case math.IsInf(v.Double, 1):
			return "Inf"
		case math.IsInf(v.Double, -1):
			return "-Inf"
		}
		return floatLiteral(v.Double)
	default:
		return "nothing"
	}
}

func (juliaDialect) Wrap(preamble, expression, startMarker, endMarker string) string {
	var b strings.Builder
	b.WriteString("import JSON\n")
	if preamble != "" {
		b.WriteString(preamble)
		b.WriteString("\n")
	}
	b.WriteString("bert_result = try\n")
	fmt.Fprintf(&b, "    Dict{String,Any}(\"success\" => true, \"result\" => (%s))\n", expression)
	b.WriteString("catch bert_err\n")
	b.WriteString("    Dict{String,Any}(\"success\" => false, \"result\" => nothing, \"error\" => sprint(showerror, bert_err))\n")
	b.WriteString("end\n")
	b.WriteString("println()\n")
	fmt.Fprintf(&b, "println(\"%s\")\n", startMarker)
	b.WriteString("println(JSON.json(bert_result))\n")
	fmt.Fprintf(&b, "println(\"%s\")\n", endMarker)
	return b.String()
}

func (juliaDialect) DataLoader(path string) string {
	return fmt.Sprintf("using DelimitedFiles\ndata = readdlm(%s, ',', header=true)", quoteString(path, true))
}

func (juliaDialect) DependencyCheck(library string) (string, string) {
	lib := quoteString(library, true)
	return "import Pkg", fmt.Sprintf(`Base.find_package(%[1]s) === nothing ? (Pkg.add(%[1]s); "installed") : "available"`, lib)
}

func (juliaDialect) Libraries(script string) []string {
	return uniqueMatches(juliaLibraryPattern, script)
}

func (juliaDialect) Functions(script string) []string {
	return uniqueMatches(juliaFunctionPattern, script)
}

// ============================================================
// Python
// ============================================================

type pythonDialect struct{}

var (
	pythonImportPattern   = regexp.MustCompile(`(?m)^\s*(?:import|from)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	pythonFunctionPattern = regexp.MustCompile(`(?m)^def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
)

func (pythonDialect) Name() string { return "python" }

func (pythonDialect) Literal(v models.TypedValue) string {
	switch v.Kind {
	case models.KindString:
		return quoteString(v.String, false)
	case models.KindInteger:
		return strconv.FormatInt(v.Integer, 10)
	case models.KindDouble:
		switch {
		case math.IsNaN(v.Double):
			return `float("nan")`
		case math.IsInf(v.Double, 1):
			return `float("inf")`
		case math.IsInf(v.Double, -1):
			return `float("-inf")`
		}
		return floatLiteral(v.Double)
	default:
		return "None"
	}
}

func (pythonDialect) Wrap(preamble, expression, startMarker, endMarker string) string {
	var b strings.Builder
	b.WriteString("import json as __bert_json\n")
	b.WriteString("import warnings as __bert_warnings\n")
	if preamble != "" {
		b.WriteString(preamble)
		b.WriteString("\n")
	}
	b.WriteString("with __bert_warnings.catch_warnings(record=True) as __bert_caught:\n")
	b.WriteString("    __bert_warnings.simplefilter(\"always\")\n")
	b.WriteString("    try:\n")
	fmt.Fprintf(&b, "        __bert_result = {\"success\": True, \"result\": (%s)}\n", expression)
	b.WriteString("    except Exception as __bert_err:\n")
	b.WriteString("        __bert_result = {\"success\": False, \"result\": None, \"error\": str(__bert_err)}\n")
	b.WriteString("__bert_result[\"warnings\"] = [str(w.message) for w in __bert_caught]\n")
	b.WriteString("print()\n")
	fmt.Fprintf(&b, "print(\"%s\")\n", startMarker)
	b.WriteString("print(__bert_json.dumps(__bert_result, default=str))\n")
	fmt.Fprintf(&b, "print(\"%s\")\n", endMarker)
	return b.String()
}

func (pythonDialect) DataLoader(path string) string {
	return fmt.Sprintf("import csv as __bert_csv\nwith open(%s, newline=\"\") as __bert_fh:\n    data = list(__bert_csv.DictReader(__bert_fh))", quoteString(path, false))
}

func (pythonDialect) DependencyCheck(library string) (string, string) {
	return "import importlib", fmt.Sprintf(`importlib.import_module(%s) and "available"`, quoteString(library, false))
}

func (pythonDialect) Libraries(script string) []string {
	return uniqueMatches(pythonImportPattern, script)
}

func (pythonDialect) Functions(script string) []string {
	return uniqueMatches(pythonFunctionPattern, script)
}

// ============================================================
// helpers
// ============================================================

// quoteString renders s as a double-quoted literal understood by R, Julia and
// Python. Julia also needs '$' escaped to prevent interpolation.
func quoteString(s string, escapeDollar bool) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '$':
			if escapeDollar {
				b.WriteString(`\$`)
			} else {
				b.WriteRune(r)
			}
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// floatLiteral keeps a decimal point so integral doubles stay floating point
// in languages that type literals (Python, Julia).
func floatLiteral(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func uniqueMatches(re *regexp.Regexp, s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		out = append(out, m[1])
	}
	return out
}
