package main

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bert-gateway/config"
	"bert-gateway/rpc"
	"bert-gateway/services"
)

func TestBuildRegistry(t *testing.T) {
	cfg := config.Default()
	cfg.Runtimes["remote"] = config.RuntimeConfig{Dialect: "python", Endpoint: "localhost:50099"}

	registry, closers, err := buildRegistry(&cfg, logrus.NewEntry(logrus.New()))
	require.NoError(t, err)
	defer closeAll(closers, logrus.NewEntry(logrus.New()))

	assert.Equal(t, []string{"julia", "python", "r", "remote"}, registry.Names())
	require.Len(t, closers, 1)

	r, err := registry.Lookup("R")
	require.NoError(t, err)
	assert.IsType(t, &services.ProcessWorker{}, r.Worker)
	assert.NotEmpty(t, r.Functions)

	remote, err := registry.Lookup("remote")
	require.NoError(t, err)
	assert.IsType(t, &rpc.RemoteWorker{}, remote.Worker)
	assert.Equal(t, "Remote", remote.DisplayName)
}

func TestBuildRegistryUnknownDialect(t *testing.T) {
	cfg := config.Default()
	cfg.Runtimes["cobol"] = config.RuntimeConfig{Dialect: "cobol", Binary: "cobc"}

	_, _, err := buildRegistry(&cfg, logrus.NewEntry(logrus.New()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cobol")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.WithField("component", "test").Debug("hello")
	assert.Contains(t, buf.String(), `"component":"test"`)
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	_, err = newLogger(config.LogConfig{Level: "loud"}, &buf)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "bert-gateway dev\n", out.String())
}

func TestExecExamplesAreRunnable(t *testing.T) {
	cfg := config.Default()
	registry, closers, err := buildRegistry(&cfg, logrus.NewEntry(logrus.New()))
	require.NoError(t, err)
	defer closeAll(closers, logrus.NewEntry(logrus.New()))

	example := regexp.MustCompile(`exec (\S+)(?: --language (\S+))? --args '([^']*)'`)
	lines := strings.Split(newExecCmd(nil).Example, "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		m := example.FindStringSubmatch(line)
		require.NotNil(t, m, line)

		_, err := parseArgs(m[3])
		assert.NoError(t, err, line)

		language := m[2]
		if language == "" {
			language = "r"
		}
		functions, err := registry.Functions(language)
		require.NoError(t, err, line)
		var names []string
		for _, fn := range functions {
			names = append(names, fn.Name)
		}
		assert.Contains(t, names, m[1], line)
	}
}

func TestParseArgs(t *testing.T) {
	params, err := parseArgs(`[1, 2.5, "a", null]`)
	require.NoError(t, err)
	assert.Len(t, params, 4)

	params, err = parseArgs("")
	require.NoError(t, err)
	assert.Empty(t, params)

	_, err = parseArgs(`[[1.5, 2.5]]`)
	assert.Error(t, err)
}
