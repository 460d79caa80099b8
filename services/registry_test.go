package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Language{Name: "R", Dialect: rDialect{}, Functions: DefaultCatalog("r", "r")})
	reg.Register(&Language{Name: "python", Dialect: pythonDialect{}, Functions: DefaultCatalog("python", "python")})

	lang, err := reg.Lookup("r")
	require.NoError(t, err)
	assert.Equal(t, "R", lang.Name)

	_, err = reg.Lookup("Rust")
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))
	assert.Contains(t, err.Error(), "Rust")

	assert.Equal(t, []string{"python", "r"}, reg.Names())

	all, err := reg.Functions("")
	require.NoError(t, err)
	assert.Len(t, all, len(DefaultCatalog("r", "r"))+len(DefaultCatalog("python", "python")))

	rOnly, err := reg.Functions("R")
	require.NoError(t, err)
	for _, fn := range rOnly {
		assert.Equal(t, "r", fn.Language)
	}
}

func TestDefaultCatalogNamesAreCallable(t *testing.T) {
	for _, d := range []string{"r", "julia", "python"} {
		catalog := DefaultCatalog(d, d)
		require.NotEmpty(t, catalog, d)
		for _, fn := range catalog {
			assert.NoError(t, validateFunctionName(fn.Name), fn.Name)
		}
	}
	assert.Nil(t, DefaultCatalog("x", "cobol"))
}
