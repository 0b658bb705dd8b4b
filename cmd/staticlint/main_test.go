package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzers(t *testing.T) {
	names := func(cfg ConfigData) map[string]bool {
		result := map[string]bool{}
		for _, a := range analyzers(cfg) {
			result[a.Name] = true
		}
		return result
	}

	base := names(ConfigData{})
	assert.True(t, base["restyctx"])
	assert.True(t, base["nilerr"])
	assert.False(t, base["SA4006"])

	withStaticcheck := names(ConfigData{Staticcheck: []string{"SA4006", "XX0000"}})
	assert.True(t, withStaticcheck["SA4006"])
	assert.Len(t, withStaticcheck, len(base)+1)
}
