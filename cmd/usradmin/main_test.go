package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintBuildInfo(t *testing.T) {
	var out bytes.Buffer
	printBuildInfo(&out)

	assert.Equal(t, "Build version: N/A\nBuild date: N/A\nBuild commit: N/A\n", out.String())
}
