package cmd

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCommandStructure(t *testing.T) {
	assert.NotNil(t, versionCmd)
	assert.Equal(t, "version", versionCmd.Use)
	assert.NotEmpty(t, versionCmd.Short)
	assert.NotEmpty(t, versionCmd.Long)
	assert.NotNil(t, versionCmd.Run)
}

func TestRunVersion(t *testing.T) {
	originalVersion := Version
	originalCommit := Commit
	defer func() {
		Version = originalVersion
		Commit = originalCommit
	}()

	Version = "1.2.3"
	Commit = "abc1234"

	buf := &bytes.Buffer{}
	versionCmd.SetOut(buf)
	defer versionCmd.SetOut(nil)

	runVersion(versionCmd, nil)

	output := buf.String()
	assert.Contains(t, output, "db2xlsx version 1.2.3")
	assert.Contains(t, output, "Commit: abc1234")
	assert.Contains(t, output, "Go version: "+runtime.Version())
	assert.Contains(t, output, "OS/Arch: "+runtime.GOOS+"/"+runtime.GOARCH)
}
