package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msafara/internal/seq"
)

func TestInfoFlag(t *testing.T) {
	dir := t.TempDir()
	aln := filepath.Join(dir, "aln.fa")
	require.NoError(t, os.WriteFile(aln, []byte(">R1\nAC-GT\n>R2\nACCGT\n"), 0o644))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{aln, "--info", "--config", filepath.Join(dir, "config.toml")})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "name: "+aln+"\nnb_sequences: 2\nnb_columns: 5\n", out.String())
}

func TestMissingInput(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--info", "--config", filepath.Join(t.TempDir(), "config.toml")})
	assert.Error(t, cmd.Execute())
}

func TestSameHeaders(t *testing.T) {
	entries := []seq.Entry{{Header: "R1"}, {Header: "R2"}}
	assert.True(t, sameHeaders(entries, []string{"R2", "R1"}))
	assert.False(t, sameHeaders(entries, []string{"R1", "R1"}))
	assert.False(t, sameHeaders(entries, []string{"R1"}))
}
