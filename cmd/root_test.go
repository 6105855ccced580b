//go:build !integration

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "ingest", "migrate", "status", "check", "export", "snapshot"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRootCmd_Flags(t *testing.T) {
	assert.NotNil(t, serveCmd.Flags().Lookup("port"))
	assert.NotNil(t, ingestCmd.Flags().Lookup("dir"))
	assert.NotNil(t, ingestCmd.Flags().Lookup("report-dir"))
	assert.NotNil(t, ingestCmd.Flags().Lookup("workers"))
	assert.NotNil(t, exportCmd.Flags().Lookup("out"))
	assert.NotNil(t, snapshotCmd.Flags().Lookup("out"))
	assert.Equal(t, "20", statusCmd.Flags().Lookup("limit").DefValue)
}
