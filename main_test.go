package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommands(t *testing.T) {
	want := []string{"amazon", "audit", "competition", "keywords", "rank", "referrers", "serve", "top-queries", "youtube"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	rank, _, _ := rootCmd.Find([]string{"rank"})
	assert.Equal(t, "duckduckgo", rank.Flags().Lookup("engine").DefValue)
	kw, _, _ := rootCmd.Find([]string{"keywords"})
	assert.Equal(t, "United States", kw.Flags().Lookup("location").DefValue)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestCommandArgs(t *testing.T) {
	tests := [][]string{
		{"competition", "https://acme.com"},
		{"rank", "acme.com"},
		{"referrers"},
		{"audit", "a", "b"},
	}
	for _, args := range tests {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&out)
		rootCmd.SetArgs(args)
		assert.Error(t, rootCmd.Execute(), args)
	}
}
