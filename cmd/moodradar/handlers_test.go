package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/moodradar/internal/config"
	"github.com/elonfeng/moodradar/pkg/sentiment"
	"github.com/elonfeng/moodradar/pkg/source"
)

// parsed returns the subreddit command with args parsed, global flags included.
func parsed(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd, _, err := rootCmd().Find([]string{"subreddit"})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestBuildQueryDefaultsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.MaxComments = 50
	cfg.Analysis.MaxSubmissions = 5

	q, err := buildQuery(parsed(t), cfg)
	require.NoError(t, err)
	assert.Equal(t, sentiment.Query{SortingType: source.SortNone, MaxComments: 50, MaxSubmissions: 5}, q)
}

func TestBuildQueryFlagsOverrideConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.MaxComments = 50

	q, err := buildQuery(parsed(t, "--sort=top", "--max-comments=0", "--max-submissions=3"), cfg)
	require.NoError(t, err)
	assert.Equal(t, source.SortTop, q.SortingType)
	assert.Equal(t, 0, q.MaxComments, "an explicit 0 means unbounded")
	assert.Equal(t, 3, q.MaxSubmissions)
}

func TestBuildQueryRejectsNegativeFlags(t *testing.T) {
	for _, flag := range []string{"--max-comments=-3", "--max-submissions=-1"} {
		t.Run(flag, func(t *testing.T) {
			_, err := buildQuery(parsed(t, flag), config.Default())
			assert.ErrorIs(t, err, sentiment.ErrInvalidParameter)
		})
	}
}

func TestBuildQueryRejectsUnknownSort(t *testing.T) {
	_, err := buildQuery(parsed(t, "--sort=controversial"), config.Default())
	assert.Error(t, err)
}
