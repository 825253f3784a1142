package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTUICmd_Use(t *testing.T) {
	assert.Equal(t, "tui", tuiCmd.Use)
	assert.Equal(t, "Launch the interactive terminal UI", tuiCmd.Short)
	assert.Contains(t, tuiCmd.Long, "saved searches")
	assert.NotNil(t, tuiCmd.Flags().Lookup("context"))
}

func TestTUICmd_IsRegistered(t *testing.T) {
	found := false
	for _, c := range rootCmd.Commands() {
		if c.Name() == "tui" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTUICmd_NotConfigured(t *testing.T) {
	withServices(t, Services{})

	_, err := execute(t, nil, "tui")

	assert.EqualError(t, err, "search service not configured")
}

func TestTUICmd_RequiresServer(t *testing.T) {
	withServices(t, Services{NewSearch: (&mockSearch{}).factory()})

	_, err := execute(t, nil, "tui")

	assert.ErrorIs(t, err, errServerNotAvailable)
}
