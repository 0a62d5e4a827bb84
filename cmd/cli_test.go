package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, "boardroom", root.Use)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "status", "meeting", "session", "campaign", "report"} {
		assert.Contains(t, names, want)
	}
}

func TestMeetingCommandRequiresAgenda(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"meeting"})
	err := root.Execute()
	require.Error(t, err)
}
