package main

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	text := "Alert: KubePodCrashLooping\nCluster: prod"
	payload := base64.StdEncoding.EncodeToString([]byte(text))

	got, err := decodePayload(payload)
	require.NoError(t, err)
	assert.Equal(t, text, got)

	_, err = decodePayload("not!base64")
	assert.Error(t, err)
}

func TestRootCommandShape(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "copy")
	assert.Contains(t, names, "version")

	// Cycle errors are rendered, never returned: the host must see
	// exit 0.
	assert.True(t, root.SilenceErrors)
	assert.NotNil(t, root.Flags().Lookup("config"))
	assert.NotNil(t, root.Flags().Lookup("debug"))
}
