package main

import (
	"encoding/base64"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

// newCopyCmd is the target of the menu's "Copy Alert Details" action:
// the menu line re-invokes this binary with a base64 payload, which
// sidesteps shell quoting entirely.
func newCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "copy <base64-payload>",
		Short:  "Decode a payload and place it on the clipboard",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := decodePayload(args[0])
			if err != nil {
				return err
			}
			if err := clipboard.WriteAll(text); err != nil {
				return fmt.Errorf("writing clipboard: %w", err)
			}
			return nil
		},
	}
}

func decodePayload(payload string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decoding payload: %w", err)
	}
	return string(data), nil
}
