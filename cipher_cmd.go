package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"kryptos-backend/crossword"
	"kryptos-backend/crypto"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	keyFlag    string
	showStages bool
)

func addCipherCommands(root *cobra.Command) {
	encryptCmd := &cobra.Command{
		Use:   "encrypt [text]",
		Short: "Encrypt text (reads stdin when no argument is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  pipelineRunner(crypto.DirectionEncrypt),
	}
	decryptCmd := &cobra.Command{
		Use:   "decrypt [text]",
		Short: "Decrypt text (reads stdin when no argument is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  pipelineRunner(crypto.DirectionDecrypt),
	}
	for _, cmd := range []*cobra.Command{encryptCmd, decryptCmd} {
		cmd.Flags().BoolVar(&showStages, "stages", false, "print every intermediate stage")
	}

	mirrorCmd := &cobra.Command{
		Use:   "mirror [text]",
		Short: "Reverse text and apply Atbash",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), crypto.Mirror(text))
			return nil
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify [ciphertext]",
		Short: "Decrypt, re-encrypt and compare with the input",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			v, err := crypto.Verify(text, resolveKey())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "plaintext:    %s\n", v.Plaintext)
			fmt.Fprintf(out, "re-encrypted: %s\n", v.ReEncrypted)
			fmt.Fprintf(out, "match:        %t (%d characters)\n", v.Match, v.Length)
			if !v.Match {
				return fmt.Errorf("re-encryption does not reproduce the ciphertext")
			}
			return nil
		},
	}

	crosswordCmd := &cobra.Command{
		Use:   "crossword",
		Short: "Decode the 4x4 crossword grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sol := crossword.NewSolver().Solve()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "horizontal: %s\n", strings.Join(sol.Horizontal, " "))
			fmt.Fprintf(out, "vertical:   %s\n", strings.Join(sol.Vertical, " "))
			fmt.Fprintf(out, "meaning:    %s\n", sol.Interpretation)
			return nil
		},
	}

	for _, cmd := range []*cobra.Command{encryptCmd, decryptCmd, verifyCmd} {
		cmd.Flags().StringVarP(&keyFlag, "key", "k", "", "cipher key (default from config)")
	}

	root.AddCommand(encryptCmd, decryptCmd, mirrorCmd, verifyCmd, crosswordCmd)
}

func pipelineRunner(dir crypto.Direction) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		text, err := inputText(cmd, args)
		if err != nil {
			return err
		}

		dv, err := crypto.NewDoubleVigenere(resolveKey())
		if err != nil {
			return err
		}

		stages := dv.Stages(text, dir)
		logger.Debug("pipeline run", zap.String("direction", string(dir)), zap.Int("length", utf8.RuneCountInString(text)))

		out := cmd.OutOrStdout()
		if showStages {
			for i, stage := range stages {
				fmt.Fprintf(out, "stage %d: %s\n", i+1, stage)
			}
			return nil
		}
		fmt.Fprintln(out, stages[2])
		return nil
	}
}

func resolveKey() string {
	if keyFlag != "" {
		return keyFlag
	}
	return cfg.Cipher.DefaultKey
}

// inputText takes the single argument, or stdin with the trailing newline
// removed. Input that is not valid UTF-8 is rejected.
func inputText(cmd *cobra.Command, args []string) (string, error) {
	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		text = strings.TrimRight(string(data), "\r\n")
	}
	if !utf8.ValidString(text) {
		return "", errors.New("input is not valid UTF-8")
	}
	return text, nil
}
