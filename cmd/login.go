package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"unreadwatch/internal/credential"

	"github.com/spf13/cobra"
)

func newLoginCommand(_ *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the feed password in the system keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			forget, err := cmd.Flags().GetBool("forget")
			if err != nil {
				return err
			}

			if forget {
				if err = credential.Delete(credential.FeedPasswordKey); err != nil && !errors.Is(err, credential.ErrNotFound) {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), "Password removed")

				return nil
			}

			fmt.Fprint(cmd.ErrOrStderr(), "Feed password: ")

			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}

			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				return errors.New("password is empty")
			}

			if err = credential.Set(credential.FeedPasswordKey, password); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Password stored")

			return nil
		},
	}

	cmd.Flags().Bool("forget", false, "remove the stored password")

	return cmd
}
