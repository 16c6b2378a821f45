package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewPassCmd создаёт группу команд для управления проходами планировщика.
func NewPassCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pass",
		Short: "Manage scheduling passes",
	}

	cmd.AddCommand(
		newPassRunCmd(clientFn, outputFn),
	)

	return cmd
}

func newPassRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Trigger a scheduling pass now",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			pass, err := client.TriggerPass()
			if err != nil {
				return err
			}

			if pass.Skipped {
				out.Success("Pass skipped: " + pass.Reason)
			} else {
				out.Success("Pass completed")
			}

			out.Print(
				[]string{"SKIPPED", "REASON", "EXPIRED_PUBS", "EXPIRED_POSTS", "TRIGGERED"},
				[][]string{{
					strconv.FormatBool(pass.Skipped),
					pass.Reason,
					strconv.Itoa(pass.ExpiredPublications),
					strconv.FormatInt(pass.ExpiredPosts, 10),
					strconv.Itoa(pass.TriggeredPublications),
				}},
				pass,
			)
			return nil
		},
	}
}

// NewHealthCmd создаёт команду проверки доступности сервера.
func NewHealthCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.Health(); err != nil {
				return err
			}

			out.Success("Server is healthy")
			return nil
		},
	}
}
