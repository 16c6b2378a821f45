package cli

import (
	"github.com/spf13/cobra"
)

// NewPublicationCmd создаёт группу команд для инспекции публикаций.
func NewPublicationCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publication",
		Short: "Inspect publications",
	}

	cmd.AddCommand(
		newPublicationShowCmd(clientFn, outputFn),
		newPublicationPostsCmd(clientFn, outputFn),
	)

	return cmd
}

func newPublicationShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show publication details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			pub, err := client.GetPublication(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "STATUS", "SCHEDULED_AT", "EFFECTIVE_AT", "CREATED"},
				[][]string{{pub.ID, pub.Status, pub.ScheduledAt, pub.EffectiveAt, pub.CreatedAt}},
				pub,
			)
			return nil
		},
	}
}

func newPublicationPostsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "posts PUBLICATION_ID",
		Short: "List posts of a publication",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			posts, err := client.ListPosts(args[0])
			if err != nil {
				return err
			}

			headers := []string{"ID", "CHANNEL_ID", "STATUS", "SCHEDULED_AT", "PUBLISHED_AT", "ERROR"}
			rows := make([][]string, len(posts))
			for i, p := range posts {
				rows[i] = []string{p.ID, p.ChannelID, p.Status, p.ScheduledAt, p.PublishedAt, p.Error}
			}

			out.Print(headers, rows, posts)
			return nil
		},
	}
}
