package cli

import (
	"fmt"

	"github.com/YasiruR/didcomm-envelope/core/connection"
	"github.com/YasiruR/didcomm-envelope/domain/container"
	"github.com/spf13/cobra"
)

// Builder wires the container for the given config. The returned function
// releases whatever the container holds.
type Builder func(cfg *container.Config) (c *container.Container, shutdown func(), err error)

func NewRootCmd(build Builder) *cobra.Command {
	cfg := container.DefaultConfig()
	root := &cobra.Command{
		Use:          `didcomm-envelope`,
		Short:        `Agent establishing DIDComm connections and chatting through a mailbox relay`,
		SilenceUsage: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&cfg.Label, `label`, ``, `agent's label shown to peers`)
	f.StringVar(&cfg.RelayURL, `relay`, cfg.RelayURL, `base url of the mailbox relay`)
	f.StringVar(&cfg.FeedEndpoint, `feed`, ``, `zmq endpoint of the relay's push feed (polls the relay when empty)`)
	f.StringVar(&cfg.InvitationURL, `invitation-url`, cfg.InvitationURL, `base url of generated invitations`)
	f.DurationVar(&cfg.InviterTimeout, `inviter-timeout`, cfg.InviterTimeout, `time to wait for an exchange request`)
	f.DurationVar(&cfg.InviteeTimeout, `invitee-timeout`, cfg.InviteeTimeout, `time to wait for an exchange response`)
	f.DurationVar(&cfg.ClientTimeout, `client-timeout`, cfg.ClientTimeout, `timeout of a single http request`)
	f.Uint64Var(&cfg.SendRetries, `retries`, 0, `retransmissions of a failed chat message`)
	f.BoolVarP(&cfg.Verbose, `verbose`, `v`, false, `enable logs`)
	f.StringVar(&cfg.LogLevel, `log-level`, cfg.LogLevel, `log level when verbose`)

	root.AddCommand(inviteCmd(cfg, build), acceptCmd(cfg, build), relayCmd(cfg))
	return root
}

func inviteCmd(cfg *container.Config, build Builder) *cobra.Command {
	return &cobra.Command{
		Use:   `invite`,
		Short: `Generate an invitation and chat with the agent accepting it`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, shutdown, err := build(cfg)
			if err != nil {
				return err
			}
			defer shutdown()

			ctx := cmd.Context()
			sess, err := connection.New(c).Invite(ctx, cfg.Label)
			if err != nil {
				return fmt.Errorf(`generating invitation failed - %w`, err)
			}

			fmt.Printf("-> Invitation URL: %s\n-> Waiting for the invitee (%s)\n", sess.URL(), cfg.InviterTimeout)
			conn, err := sess.Await(ctx)
			if err != nil {
				return fmt.Errorf(`connecting with the invitee failed - %w`, err)
			}

			return chat(ctx, c, conn)
		},
	}
}

func acceptCmd(cfg *container.Config, build Builder) *cobra.Command {
	return &cobra.Command{
		Use:   `accept <invitation-url>`,
		Short: `Accept an invitation and chat with the inviter`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, shutdown, err := build(cfg)
			if err != nil {
				return err
			}
			defer shutdown()

			m := connection.New(c)
			defer m.Wait()

			conn, err := m.Accept(cmd.Context(), args[0], cfg.Label)
			if err != nil {
				return fmt.Errorf(`accepting invitation failed - %w`, err)
			}

			return chat(cmd.Context(), c, conn)
		},
	}
}
