package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/YasiruR/didcomm-envelope/core/messenger"
	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/container"
	"github.com/YasiruR/didcomm-envelope/domain/messages"
	"github.com/YasiruR/didcomm-envelope/domain/models"
	"github.com/YasiruR/didcomm-envelope/transport"
	"golang.org/x/sync/errgroup"
)

const (
	exitCmd       = `/exit`
	featuresCmd   = `/features`
	retryInterval = time.Second
)

// chat sends every line read from stdin to the peer and prints incoming
// messages until the exit command is entered
func chat(ctx context.Context, c *container.Container, conn models.Connection) error {
	// handshake messages are never retransmitted but chat messages may be
	mc := *c
	if c.Cfg.SendRetries > 0 {
		mc.Client = transport.NewRetrying(c.Client, c.Cfg.SendRetries, retryInterval, c.Log)
	}

	msgr := messenger.New(&mc)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	inbound, err := msgr.Listen(ctx, conn.Metadata[domain.MetaMailbox])
	if err != nil {
		return err
	}

	fmt.Printf("-> Connected to %s (%s)\n   Enter a message to send it, %s [query] to list the peer's protocols or %s to quit\n",
		conn.Label, conn.TheirDID, featuresCmd, exitCmd)

	g := &errgroup.Group{}
	g.Go(func() error {
		for in := range inbound {
			handleReceived(ctx, msgr, conn, in)
		}
		return nil
	})

	g.Go(func() error {
		defer cancel()
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			text := strings.TrimSpace(scanner.Text())
			switch {
			case text == ``:
				continue
			case text == exitCmd:
				return nil
			case strings.HasPrefix(text, featuresCmd):
				query := strings.TrimSpace(strings.TrimPrefix(text, featuresCmd))
				if query == `` {
					query = `*`
				}
				if _, err := msgr.Discover(ctx, conn, query); err != nil {
					fmt.Printf("   Error: querying features failed - %v\n", err)
				}
				continue
			}

			if _, err := msgr.Send(ctx, conn, text); err != nil {
				fmt.Printf("   Error: sending message failed - %v\n", err)
			}
		}
		return scanner.Err()
	})

	return g.Wait()
}

func handleReceived(ctx context.Context, msgr *messenger.Messenger, conn models.Connection, in messenger.Received) {
	// copies of sent messages
	if in.Sender == conn.Metadata[domain.MetaMyVerkey] {
		return
	}

	switch msg := in.Message.(type) {
	case messages.BasicMessage:
		fmt.Printf("-> [%s] %s: %s\n", messages.FormatTime(msg.SentTime.Time), conn.Label, msg.Content)
	case messages.Ack:
		fmt.Printf("-> %s acknowledged the connection\n", conn.Label)
	case messages.Query:
		if err := msgr.Disclose(ctx, conn, msg); err != nil {
			fmt.Printf("   Error: disclosing features failed - %v\n", err)
		}
	case messages.Disclose:
		fmt.Printf("-> %s supports %d matching protocols\n", conn.Label, len(msg.Protocols))
		for _, p := range msg.Protocols {
			fmt.Printf("\t- %s %v\n", p.PId, p.Roles)
		}
	default:
		fmt.Printf("-> Received %s message (%s)\n", msg.Kind(), msg.Head().Id)
	}
}
