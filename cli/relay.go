package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/YasiruR/didcomm-envelope/domain/container"
	"github.com/YasiruR/didcomm-envelope/log"
	"github.com/YasiruR/didcomm-envelope/mailbox"
	"github.com/YasiruR/didcomm-envelope/mailbox/push"
	zmq "github.com/pebbe/zmq4"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func relayCmd(cfg *container.Config) *cobra.Command {
	var addr, publicURL, publish string
	cmd := &cobra.Command{
		Use:   `relay`,
		Short: `Serve mailboxes over http for agents without a public endpoint`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.NewLogger(cfg.Verbose, cfg.LogLevel)
			if publicURL == `` {
				publicURL = `http://` + addr
			}

			box, err := mailbox.NewMemory(strings.TrimRight(publicURL, `/`)+`/mailboxes`, cfg.Compact, logger)
			if err != nil {
				return err
			}
			srv := mailbox.NewServer(box, logger)

			if publish != `` {
				zmqCtx, err := zmq.NewContext()
				if err != nil {
					return fmt.Errorf(`creating zmq context failed - %v`, err)
				}
				// terminates once the publisher socket is closed
				defer func() {
					if err := zmqCtx.Term(); err != nil {
						logger.Error(fmt.Sprintf(`terminating zmq context failed - %v`, err))
					}
				}()

				pub, err := push.NewPublisher(zmqCtx, publish)
				if err != nil {
					return err
				}
				defer pub.Close()
				srv.SetPublisher(pub)
			}

			return serve(cmd.Context(), &http.Server{Addr: addr, Handler: srv}, publicURL)
		},
	}

	cmd.Flags().StringVar(&addr, `addr`, `localhost:8008`, `listen address`)
	cmd.Flags().StringVar(&publicURL, `public-url`, ``, `url agents reach the relay on (defaults to the listen address)`)
	cmd.Flags().StringVar(&publish, `publish`, ``, `zmq endpoint to publish deliveries on (eg: tcp://*:8009)`)
	cmd.Flags().BoolVar(&cfg.Compact, `compact`, false, `compress queued messages`)
	return cmd
}

func serve(ctx context.Context, srv *http.Server, publicURL string) error {
	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()

	fmt.Printf("-> Relay serving mailboxes at %s/mailboxes\n", publicURL)
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf(`shutting down relay failed - %v`, err)
	}
	return nil
}
