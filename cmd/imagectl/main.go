// Command imagectl runs gateway operations against the configured store and
// mints API tokens.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/radif/imagehub/internal/auth"
	"github.com/radif/imagehub/internal/config"
	"github.com/radif/imagehub/internal/filex"
	"github.com/radif/imagehub/internal/gateway"
	"github.com/radif/imagehub/internal/logging"
	"github.com/radif/imagehub/internal/storage"
)

func main() {
	slog.SetDefault(logging.New(logging.Options{Level: "error", Output: os.Stderr}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd(config.Load(), os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config, out io.Writer) *cobra.Command {
	var container string
	var verbose bool

	root := &cobra.Command{
		Use:          "imagectl",
		Short:        "Manage images in the configured object store",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&container, "container", "c", cfg.Storage.DefaultContainer, "container name")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log gateway activity to stderr")

	newGateway := func() *gateway.Gateway {
		level := "error"
		if verbose {
			level = "debug"
		}
		log := logging.New(logging.Options{Level: level, Output: os.Stderr})
		return gateway.New(storage.NewConnector(cfg.Storage),
			gateway.WithLogger(log),
			gateway.WithDefaultMaxResults(cfg.Storage.ListMaxResults))
	}

	root.AddCommand(
		uploadCmd(newGateway, &container, out),
		listCmd(newGateway, &container, out),
		deleteCmd(newGateway, &container, out),
		tokenCmd(cfg, out),
	)
	return root
}

func uploadCmd(newGateway func() *gateway.Gateway, container *string, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload files in order and print their URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw := newGateway()
			for _, path := range args {
				f, err := filex.ReadFile(path)
				if err != nil {
					return err
				}
				res := gw.Upload(cmd.Context(), f.Data, f.Name, f.ContentType, *container)
				if err := writeResult(out, res); err != nil {
					return err
				}
				if !res.Success {
					return res.Err()
				}
			}
			return nil
		},
	}
}

func listCmd(newGateway func() *gateway.Gateway, container *string, out io.Writer) *cobra.Command {
	var max int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List images in the container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res := newGateway().List(cmd.Context(), *container, max)
			if err := writeResult(out, res); err != nil {
				return err
			}
			return res.Err()
		},
	}
	cmd.Flags().IntVarP(&max, "max", "n", 0, "maximum objects to enumerate (0 uses LIST_MAX_RESULTS)")
	return cmd
}

func deleteCmd(newGateway func() *gateway.Gateway, container *string, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "delete URL",
		Short: "Delete the image at URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := newGateway().Delete(cmd.Context(), args[0], *container)
			if err := writeResult(out, res); err != nil {
				return err
			}
			return res.Err()
		},
	}
}

func tokenCmd(cfg *config.Config, out io.Writer) *cobra.Command {
	var subject string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the upload and delete endpoints",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			tok, err := auth.IssueToken(cfg.JWTSecret, subject, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, tok)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "imagectl", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTTL, "token lifetime")
	return cmd
}

func writeResult(out io.Writer, res gateway.Result) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
