package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/njprem/umrah_marketplace_client/internal/config"
	"github.com/njprem/umrah_marketplace_client/internal/domain"
	"github.com/njprem/umrah_marketplace_client/internal/logging"
	"github.com/njprem/umrah_marketplace_client/internal/repository/api"
	"github.com/njprem/umrah_marketplace_client/internal/service"
)

type appKey struct{}

func main() {
	cfg := config.Load()
	closer := logging.Setup(cfg)
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(cfg)
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		closer.Close()
		exitf("Error: %v", err)
	}
}

func newRootCmd(cfg config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "favsync",
		Short: "Manage marketplace tour favorites from the command line",
		Long: `favsync drives the favorites client against the marketplace API.

Without a session the favorites live in local storage. With SESSION_TOKEN or
SESSION_TOKEN_FILE set they live on the server, and local favorites are
migrated on the first signed-in run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return appFrom(cmd).Close()
		},
	}

	root.AddCommand(
		newListCmd(),
		newMutateCmd("add", "Mark a tour as favorite", func(ctx context.Context, a *app, id domain.TourID) error {
			return a.favorites.Add(ctx, id)
		}),
		newMutateCmd("remove", "Remove a tour from favorites", func(ctx context.Context, a *app, id domain.TourID) error {
			return a.favorites.Remove(ctx, id)
		}),
		newMutateCmd("toggle", "Flip a tour's favorite state", func(ctx context.Context, a *app, id domain.TourID) error {
			_, err := a.favorites.Toggle(ctx, id)
			return err
		}),
		newSyncCmd(),
		newFlagsCmd(),
		newWatchCmd(),
	)
	return root
}

func appFrom(cmd *cobra.Command) *app {
	return cmd.Context().Value(appKey{}).(*app)
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List favorite tours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := a.session(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}
			printFavorites(cmd.OutOrStdout(), a.favorites.Source(), a.favorites.List())
			return nil
		},
	}
}

func newMutateCmd(use, short string, fn func(context.Context, *app, domain.TourID) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " TOUR_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTourID(args[0])
			if err != nil {
				return err
			}
			a := appFrom(cmd)
			if err := a.session(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}
			if err := fn(cmd.Context(), a, id); err != nil {
				if errors.Is(err, api.ErrUnauthorized) {
					return fmt.Errorf("%w: sign in again", err)
				}
				return err
			}
			state := "not a favorite"
			if a.favorites.IsFavorite(id) {
				state = "favorite"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tour %d: %s (%d total)\n", id, state, a.favorites.Count())
			return nil
		},
	}
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Apply the current session and migrate local favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if a.auth.Current() == nil {
				return errors.New("no session: set SESSION_TOKEN or SESSION_TOKEN_FILE")
			}
			if err := a.session(cmd.Context()); err != nil {
				return err
			}
			printFavorites(cmd.OutOrStdout(), a.favorites.Source(), a.favorites.List())
			return nil
		},
	}
}

func newFlagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flags",
		Short: "Show feature flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := a.flags.Refresh(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}
			flags := a.flags.All(cmd.Context())
			keys := make([]string, 0, len(flags))
			for k := range flags {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%t\n", k, flags[k])
			}
			return nil
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the session file and print favorites on every change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			out := cmd.OutOrStdout()
			a.favorites.OnChange(func(ids []domain.TourID) {
				printFavorites(out, a.favorites.Source(), ids)
			})

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			errs := make(chan error, 2)
			go func() { errs <- a.favorites.Start(ctx) }()
			if a.watcher != nil {
				go func() { errs <- a.watcher.Run(ctx) }()
			}

			err := <-errs
			cancel()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func parseTourID(raw string) (domain.TourID, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || !domain.TourID(n).Valid() {
		return 0, fmt.Errorf("%w: %q", service.ErrInvalidTourID, raw)
	}
	return domain.TourID(n), nil
}
