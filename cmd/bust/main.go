package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/torfstack/bust/internal/config"
	"github.com/torfstack/bust/internal/logging"
	"github.com/torfstack/bust/internal/service"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:           "bust",
		Short:         "Cache-busting for static assets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var (
		debug      bool
		configPath string
	)
	rootCmd.PersistentFlags().
		BoolVarP(&debug, "debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the config file")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.SetDebug(debug)
	}

	newService := func() (*service.Service, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		return service.NewService(cfg), nil
	}

	var buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Rename assets and rewrite references to them",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService()
			if err != nil {
				return err
			}
			res, err := srv.Build(cmd.Context())
			if err != nil {
				return err
			}
			if len(res.Warnings) > 0 {
				fmt.Printf("%d files could not be processed\n", len(res.Warnings))
			}
			return nil
		},
	}

	var watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Build and rebuild on every change of the source directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService()
			if err != nil {
				return err
			}
			return srv.Watch(cmd.Context())
		},
	}

	var manifestCmd = &cobra.Command{
		Use:   "manifest",
		Short: "Print the mappings of the latest build",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService()
			if err != nil {
				return err
			}
			run, err := srv.LatestRun(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Run %s (%s, production=%t) at %s\n", run.ID, run.HashType, run.Production, run.CreatedAt.Format("2006-01-02 15:04:05"))
			keys := make([]string, 0, len(run.Mappings))
			for k := range run.Mappings {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			for _, k := range keys {
				fmt.Printf("%s -> %s\n", k, run.Mappings[k])
			}
			return nil
		},
	}

	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Create a config file interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Init(configPath); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", configPath)
			return nil
		},
	}

	rootCmd.AddCommand(buildCmd, watchCmd, manifestCmd, initCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Error("bust failed", err)
		stop()
		os.Exit(1)
	}
}
