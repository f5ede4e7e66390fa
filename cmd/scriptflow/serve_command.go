package main

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/smallnest/scriptflow/api"
	"github.com/smallnest/scriptflow/pipeline"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scriptwriting sessions over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if b := strings.TrimSpace(bind); b != "" {
				cfg.Server.Bind = b
			}
			logger := ctx.logger(cfg)

			gen, err := ctx.newGenerator(cfg)
			if err != nil {
				return err
			}
			archive, err := ctx.newStore(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer archive.Close()

			ctrlOpts, err := ctx.controllerOptions(cfg, logger.Named("pipeline"), archive)
			if err != nil {
				return err
			}
			extractor := ctx.newExtractor(cfg)
			factory := func() (*pipeline.Controller, error) {
				return pipeline.NewController(gen, extractor, ctrlOpts...)
			}

			if cfg.Server.Debug {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}
			srv, err := api.NewServer(factory,
				api.WithStore(archive),
				api.WithLogger(logger.Named("api")),
				api.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
			)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scriptflow listening on http://%s (store: %s)\n", cfg.Server.Bind, cfg.Store.Backend)
			return srv.Run(cmd.Context(), cfg.Server.Bind)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Address to listen on (overrides server.bind)")
	return cmd
}
