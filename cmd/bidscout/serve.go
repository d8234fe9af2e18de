package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/bidscout/bidscout/internal/db"
	"github.com/bidscout/bidscout/internal/web"
)

func serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Start the web UI over run history",
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			handle, closeFn, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			server := web.NewServer(db.NewStore(handle))
			addr := fmt.Sprintf(":%d", port)
			fmt.Printf("Starting UI on http://localhost%s\n", addr)
			return http.ListenAndServe(addr, server.Routes())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	return cmd
}
