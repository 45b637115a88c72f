package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"

	"github.com/launchdarkly/test-scaffold/framework"
	"github.com/launchdarkly/test-scaffold/stubapi"
)

const shutdownTimeout = 5 * time.Second

var stubServerCmd = &cobra.Command{
	Use:   "stub-server",
	Short: "Start an in-memory stub of the service",
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		email, _ := cmd.Flags().GetString("account-email")
		password, _ := cmd.Flags().GetString("account-password")

		loggers := ldlog.NewDefaultLoggers()
		stub := stubapi.New(framework.NewLoggersAdapter(loggers, ldlog.Info))
		if email != "" {
			id := stub.AddAccount(email, password)
			loggers.Infof("Created account %s for %s", id, email)
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           stub.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		serverErrors := make(chan error, 1)
		go func() {
			loggers.Infof("Stub service listening on %s", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return err
		case sig := <-shutdown:
			loggers.Infof("Shutting down (%s)", sig)
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				_ = srv.Close()
				return err
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(stubServerCmd)
	stubServerCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	stubServerCmd.Flags().String("account-email", "", "create an account with this email at startup")
	stubServerCmd.Flags().String("account-password", "", "password of the startup account")
}
