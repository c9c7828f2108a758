package main

import (
	"github.com/spf13/cobra"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Reconcile every resource of the deployment to its declared state.",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := bootstrapApp(cmd.Context())
		if err != nil {
			return err
		}
		return application.Deploy(cmd.Context())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe every resource of the deployment without changing anything.",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := bootstrapApp(cmd.Context())
		if err != nil {
			return err
		}
		return application.Status(cmd.Context())
	},
}

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Delete every resource of the deployment in reverse dependency order.",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := bootstrapApp(cmd.Context())
		if err != nil {
			return err
		}
		return application.Destroy(cmd.Context())
	},
}

var invokeSQL string

var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Run a SQL statement through the gateway's Snowflake tool.",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := bootstrapApp(cmd.Context())
		if err != nil {
			return err
		}
		return application.Invoke(cmd.Context(), invokeSQL)
	},
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the deployed gateway exposes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := bootstrapApp(cmd.Context())
		if err != nil {
			return err
		}
		return application.ListTools(cmd.Context())
	},
}

func init() {
	invokeCmd.Flags().StringVar(&invokeSQL, "sql", "", "SQL statement to execute (defaults to a version check)")
}
