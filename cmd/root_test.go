package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subcommandNames(c *cobra.Command) map[string]bool {
	names := make(map[string]bool)
	for _, sub := range c.Commands() {
		names[sub.Name()] = true
	}
	return names
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := subcommandNames(rootCmd)

	expected := []string{
		"regions", "alerts", "jobs", "analyze", "heatmap",
		"stats", "health", "cost", "logs", "executions", "metrics", "visualizations",
		"watch", "serve",
	}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "forestshield", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCommand_OutputFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("output")
	require.NotNil(t, flag, "root command should have --output flag")
	assert.Equal(t, "table", flag.DefValue)
	assert.Equal(t, "o", flag.Shorthand)
}

func TestRegionsCommand_HasSubcommands(t *testing.T) {
	names := subcommandNames(regionsCmd)
	for _, name := range []string{"list", "get", "create", "update", "delete", "drag", "export"} {
		assert.True(t, names[name], "regions should have subcommand %q", name)
	}
}

func TestAlertsCommand_HasSubcommands(t *testing.T) {
	names := subcommandNames(alertsCmd)
	for _, name := range []string{"list", "ack", "export", "subscribe", "unsubscribe", "subscriptions"} {
		assert.True(t, names[name], "alerts should have subcommand %q", name)
	}
}

func TestRegionsCreateCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"name", "description", "lat", "lng", "radius-km", "cloud-cover"} {
		flag := regionsCreateCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "regions create should have --%s flag", flagName)
	}
	assert.Equal(t, "10", regionsCreateCmd.Flags().Lookup("radius-km").DefValue)
	assert.Equal(t, "20", regionsCreateCmd.Flags().Lookup("cloud-cover").DefValue)
}

func TestRegionsDeleteCommand_Flags(t *testing.T) {
	flag := regionsDeleteCmd.Flags().Lookup("yes")
	require.NotNil(t, flag, "regions delete should have --yes flag")
	assert.Equal(t, "false", flag.DefValue)
	assert.Equal(t, "y", flag.Shorthand)
}

func TestRegionsDragCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"from", "to"} {
		assert.NotNil(t, regionsDragCmd.Flags().Lookup(flagName), "regions drag should have --%s flag", flagName)
	}
}

func TestRegionsExportCommand_Flags(t *testing.T) {
	flag := regionsExportCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "geojson", flag.DefValue)
}

func TestAlertsListCommand_Flags(t *testing.T) {
	flag := alertsListCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "50", flag.DefValue)

	for _, flagName := range []string{"level", "acknowledged"} {
		assert.NotNil(t, alertsListCmd.Flags().Lookup(flagName), "alerts list should have --%s flag", flagName)
	}
}

func TestCostCommand_Flags(t *testing.T) {
	flag := costCmd.Flags().Lookup("days")
	require.NotNil(t, flag)
	assert.Equal(t, "30", flag.DefValue)
	assert.NotNil(t, costCmd.Flags().Lookup("xlsx"))
}

func TestLogsCommand_Flags(t *testing.T) {
	flag := logsCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "100", flag.DefValue)
}

func TestWatchCommand_Flags(t *testing.T) {
	flag := watchCmd.Flags().Lookup("every")
	require.NotNil(t, flag)
	assert.Equal(t, "10s", flag.DefValue)
	assert.NotNil(t, watchCmd.Flags().Lookup("panels"))
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}
