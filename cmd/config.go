package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/datalens-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set DataLens configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		for _, key := range cfgpkg.Keys() {
			fmt.Fprintf(out, "%s: %s\n", key, configValue(cfg, key))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if err := c.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func configValue(c *cfgpkg.Global, key string) string {
	switch key {
	case "api_key":
		return mask(c.APIKey)
	case "default_provider":
		return c.DefaultProvider
	case "default_model":
		return c.DefaultModel
	case "ollama_host":
		return c.OllamaHost
	case "http_timeout_sec":
		return strconv.Itoa(c.HTTPTimeoutSec)
	case "retry_max_attempts":
		return strconv.Itoa(c.RetryMaxAttempts)
	case "retry_base_delay_ms":
		return strconv.Itoa(c.RetryBaseDelayMs)
	case "retry_max_delay_ms":
		return strconv.Itoa(c.RetryMaxDelayMs)
	case "type_threshold":
		return fmt.Sprintf("%.3f", c.TypeThreshold)
	case "anomaly_threshold":
		return fmt.Sprintf("%.3f", c.AnomalyThreshold)
	case "anomaly_direction":
		return c.AnomalyDirection
	case "decimal_separator":
		return orAuto(c.DecimalSeparator)
	case "thousands_separator":
		return orAuto(c.ThousandsSeparator)
	case "sample_rows":
		return strconv.Itoa(c.SampleRows)
	case "max_rows":
		return strconv.Itoa(c.MaxRows)
	case "listen_addr":
		return c.ListenAddr
	case "max_upload_bytes":
		return strconv.FormatInt(c.MaxUploadBytes, 10)
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	}
	return ""
}

func orAuto(s string) string {
	if s == "" {
		return "auto"
	}
	return s
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
