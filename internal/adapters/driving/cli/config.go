package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
	RunE:  runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// secretKeySuffixes mark keys whose values are masked.
var secretKeySuffixes = []string{"secret", "api_key", "access_key", "secret_key", "password", "token"}

func isSecretKey(key string) bool {
	for _, suffix := range secretKeySuffixes {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("configuration not loaded")
	}

	cmd.Printf("# %s\n", configStore.Path())
	keys := configStore.Keys()
	if len(keys) == 0 {
		cmd.Println("# (empty)")
		return nil
	}

	for _, key := range keys {
		val, _ := configStore.Get(key)
		if s, ok := val.(string); ok && isSecretKey(key) {
			val = maskSecret(s)
		}
		cmd.Printf("%s = %s\n", key, formatValue(val))
	}
	return nil
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return fmt.Sprintf("%q", t)
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = formatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []string:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = fmt.Sprintf("%q", item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(t)
	}
}
