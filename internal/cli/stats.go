package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	statsCmd.Flags().StringVar(&statsAddr, "addr", "127.0.0.1:7861", "Address of a running rasterq daemon")
	rootCmd.AddCommand(statsCmd)
}

var statsAddr string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Query a running rasterq daemon's /stats endpoint",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(fmt.Sprintf("http://%s/stats", statsAddr))
	if err != nil {
		return fmt.Errorf("query %s: %w", statsAddr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %s", resp.Status)
	}

	var stats map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	for _, key := range []string{"policy", "queue_depth", "queue_empty", "top_bin", "top_resolution", "retry_depth", "lifetime_emitted"} {
		if v, ok := stats[key]; ok {
			fmt.Printf("%-18s %v\n", key+":", v)
		}
	}
	return nil
}
