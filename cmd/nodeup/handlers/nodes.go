package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
)

// NodesList handles the nodes list command.
func NodesList(ctx context.Context, configPath string, jsonOutput bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	nodes, err := panelClient(cfg).ListNodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list nodes: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(nodes)
	}

	if len(nodes) == 0 {
		fmt.Println("No nodes registered.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tADDRESS\tPORT\tAPI PORT\tSTATUS")
	for _, n := range nodes {
		status := "inactive"
		if n.Connected() {
			status = "active"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n", n.ID, n.Name, n.Address, n.Port, n.APIPort, status)
	}
	return w.Flush()
}

// NodesDelete handles the nodes delete command.
func NodesDelete(ctx context.Context, configPath string, nodeID int64) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if err := panelClient(cfg).DeleteNode(ctx, nodeID); err != nil {
		return fmt.Errorf("failed to delete node %d: %w", nodeID, err)
	}

	fmt.Printf("Node %d deleted.\n", nodeID)
	return nil
}
