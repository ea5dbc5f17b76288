package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/harun/agentic/pkg/client"
)

// printJSON writes data as indented JSON to stdout.
func printJSON(data any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// printExecuteResponse renders a run response for humans, or as JSON when
// --json is set.
func printExecuteResponse(resp *client.ExecuteResponse) error {
	if flagJSON {
		return printJSON(resp)
	}

	if text := resp.Text(); text != "" {
		fmt.Println(text)
	}
	if resp.RunID != "" {
		fmt.Printf("Run ID: %s\n", resp.RunID)
	}
	if resp.Status != "" && resp.Text() == "" {
		fmt.Printf("Status: %s\n", resp.Status)
	}
	if resp.Message != "" {
		fmt.Printf("Message: %s\n", resp.Message)
	}
	if len(resp.Debug) > 0 {
		if flagVerbose {
			fmt.Printf("\nDebug Information:\n%s\n", resp.Debug)
		} else {
			fmt.Println("\n[Debug] Debug information available (use --verbose to see details)")
		}
	}
	return nil
}

// printRunStatus renders a status lookup result.
func printRunStatus(status *client.RunStatus) error {
	if flagJSON {
		return printJSON(status)
	}

	fmt.Printf("Run ID: %s\n", status.RunID)
	fmt.Printf("Status: %s\n", status.Status)
	if len(status.Result) > 0 {
		fmt.Printf("Result:\n%s\n", status.Result)
	}
	if status.Error != nil {
		fmt.Printf("Error: %s (code %d)\n", status.Error.Msg, status.Error.Code)
	}
	return nil
}
