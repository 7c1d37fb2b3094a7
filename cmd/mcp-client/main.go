package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	flag.Parse()
	args := flag.Args()

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: mcp-client <server-command> [<args>]")
		fmt.Fprintln(os.Stderr, "Example: mcp-client ./devopsmon mcp")
		os.Exit(2)
	}

	ctx := context.Background()

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stderr = os.Stderr
	transport := &mcp.CommandTransport{Command: cmd}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "devopsmon-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer session.Close()

	fmt.Println("Connected to devopsmon MCP server!")
	fmt.Println("Available commands:")
	fmt.Println("  /tools                    - List available tools")
	fmt.Println("  /metrics                  - Read the host live")
	fmt.Println("  /latest                   - Latest stored metrics")
	fmt.Println("  /history <name> [hours]   - Stored readings of one metric")
	fmt.Println("  /logs <group> [lines]     - Collect a log group")
	fmt.Println("  /search <group> <term>    - Search a log group")
	fmt.Println("  /tail <path> [lines]      - Last lines of a file")
	fmt.Println("  /summary [hours]          - Stored log summary")
	fmt.Println("  /alerts                   - Evaluate thresholds now")
	fmt.Println("  /settings                 - Show monitor settings")
	fmt.Println("  /info                     - Host inventory")
	fmt.Println("  /db                       - Application database stats")
	fmt.Println("  /call <tool> <json>       - Call any tool with raw arguments")
	fmt.Println("  /exit                     - Exit the client")
	fmt.Println("  <command line>            - Run an allow-listed command")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		parts := strings.Fields(input)

		switch parts[0] {
		case "/exit":
			fmt.Println("Goodbye!")
			return
		case "/tools":
			listTools(ctx, session)
		case "/metrics":
			callTool(ctx, session, "get_realtime_metrics", nil)
		case "/latest":
			callTool(ctx, session, "get_latest_metrics", nil)
		case "/history":
			a := map[string]any{}
			if len(parts) > 1 {
				a["metric_name"] = parts[1]
			}
			setInt(a, "hours", parts, 2)
			callTool(ctx, session, "get_metrics_history", a)
		case "/logs":
			if len(parts) < 2 {
				fmt.Println("usage: /logs <group> [lines]")
				continue
			}
			a := map[string]any{"group": parts[1]}
			setInt(a, "lines", parts, 2)
			callTool(ctx, session, "collect_logs", a)
		case "/search":
			if len(parts) < 3 {
				fmt.Println("usage: /search <group> <term>")
				continue
			}
			callTool(ctx, session, "search_logs", map[string]any{
				"group": parts[1],
				"term":  strings.Join(parts[2:], " "),
			})
		case "/tail":
			if len(parts) < 2 {
				fmt.Println("usage: /tail <path> [lines]")
				continue
			}
			a := map[string]any{"path": parts[1]}
			setInt(a, "lines", parts, 2)
			callTool(ctx, session, "tail_log", a)
		case "/summary":
			a := map[string]any{}
			setInt(a, "hours", parts, 1)
			callTool(ctx, session, "get_log_summary", a)
		case "/alerts":
			callTool(ctx, session, "evaluate_alerts", nil)
		case "/settings":
			callTool(ctx, session, "get_settings", nil)
		case "/info":
			callTool(ctx, session, "get_system_info", nil)
		case "/db":
			callTool(ctx, session, "get_database_stats", nil)
		case "/call":
			if len(parts) < 2 {
				fmt.Println("usage: /call <tool> [json]")
				continue
			}
			a := map[string]any{}
			if raw := strings.TrimSpace(strings.TrimPrefix(input, "/call "+parts[1])); raw != "" {
				if err := json.Unmarshal([]byte(raw), &a); err != nil {
					fmt.Printf("invalid JSON arguments: %v\n", err)
					continue
				}
			}
			callTool(ctx, session, parts[1], a)
		default:
			callTool(ctx, session, "execute_command", map[string]any{"command": input})
		}
	}

	if err := scanner.Err(); err != nil {
		log.Printf("Scanner error: %v", err)
	}
}

func setInt(a map[string]any, key string, parts []string, idx int) {
	if len(parts) <= idx {
		return
	}
	n, err := strconv.Atoi(parts[idx])
	if err != nil {
		fmt.Printf("ignoring %s: %q is not a number\n", key, parts[idx])
		return
	}
	a[key] = n
}

func listTools(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("Available Tools:")
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			log.Printf("Error listing tools: %v", err)
			return
		}
		fmt.Printf("  - %s: %s\n", tool.Name, tool.Description)
	}
	fmt.Println()
}

func callTool(ctx context.Context, session *mcp.ClientSession, toolName string, args map[string]any) {
	if args == nil {
		args = map[string]any{}
	}
	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		log.Printf("Error calling tool: %v", err)
		return
	}

	printResult(result)
}

func printResult(result *mcp.CallToolResult) {
	if result.IsError {
		fmt.Printf("❌ Error: ")
	} else {
		fmt.Printf("✅ Result: ")
	}

	if result.StructuredContent != nil {
		if out, err := json.MarshalIndent(result.StructuredContent, "", "  "); err == nil {
			fmt.Println(string(out))
			fmt.Println()
			return
		}
	}
	for _, content := range result.Content {
		switch v := content.(type) {
		case *mcp.TextContent:
			fmt.Println(v.Text)
		default:
			jsonData, err := json.MarshalIndent(content, "", "  ")
			if err != nil {
				fmt.Printf("%+v\n", content)
			} else {
				fmt.Println(string(jsonData))
			}
		}
	}
	fmt.Println()
}
