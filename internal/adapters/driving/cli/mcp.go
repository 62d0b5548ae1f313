package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/rmraya/swordfish-core/internal/adapters/driving/mcp"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
	"github.com/rmraya/swordfish-core/internal/logger"
)

var (
	mcpPort     int
	mcpMemory   string
	mcpGlossary string
	mcpWatch    bool
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve <document>",
	Short: "Serve a document over MCP",
	Long: `Start a Model Context Protocol server over the segment store of a
document, so that an assistant can query, translate and confirm segments.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Memories and glossaries given with --memory and --glossary are loaded at
start under their file base names. With --watch they are reloaded when
the files change.

Examples:
  # Stdio mode
  swordfish mcp serve manual.xlf --memory project.tsv

  # HTTP mode
  swordfish mcp serve manual.xlf --port 8080`,
	Args: cobra.ExactArgs(1),
	RunE: runMCPServe,
}

func init() {
	f := mcpServeCmd.Flags()
	f.IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	f.StringVar(&mcpMemory, "memory", "", "tab-separated memory file to open")
	f.StringVar(&mcpGlossary, "glossary", "", "tab-separated glossary file to open")
	f.BoolVar(&mcpWatch, "watch", false, "reload memory and glossary files when they change")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, args []string) error {
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		memory, glossary, err := loadEngines(store, mcpMemory, mcpGlossary)
		if err != nil {
			return err
		}

		server, err := mcp.NewServer(&mcp.Ports{Segments: store, Tasks: taskService})
		if err != nil {
			return err
		}

		if mcpWatch {
			engines := map[string]string{}
			if memory != "" {
				engines[mcpMemory] = memory
			}
			if glossary != "" {
				engines[mcpGlossary] = glossary
			}
			stop, err := watchEngines(ctx, store, engines)
			if err != nil {
				return err
			}
			defer stop()
		}

		if mcpPort > 0 {
			addr := fmt.Sprintf(":%d", mcpPort)
			cmd.Printf("MCP server listening on http://localhost%s\n", addr)
			return server.RunHTTP(ctx, addr)
		}
		return server.Run(ctx)
	})
}

// watchEngines reloads each engine file, keyed by path, when it is written
// or replaced. The returned func stops the watcher.
func watchEngines(ctx context.Context, store driving.SegmentService, engines map[string]string) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	// Watch directories so that editors which replace files are seen.
	byName := make(map[string]string, len(engines))
	for path, id := range engines {
		abs, err := filepath.Abs(path)
		if err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("resolving %s: %w", path, err)
		}
		byName[abs] = id
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("watching %s: %w", path, err)
		}
	}

	src, tgt := store.Languages()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				id, tracked := byName[event.Name]
				if !tracked || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					continue
				}
				if err := loadEngine(id, event.Name, src, tgt); err != nil {
					logger.Warn("Reloading %s: %v", event.Name, err)
					continue
				}
				logger.Info("Reloaded %s", event.Name)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)
			}
		}
	}()

	return func() {
		_ = watcher.Close()
		<-done
	}, nil
}
