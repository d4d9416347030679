// Command mcpserver is a minimal example of wiring the core library into a
// running server: build a config, construct a server, register one tool,
// and dispatch a single call_tool request through it. The core ships as a
// library; this binary is a usage example, not a production entry point.
package main

import (
	"context"
	"fmt"

	"goa.design/mcpcore/config"
	"goa.design/mcpcore/dispatch"
	"goa.design/mcpcore/schema"
	"goa.design/mcpcore/server"
	"goa.design/mcpcore/telemetry"
)

func main() {
	ctx := context.Background()

	cfg := config.New(
		config.WithName("mcpserver-demo"),
		config.WithVersion("0.1.0"),
		config.WithInstructions("A minimal example MCP server."),
	)

	srv, err := server.New(
		server.WithConfig(cfg),
		server.WithLogger(telemetry.NewClueLogger()),
	)
	if err != nil {
		panic(err)
	}

	err = srv.Tool(ctx, server.ToolSpec{
		Name:        "greet",
		Description: "Greets the caller by name.",
		Params: []schema.Param{
			{Name: "name", Kind: schema.ParamString, Required: true, Description: "Who to greet."},
		},
		Fn: func(_ context.Context, args map[string]any) (any, error) {
			return fmt.Sprintf("Hello, %s!", args["name"]), nil
		},
	})
	if err != nil {
		panic(err)
	}

	release, err := srv.EnterLifespans(ctx)
	if err != nil {
		panic(err)
	}
	defer release(ctx)

	result, _, err := srv.Dispatcher.CallTool(ctx, dispatch.CallToolRequest{
		Name:      "greet",
		Arguments: map[string]any{"name": "world"},
		SessionID: "session-1",
	})
	if err != nil {
		panic(err)
	}
	fmt.Println(result.Content[0].Text)
}
