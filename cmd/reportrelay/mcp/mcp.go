package mcpcmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/reportrelay/cmd/reportrelay/config"
	"github.com/papercomputeco/reportrelay/pkg/logger"
	"github.com/papercomputeco/reportrelay/pkg/upstream"
	"github.com/papercomputeco/reportrelay/relay"
)

const mcpLongDesc string = `Serve report generation as MCP tools over stdio.

Two tools are exposed:
  text_report   {"prompt": "..."}
  image_report  {"images": ["<base64 jpeg>", ...]}

Both return the report JSON produced by the upstream AI API. Logs go
to stderr so stdout stays reserved for the protocol.

Example MCP client entry:
  {"command": "reportrelay", "args": ["mcp"], "env": {"AI_API_KEY": "..."}}`

const mcpShortDesc string = "Serve report tools over MCP (stdio)"

const serverName = "reportrelay"

// version is reported to MCP clients.
var version = "dev"

type mcpCommander struct{}

type textReportInput struct {
	Prompt string `json:"prompt" jsonschema:"what the report should cover, e.g. pasted article or OCR text"`
}

type imageReportInput struct {
	Images []string `json:"images" jsonschema:"base64 encoded JPEG images to analyze"`
}

func NewMCPCmd() *cobra.Command {
	cmder := &mcpCommander{}

	return &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}
}

func (c *mcpCommander) run(ctx context.Context, cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New(os.Stderr, debug || cfg.Debug)
	defer log.Sync()

	client := upstream.NewClient(cfg.Relay().Upstream, log)
	server, err := NewServer(relay.NewGenerator(client, log), log)
	if err != nil {
		return err
	}

	log.Info("serving MCP over stdio", zap.String("upstream", cfg.Upstream.URL))
	return server.Run(ctx, &mcp.StdioTransport{})
}

// NewServer builds an MCP server whose tools run gen.
func NewServer(gen *relay.Generator, log *zap.Logger) (*mcp.Server, error) {
	textKind, err := relay.NewTextKind()
	if err != nil {
		return nil, err
	}
	imageKind, err := relay.NewImageKind()
	if err != nil {
		return nil, err
	}

	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "text_report",
		Description: "Generate a structured automotive analysis report (JSON) from text.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in textReportInput) (*mcp.CallToolResult, any, error) {
		return generate(ctx, gen, log, textKind, in)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "image_report",
		Description: "Generate a structured automotive analysis report (JSON) from images.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in imageReportInput) (*mcp.CallToolResult, any, error) {
		return generate(ctx, gen, log, imageKind, in)
	})

	return server, nil
}

func generate(ctx context.Context, gen *relay.Generator, log *zap.Logger, kind relay.Kind, in any) (*mcp.CallToolResult, any, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal tool input: %w", err)
	}

	out, err := gen.Generate(ctx, kind, body)
	var inputErr *relay.InputError
	if errors.As(err, &inputErr) {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: inputErr.Message}},
		}, nil, nil
	}
	if err != nil {
		log.Error("report generation failed", zap.String("kind", kind.Name), zap.Error(err))
		return nil, nil, err
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: out}},
	}, nil, nil
}
