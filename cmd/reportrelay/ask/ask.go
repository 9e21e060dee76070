package askcmder

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/reportrelay/pkg/llm"
	"github.com/papercomputeco/reportrelay/pkg/report"
	"github.com/papercomputeco/reportrelay/relay"
)

const askLongDesc string = `Request a report from a running reportrelay server.

Pass a prompt as arguments for a text report, or one or more --image
files for an image report. Images that are not JPEG are re-encoded as
JPEG before upload.

The report JSON is printed as-is. With --render (the default when
stdout is a terminal) it is shown as formatted Markdown instead.

Examples:
  reportrelay ask "总结一下这款新能源SUV的核心卖点"
  reportrelay ask --server http://10.0.0.5:8080 -i brochure1.jpg -i brochure2.png
  reportrelay ask --render=false "..." > report.json`

const askShortDesc string = "Request a report from a relay server"

const jpegQuality = 90

type askCommander struct {
	serverURL string
	images    []string
	render    bool
	width     int
	timeout   time.Duration
}

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask [prompt...]",
		Short: askShortDesc,
		Long:  askLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("render") {
				cmder.render = isTerminal(cmd.OutOrStdout())
			}
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().StringVarP(&cmder.serverURL, "server", "s", "http://localhost:8080", "Relay server URL")
	cmd.Flags().StringArrayVarP(&cmder.images, "image", "i", nil, "Image file to include (repeatable)")
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Render the report as Markdown")
	cmd.Flags().IntVar(&cmder.width, "width", 100, "Word wrap width when rendering")
	cmd.Flags().DurationVar(&cmder.timeout, "timeout", 10*time.Minute, "Overall request timeout")

	return cmd
}

func (c *askCommander) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))

	var (
		path    string
		payload any
	)
	switch {
	case prompt != "" && len(c.images) > 0:
		return errors.New("pass either a prompt or --image files, not both")
	case prompt != "":
		path = relay.TextReportPath
		payload = map[string]string{"prompt": prompt}
	case len(c.images) > 0:
		encoded, err := encodeImages(c.images)
		if err != nil {
			return err
		}
		path = relay.ImageReportPath
		payload = map[string][]string{"images": encoded}
	default:
		return errors.New("a prompt or at least one --image is required")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	raw, err := c.post(ctx, strings.TrimRight(c.serverURL, "/")+path, payload)
	if err != nil {
		return err
	}

	if c.render {
		md, err := report.ToMarkdown(raw)
		if err != nil {
			return fmt.Errorf("could not render report: %w", err)
		}
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(c.width))
		if err != nil {
			return fmt.Errorf("could not create renderer: %w", err)
		}
		out, err := r.Render(md)
		if err != nil {
			return fmt.Errorf("could not render report: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		// Not JSON: print what the model produced.
		fmt.Fprintln(cmd.OutOrStdout(), string(raw))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
	return nil
}

func (c *askCommander) post(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp llm.ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("relay returned %d: %s", resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("relay returned %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// encodeImages reads each file and returns base64 JPEG data.
func encodeImages(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("could not read image: %w", err)
		}
		data, err = toJPEG(data)
		if err != nil {
			return nil, fmt.Errorf("could not convert %s to JPEG: %w", p, err)
		}
		out = append(out, base64.StdEncoding.EncodeToString(data))
	}
	return out, nil
}

// toJPEG returns JPEG data unchanged and re-encodes PNG and GIF images.
func toJPEG(data []byte) ([]byte, error) {
	if http.DetectContentType(data) == "image/jpeg" {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
