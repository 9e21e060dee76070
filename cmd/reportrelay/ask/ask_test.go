package askcmder

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/reportrelay/pkg/upstream"
	"github.com/papercomputeco/reportrelay/relay"
)

const sampleReport = `{"template_schema_version":"1.0","reportTitle":"S7 Review","coverImageUrl":"",` +
	`"blocks":[{"type":"divider","content":"Highlights","align":"center","color":"black"},` +
	`{"type":"large","title":"Powertrain","content":["Range extender and BEV variants."]}]}`

var _ = Describe("Ask Command", func() {
	var (
		ctx       context.Context
		tmpDir    string
		mu        sync.Mutex
		payloads  []map[string]any
		upStatus  int
		upContent string
	)

	BeforeEach(func() {
		ctx = context.Background()
		tmpDir = GinkgoT().TempDir()
		payloads = nil
		upStatus = http.StatusOK
		upContent = "```json\n" + sampleReport + "\n```"
	})

	startRelay := func() (string, func()) {
		up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			var p map[string]any
			_ = json.Unmarshal(raw, &p)
			mu.Lock()
			payloads = append(payloads, p)
			mu.Unlock()

			w.WriteHeader(upStatus)
			if upStatus != http.StatusOK {
				_, _ = io.WriteString(w, "upstream down")
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{{
					"message": map[string]any{"role": "assistant", "content": upContent},
				}},
			})
		}))

		srv, err := relay.New(relay.Config{
			ListenAddr: ":0",
			Upstream:   upstream.Config{URL: up.URL, APIKey: "k", Model: "321"},
		}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())

		go func() {
			_ = srv.RunWithListener(listener)
		}()

		addr := "http://" + listener.Addr().String()
		cleanup := func() {
			_ = srv.Shutdown()
			up.Close()
		}
		return addr, cleanup
	}

	runAsk := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := NewAskCmd()
		cmd.SetOut(&out)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(args)
		err := cmd.ExecuteContext(ctx)
		return out.String(), err
	}

	It("prints the report JSON for a prompt", func() {
		addr, cleanup := startRelay()
		defer cleanup()

		out, err := runAsk("--server", addr, "review", "the", "S7")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(MatchJSON(sampleReport))

		Expect(payloads).To(HaveLen(1))
		messages := payloads[0]["messages"].([]any)
		Expect(messages[1].(map[string]any)["content"]).To(Equal("review the S7"))
	})

	It("renders the report as Markdown", func() {
		addr, cleanup := startRelay()
		defer cleanup()

		out, err := runAsk("--server", addr, "--render", "--width", "80", "review")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Review"))
		Expect(out).To(ContainSubstring("Powertrain"))
		Expect(out).NotTo(ContainSubstring(`"blocks"`))
	})

	It("uploads images as JPEG data", func() {
		addr, cleanup := startRelay()
		defer cleanup()

		img := image.NewRGBA(image.Rect(0, 0, 4, 4))
		img.Set(1, 1, color.RGBA{R: 255, A: 255})
		pngPath := filepath.Join(tmpDir, "brochure.png")
		f, err := os.Create(pngPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(png.Encode(f, img)).To(Succeed())
		Expect(f.Close()).To(Succeed())

		_, err = runAsk("--server", addr, "--image", pngPath)
		Expect(err).NotTo(HaveOccurred())

		Expect(payloads).To(HaveLen(1))
		messages := payloads[0]["messages"].([]any)
		parts := messages[0].(map[string]any)["content"].([]any)
		Expect(parts).To(HaveLen(2))

		url := parts[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
		Expect(url).To(HavePrefix("data:image/jpeg;base64,"))

		data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/jpeg;base64,"))
		Expect(err).NotTo(HaveOccurred())
		Expect(http.DetectContentType(data)).To(Equal("image/jpeg"))
	})

	It("surfaces relay errors", func() {
		upStatus = http.StatusBadGateway
		addr, cleanup := startRelay()
		defer cleanup()

		_, err := runAsk("--server", addr, "review")
		Expect(err).To(MatchError(ContainSubstring("relay returned 500")))
		Expect(err).To(MatchError(ContainSubstring("upstream down")))
	})

	It("requires a prompt or images", func() {
		_, err := runAsk()
		Expect(err).To(MatchError(ContainSubstring("required")))
	})

	It("rejects a prompt together with images", func() {
		_, err := runAsk("--image", "a.jpg", "review")
		Expect(err).To(MatchError(ContainSubstring("not both")))
	})
})
