package upstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/reportrelay/pkg/llm"
	"github.com/papercomputeco/reportrelay/pkg/upstream"
)

var _ = Describe("Client", func() {
	var (
		ctx      context.Context
		server   *httptest.Server
		status   int
		respBody string
		calls    int
		gotReq   *http.Request
		gotBody  map[string]any
	)

	BeforeEach(func() {
		ctx = context.Background()
		status = http.StatusOK
		respBody = `{"choices":[{"index":0,"message":{"role":"assistant","content":"hello"}}]}`
		calls = 0
		gotBody = nil

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			gotReq = r
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &gotBody)
			w.WriteHeader(status)
			_, _ = io.WriteString(w, respBody)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newClient := func(key string) *upstream.Client {
		return upstream.NewClient(upstream.Config{
			URL:    server.URL,
			APIKey: key,
			Model:  "321",
		}, zap.NewNop())
	}

	request := func() *llm.ChatRequest {
		return &llm.ChatRequest{
			Temperature: 0.7,
			MaxTokens:   8192,
			Messages:    []llm.Message{llm.TextMessage(llm.RoleUser, "hi")},
			Stream:      true,
		}
	}

	It("returns the first choice's content", func() {
		content, err := newClient("secret").Complete(ctx, request())
		Expect(err).NotTo(HaveOccurred())
		Expect(content).To(Equal("hello"))
	})

	It("posts JSON with the configured credential and model", func() {
		_, err := newClient("secret").Complete(ctx, request())
		Expect(err).NotTo(HaveOccurred())

		Expect(gotReq.Method).To(Equal(http.MethodPost))
		Expect(gotReq.Header.Get("Authorization")).To(Equal("secret"))
		Expect(gotReq.Header.Get("Content-Type")).To(Equal("application/json"))
		Expect(gotBody).To(HaveKeyWithValue("model", "321"))
		Expect(gotBody).To(HaveKeyWithValue("max_tokens", float64(8192)))
		Expect(gotBody).To(HaveKeyWithValue("temperature", 0.7))
	})

	It("never streams", func() {
		_, err := newClient("secret").Complete(ctx, request())
		Expect(err).NotTo(HaveOccurred())
		Expect(gotBody).To(HaveKeyWithValue("stream", false))
	})

	It("keeps an explicit model", func() {
		req := request()
		req.Model = "other"
		_, err := newClient("secret").Complete(ctx, req)
		Expect(err).NotTo(HaveOccurred())
		Expect(gotBody).To(HaveKeyWithValue("model", "other"))
	})

	It("reports non-2xx statuses with the body", func() {
		status = http.StatusInternalServerError
		respBody = "boom"

		_, err := newClient("secret").Complete(ctx, request())
		Expect(err).To(HaveOccurred())

		var statusErr *upstream.StatusError
		Expect(errors.As(err, &statusErr)).To(BeTrue())
		Expect(statusErr.StatusCode).To(Equal(500))
		Expect(statusErr.Body).To(Equal("boom"))
		Expect(err.Error()).To(Equal("AI API request failed with status 500: boom"))
	})

	It("accepts any 2xx status", func() {
		status = http.StatusCreated
		content, err := newClient("secret").Complete(ctx, request())
		Expect(err).NotTo(HaveOccurred())
		Expect(content).To(Equal("hello"))
	})

	It("makes a single attempt", func() {
		status = http.StatusServiceUnavailable
		respBody = "overloaded"

		_, err := newClient("secret").Complete(ctx, request())
		Expect(err).To(HaveOccurred())
		Expect(calls).To(Equal(1))
	})

	It("fails when the reply has no choices", func() {
		respBody = `{"choices":[]}`
		_, err := newClient("secret").Complete(ctx, request())
		Expect(err).To(MatchError(upstream.ErrNoContent))
	})

	It("fails when the content is null", func() {
		respBody = `{"choices":[{"message":{"role":"assistant","content":null}}]}`
		_, err := newClient("secret").Complete(ctx, request())
		Expect(err).To(MatchError(upstream.ErrNoContent))
	})

	It("fails on a reply that is not JSON", func() {
		respBody = "<html>gateway</html>"
		_, err := newClient("secret").Complete(ctx, request())
		Expect(err).To(MatchError(ContainSubstring("unmarshal response")))
	})

	It("sends an empty credential rather than failing locally", func() {
		status = http.StatusUnauthorized
		respBody = "missing token"

		_, err := newClient("").Complete(ctx, request())
		Expect(err).To(MatchError(ContainSubstring("401")))
		Expect(gotReq.Header.Get("Authorization")).To(BeEmpty())
	})

	It("honors context cancellation", func() {
		cctx, cancel := context.WithTimeout(ctx, time.Nanosecond)
		defer cancel()
		time.Sleep(time.Millisecond)

		_, err := newClient("secret").Complete(cctx, request())
		Expect(err).To(MatchError(context.DeadlineExceeded))
	})
})
