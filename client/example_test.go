package client_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"

	"github.com/adamwoolhether/asynchttp/body"
	"github.com/adamwoolhether/asynchttp/client"
	"github.com/adamwoolhether/asynchttp/config"
)

func ExampleNew() {
	cfg := config.New().
		SetUserAgent("example/1.0").
		SetFollowRedirect(true)

	c, err := client.New(cfg)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer c.Close()

	fmt.Println("client built")
	// Output: client built
}

func ExampleURL() {
	u := client.URL("https", "example.com", "/api/v1",
		client.WithPort(8443),
		client.WithQueryStrings(map[string]string{"key": "value"}),
	)

	fmt.Println(u.String())
	// Output: https://example.com:8443/api/v1?key=value
}

func ExampleRequest() {
	type payload struct {
		Name string `json:"name"`
	}

	u := client.URL("https", "example.com", "/users")

	req, err := client.Request(context.Background(), u, http.MethodPost,
		client.WithPayload(payload{Name: "alice"}),
		client.WithHeaders(map[string][]string{"X-Request-ID": {"abc123"}}),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(req.Method, req.URL.Path, req.Header.Get("Content-Type"))
	// Output: POST /users application/json
}

func ExampleClient_Do() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok"}`)
	}))
	defer ts.Close()

	c, _ := client.New(config.New())
	defer c.Close()

	u, _ := url.Parse(ts.URL)
	req, _ := client.Request(context.Background(), u, http.MethodGet)

	var resp struct{ Status string }
	if _, err := c.Do(req, http.StatusOK, client.WithDestination(&resp)); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(resp.Status)
	// Output: ok
}

// countingHandler reports how many parts a body arrived in.
type countingHandler struct {
	parts int
	bytes int
}

func (h *countingHandler) OnStatus(*http.Response) client.State { return client.Continue }

func (h *countingHandler) OnBodyPart(p *body.Part) client.State {
	h.parts++
	h.bytes += p.Len()
	return client.Continue
}

func (h *countingHandler) OnCompleted() error {
	fmt.Println("parts:", h.parts, "bytes:", h.bytes)
	return nil
}

func (h *countingHandler) OnError(err error) { fmt.Println("error:", err) }

func ExampleClient_Execute() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(10))
		fmt.Fprint(w, "0123456789")
	}))
	defer ts.Close()

	c, _ := client.New(config.New(), client.WithChunkSize(4))
	defer c.Close()

	u, _ := url.Parse(ts.URL)
	req, _ := client.Request(context.Background(), u, http.MethodGet)

	f, err := c.Execute(req, &countingHandler{})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if err := f.Get(context.Background()); err != nil {
		fmt.Println("error:", err)
	}
	// Output: parts: 3 bytes: 10
}
