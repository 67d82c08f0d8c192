package asynchttp_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"time"

	"github.com/adamwoolhether/asynchttp"
	"github.com/adamwoolhether/asynchttp/client"
	"github.com/adamwoolhether/asynchttp/filter"
)

func ExampleNewClient() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"msg":"hello"}`)
	}))
	defer ts.Close()

	cfg := asynchttp.NewConfig().
		SetRequestTimeout(5 * time.Second).
		AddRequestFilter(filter.NewRequestID(""))

	c, err := asynchttp.NewClient(cfg)
	if err != nil {
		fmt.Println("build error:", err)
		return
	}
	defer c.Close()

	u, _ := url.Parse(ts.URL)

	req, err := client.Request(context.Background(), u, http.MethodGet)
	if err != nil {
		fmt.Println("request error:", err)
		return
	}

	var resp struct{ Msg string }
	if _, err := c.Do(req, http.StatusOK, client.WithDestination(&resp)); err != nil {
		fmt.Println("do error:", err)
		return
	}

	fmt.Println(resp.Msg)
	// Output: hello
}
