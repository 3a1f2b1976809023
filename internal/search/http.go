package search

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
)

const defaultTimeout = 15 * time.Second

// newHTTPClient 创建 hertz 客户端。使用标准库网络层以支持 HTTPS
func newHTTPClient(timeout time.Duration) (*client.Client, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return client.NewClient(
		client.WithDialer(standard.NewDialer()),
		client.WithTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}),
		client.WithDialTimeout(timeout),
		client.WithClientReadTimeout(timeout),
		client.WithWriteTimeout(timeout),
	)
}

type httpResult struct {
	status int
	body   []byte
	err    error
}

// do 发送请求并返回状态码和响应体副本。
// ctx 的截止时间会传给客户端；ctx 被取消时立即返回，不等待进行中的请求
func do(ctx context.Context, c *client.Client, method, uri string, headers map[string]string, body []byte) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	done := make(chan httpResult, 1)
	go func() {
		req := protocol.AcquireRequest()
		resp := protocol.AcquireResponse()
		defer protocol.ReleaseRequest(req)
		defer protocol.ReleaseResponse(resp)

		req.SetRequestURI(uri)
		req.SetMethod(method)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		if body != nil {
			req.SetBody(body)
		}

		var err error
		if deadline, ok := ctx.Deadline(); ok {
			err = c.DoDeadline(ctx, req, resp, deadline)
		} else {
			err = c.Do(ctx, req, resp)
		}
		if err != nil {
			done <- httpResult{err: err}
			return
		}
		out := make([]byte, len(resp.Body()))
		copy(out, resp.Body())
		done <- httpResult{status: resp.StatusCode(), body: out}
	}()

	select {
	case r := <-done:
		return r.status, r.body, r.err
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}
