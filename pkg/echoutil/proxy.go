package echoutil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	kio "github.com/foodgram/edge/pkg/io"
)

// Proxy hands the request in c over to the application server at url
// and relays the response back.
//
// The inbound Host header is kept on the forwarded request, so the
// application server sees the name the client used (Django needs it for
// ALLOWED_HOSTS and absolute-URL building).
//
// When the application server is unreachable, the client gets 502.
// The gateway does not retry.
func Proxy(cp *echo.Context, url string) error {
	c := *cp

	req, err := createRequestForBackend(c.Request().Context(), url, cp)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return err
	}

	resp, err := sendRequestToBackend(req)
	if err != nil {
		c.String(http.StatusBadGateway, "application server is not reachable")
		return err
	}
	defer resp.Body.Close()

	if err := CopyResponse(cp, resp); err != nil {
		return err
	}

	return nil
}

func sendRequestToBackend(req *http.Request) (*http.Response, error) {
	client := &http.Client{
		CheckRedirect: nil,
	}
	return client.Do(req)
}

func createRequestForBackend(ctx context.Context, url string, cp *echo.Context) (*http.Request, error) {
	c := *cp
	req, err := http.NewRequestWithContext(ctx, c.Request().Method, url, c.Request().Body)
	if err != nil {
		return nil, err
	}

	CopyHeader(&req.Header, &c.Request().Header)

	// net/http takes Host from the URL unless told otherwise.
	req.Host = c.Request().Host

	req.Body = c.Request().Body
	if c.Request().Trailer != nil {
		req.Trailer = http.Header{}
		for k, vs := range c.Request().Trailer {
			for _, v := range vs {
				req.Trailer.Add(k, v)
			}
		}
	}

	return req, nil
}

func CopyHeader(dest *http.Header, src *http.Header, except ...string) {
	// convert []string to set
	exc := map[string]interface{}{}

	for _, x := range except {
		exc[strings.ToLower(x)] = nil
	}

	for k, vs := range *src {
		if _, ok := exc[strings.ToLower(k)]; ok {
			// this header marked not to be copied
			continue
		}
		for _, v := range vs {
			dest.Add(k, v)
		}
	}
}

func CopyResponse(cp *echo.Context, resp *http.Response) error {
	c := *cp
	ctx := c.Request().Context()

	dstResp := c.Response()
	dstHeader := dstResp.Header()

	// the gateway does not advertise what runs behind it.
	CopyHeader(&dstHeader, &resp.Header, "server")

	// copy hop-by-hop header
	chunked := false
	for _, te := range resp.TransferEncoding {
		dstHeader.Add("Transfer-Encoding", te)
		if strings.ToLower(te) == "chunked" {
			chunked = true
		}
	}
	for trailer := range resp.Trailer {
		dstHeader.Add("Trailer", trailer)
	}

	dstResp.WriteHeader(resp.StatusCode)

	src := kio.NewTriggerReader(resp.Body)
	src.OnEnd(func() {
		trailer := c.Response().Header()
		for k, vs := range resp.Trailer {
			for _, v := range vs {
				trailer.Add(k, v)
			}
		}
	})
	if !chunked {
		_, err := io.Copy(dstResp.Writer, src)
		return err
	}

	buf := make([]byte, 1024*1024)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := src.Read(buf)
		if err != nil {
			dstResp.Flush()
			if errors.Is(err, io.EOF) {
				_, err := dstResp.Write(buf[:n])
				return err
			}
			return err
		}
		if n == 0 {
			continue
		}

		if _, err := dstResp.Write(buf[:n]); err != nil {
			return err
		}
		dstResp.Flush()
	}
}
