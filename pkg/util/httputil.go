package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// NewHTTPRequest performs an http call and returns the response status and
// body. The context bounds the whole round trip.
func NewHTTPRequest(
	ctx context.Context, method string, url string, bodyString string,
	header map[string]string,
) (int, string, error) {
	switch method {
	case "GET":
		return get(ctx, url, header)
	case "POST":
		return post(ctx, url, bodyString, header)
	default:
		return 0, "", fmt.Errorf("verb not supported %s", method)
	}
}

func get(
	ctx context.Context, url string, header map[string]string,
) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, "", err
	}

	for key, value := range header {
		req.Header.Set(key, value)
	}

	rs, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer rs.Body.Close()

	bodyBytes, err := io.ReadAll(rs.Body)
	if err != nil {
		return 0, "", err
	}

	return rs.StatusCode, string(bodyBytes), nil
}

func post(
	ctx context.Context, url string, bodyString string,
	header map[string]string,
) (int, string, error) {
	body := strings.NewReader(bodyString)
	req, err := http.NewRequestWithContext(ctx, "POST", url, body)
	if err != nil {
		return 0, "", err
	}

	for key, value := range header {
		req.Header.Set(key, value)
	}

	rs, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer rs.Body.Close()

	bodyBytes, err := io.ReadAll(rs.Body)
	if err != nil {
		return 0, "", err
	}

	return rs.StatusCode, string(bodyBytes), nil
}
