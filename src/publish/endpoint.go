package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Endpoint accepts package uploads. The HTTP implementation talks to the
// real distribution service; tests substitute their own.
type Endpoint interface {
	// Push uploads one package. The returned error, if any, is a
	// classified *Error so the publisher can decide whether to retry.
	Push(ctx context.Context, job Job, apiKey string, body io.Reader) error
}

// HTTPEndpoint pushes packages to the distribution service REST API.
type HTTPEndpoint struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPEndpoint creates an endpoint client for the given base URL.
func NewHTTPEndpoint(baseURL string) *HTTPEndpoint {
	return &HTTPEndpoint{
		BaseURL: baseURL,
		Client:  http.DefaultClient,
	}
}

// Push uploads one package as multipart form data:
//
//	POST {base}/v1/packages/{owner}/{repo}/{format}/{distro}/{release}/
//
// with the API key in X-Api-Key, the version and republish flag as form
// fields, and the artifact bytes as the "package" file part.
//
// The body is streamed through a pipe, never buffered whole — packages
// can be large.
func (e *HTTPEndpoint) Push(ctx context.Context, job Job, apiKey string, body io.Reader) error {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	formErr := make(chan error, 1)
	go func() {
		err := writeForm(writer, job, body)
		if cerr := writer.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
		formErr <- err
	}()

	req, err := http.NewRequestWithContext(ctx, "POST", e.pushURL(job), pr)
	if err != nil {
		pr.Close()
		return permanentErr(0, err)
	}
	req.Header.Set("X-Api-Key", apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.Client.Do(req)
	if err != nil {
		// A failed artifact read surfaces through the request body;
		// ErrClosedPipe means the transport aborted first (network),
		// which stays transient.
		if ferr := <-formErr; ferr != nil && !errors.Is(ferr, io.ErrClosedPipe) {
			return permanentErr(0, fmt.Errorf("encoding upload: %w", ferr))
		}
		return transientErr(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return classify(resp.StatusCode, fmt.Errorf("POST %s: %d %s",
			e.pushURL(job), resp.StatusCode, truncateBody(respBody, 512)))
	}
	return nil
}

// writeForm emits the multipart fields and the artifact file part.
func writeForm(w *multipart.Writer, job Job, body io.Reader) error {
	if err := w.WriteField("version", job.Version); err != nil {
		return err
	}
	if err := w.WriteField("republish", fmt.Sprintf("%t", job.Republish)); err != nil {
		return err
	}
	part, err := w.CreateFormFile("package", job.Artifact.Name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, body); err != nil {
		return fmt.Errorf("reading artifact: %w", err)
	}
	return nil
}

func (e *HTTPEndpoint) pushURL(job Job) string {
	return fmt.Sprintf("%s/v1/packages/%s/%s/%s/%s/%s/",
		e.BaseURL,
		url.PathEscape(job.Dest.Owner),
		url.PathEscape(job.Dest.Repository),
		url.PathEscape(job.Artifact.Format),
		url.PathEscape(job.Dest.Distro),
		url.PathEscape(job.Dest.Release),
	)
}

// classify maps an HTTP status to a failure class.
func classify(status int, err error) *Error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return authErr(status, err)
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500:
		return transientErr(status, err)
	default:
		return permanentErr(status, err)
	}
}

func truncateBody(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
