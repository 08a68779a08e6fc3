package dedupe

import (
	"io"
	"net/http"
)

/*
Response is a fully-buffered HTTP response.

An *http.Response body is a single-use stream, which makes it useless for
sharing: once one caller reads it, everyone else gets nothing. So the collapser
drains the body ONCE, and every caller receives an independent copy they can
consume (or mutate) without affecting the others.
*/
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// readResponse drains and closes an *http.Response into a buffered Response.
func readResponse(hr *http.Response) (*Response, error) {
	defer hr.Body.Close()

	body, err := io.ReadAll(hr.Body)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: hr.StatusCode,
		Header:     hr.Header.Clone(),
		Body:       body,
	}, nil
}

// Clone returns an independent copy: separate body bytes, separate header map.
func (r *Response) Clone() *Response {
	body := make([]byte, len(r.Body))
	copy(body, r.Body)
	return &Response{
		StatusCode: r.StatusCode,
		Header:     r.Header.Clone(),
		Body:       body,
	}
}
