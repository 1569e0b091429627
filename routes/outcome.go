// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package routes

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// outcome is the response produced by a route, independent of the calling
// convention used to deliver it.
type outcome struct {
	status int
	header http.Header
	body   []byte
}

// redirect returns a 302 to location.
func redirect(location string) *outcome {
	h := http.Header{}
	h.Set("Location", location)
	h.Set("Cache-Control", "no-store")
	return &outcome{status: http.StatusFound, header: h}
}

// plain returns a text/plain response with the status text as its body.
func plain(status int) *outcome {
	h := http.Header{}
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	return &outcome{status: status, header: h, body: []byte(http.StatusText(status) + "\n")}
}

// response converts the outcome into the *http.Response returned by
// Handler.Handle.
func (o *outcome) response(req *http.Request) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", o.status, http.StatusText(o.status)),
		StatusCode:    o.status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        o.header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(o.body)),
		ContentLength: int64(len(o.body)),
		Request:       req,
	}
}

// write sends the outcome on w.  Nothing may be written to w afterwards.
func (o *outcome) write(w http.ResponseWriter) error {
	h := w.Header()
	for k, v := range o.header {
		h[k] = append([]string(nil), v...)
	}
	w.WriteHeader(o.status)
	if len(o.body) == 0 {
		return nil
	}
	_, err := w.Write(o.body)
	return err
}
