// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import "io"

// duplexPipe glues together the read end of one io.Pipe and the write end
// of another into a single io.ReadWriter, so two such values can be
// cross-wired into an in-memory duplex link.
type duplexPipe struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (d *duplexPipe) Read(p []byte) (int, error)  { return d.r.Read(p) }
func (d *duplexPipe) Write(p []byte) (int, error) { return d.w.Write(p) }
func (d *duplexPipe) Close() error {
	rerr := d.r.Close()
	werr := d.w.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

// NewMemoryPipe returns two Transports, a and b, synchronously wired so
// that every frame a sends arrives via b.RecvFrame and vice versa. Useful
// for tests and for wiring a request/response pair in a single process
// without a real byte-oriented link.
func NewMemoryPipe(opts ...Option) (a, b Transport) {
	ar, bw := io.Pipe() // bytes b writes arrive as a reads
	br, aw := io.Pipe() // bytes a writes arrive as b reads

	a = New(&duplexPipe{r: ar, w: aw}, opts...)
	b = New(&duplexPipe{r: br, w: bw}, opts...)
	return a, b
}
