package transport

import (
	"io"
	"time"

	"golang.org/x/time/rate"
)

// progressReader counts bytes handed to the HTTP client and reports them.
// The final chunk is always reported; intermediate ones are throttled.
type progressReader struct {
	r         io.Reader
	total     int64
	loaded    int64
	sometimes *rate.Sometimes
	report    func(loaded, total int64)
}

func newProgressReader(r io.Reader, total int64, interval time.Duration, report func(loaded, total int64)) *progressReader {
	if total < 0 {
		total = 0
	}
	p := &progressReader{r: r, total: total, report: report}
	if interval > 0 {
		p.sometimes = &rate.Sometimes{First: 1, Interval: interval}
	}
	return p
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		loaded, total := p.loaded, p.total
		switch {
		case p.sometimes == nil, total > 0 && loaded >= total:
			p.report(loaded, total)
		default:
			p.sometimes.Do(func() { p.report(loaded, total) })
		}
	}
	return n, err
}
