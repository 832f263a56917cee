// Package transcriber is the speech-to-text collaborator: a whisper-server
// backend behind the dictation.Engine surface, plus a fake for tests.
package transcriber

import (
	"errors"
	"net/url"
	"time"

	"murmur/dictation"
)

type NetworkMetrics struct {
	DNS         time.Duration
	ConnWait    time.Duration
	TCP         time.Duration
	TLS         time.Duration
	ReqHeaders  time.Duration
	ReqBody     time.Duration
	TTFB        time.Duration
	Download    time.Duration
	Total       time.Duration
	ConnReused  bool
	TLSProtocol string
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

// classifyTransport tags transport-level failures so the recovery policy
// can distinguish a missing network from a server-side fault.
func classifyTransport(err error) error {
	if err == nil {
		return nil
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return dictation.Wrap(dictation.KindNetworkUnavailable, "transcription server unreachable", err)
	}
	return dictation.Wrap(dictation.KindUnknown, "transcription request failed", err)
}
