package logging

import (
	"io"
	"log"
	"os"
)

// Setup configures the standard logger for a binary. Output goes to stderr
// and, when logstashAddr is set, is mirrored to Logstash. The returned closer
// flushes nothing and only releases the TCP connection.
func Setup(prefix, logstashAddr string) io.Closer {
	log.SetFlags(log.LstdFlags | log.LUTC | log.Lmsgprefix)
	if prefix != "" {
		log.SetPrefix(prefix + " ")
	}
	if logstashAddr == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}
	}
	writer, err := NewLogstashWriter(logstashAddr)
	if err != nil {
		log.Printf("logstash disabled: %v", err)
		return nopCloser{}
	}
	log.SetOutput(io.MultiWriter(os.Stderr, writer))
	log.Printf("mirroring logs to logstash at %s", logstashAddr)
	return writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
