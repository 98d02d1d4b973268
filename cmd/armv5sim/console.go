package main

import "io"

// escapeByte (Ctrl-A) starts a host command on a raw terminal, where
// Ctrl-C goes to the guest. Ctrl-A x stops the emulator and Ctrl-A Ctrl-A
// sends a single Ctrl-A.
const escapeByte = 0x01

// escapeReader filters host commands out of console input.
type escapeReader struct {
	r       io.Reader
	onExit  func()
	pending bool
}

func newEscapeReader(r io.Reader, onExit func()) *escapeReader {
	return &escapeReader{r: r, onExit: onExit}
}

// Read returns guest input. After Ctrl-A x it calls onExit and reports
// io.EOF.
func (e *escapeReader) Read(p []byte) (int, error) {
	for {
		n, err := e.r.Read(p)

		out := p[:0]
		for _, c := range p[:n] {
			if e.pending {
				e.pending = false
				switch c {
				case 'x', 'X':
					e.onExit()
					return len(out), io.EOF
				case escapeByte:
					out = append(out, c)
				}
				continue
			}
			if c == escapeByte {
				e.pending = true
				continue
			}
			out = append(out, c)
		}

		if len(out) > 0 || err != nil {
			return len(out), err
		}
	}
}
