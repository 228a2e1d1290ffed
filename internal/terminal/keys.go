package terminal

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"ecgnote/internal/labels"
)

type keyResult struct {
	key rune
	err error
}

// KeyReader reads one key press at a time.
type KeyReader struct {
	in    io.Reader
	br    *bufio.Reader
	fd    int
	tty   bool
	state *term.State

	start sync.Once
	keys  chan keyResult
}

// NewKeyReader wraps in. When in is a terminal, EnableRaw switches it to
// unbuffered input so keys arrive without Enter.
func NewKeyReader(in io.Reader) *KeyReader {
	k := &KeyReader{in: in, br: bufio.NewReader(in), fd: -1, keys: make(chan keyResult)}
	if f, ok := in.(*os.File); ok {
		k.fd = int(f.Fd())
		k.tty = isatty.IsTerminal(f.Fd())
	}
	return k
}

// IsTerminal reports whether the input is an interactive terminal.
func (k *KeyReader) IsTerminal() bool { return k.tty }

// EnableRaw puts the terminal in raw mode. It is a no-op for pipes and files.
func (k *KeyReader) EnableRaw() error {
	if !k.tty || k.state != nil {
		return nil
	}
	state, err := term.MakeRaw(k.fd)
	if err != nil {
		return err
	}
	k.state = state
	return nil
}

// Raw reports whether raw mode is active.
func (k *KeyReader) Raw() bool { return k.state != nil }

// Restore returns the terminal to the mode it had before EnableRaw.
func (k *KeyReader) Restore() error {
	if k.state == nil {
		return nil
	}
	err := term.Restore(k.fd, k.state)
	k.state = nil
	return err
}

// ReadKey blocks for the next key or until ctx is done. Cursor and function
// key sequences are reported as 0 so they never read as a bare Escape. A key
// that arrives after ctx is done is kept for the next call.
func (k *KeyReader) ReadKey(ctx context.Context) (rune, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	k.start.Do(func() { go k.pump() })
	select {
	case res, ok := <-k.keys:
		if !ok {
			return 0, io.EOF
		}
		return res.key, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// pump decodes keys from the input until it fails. The final error is
// delivered once, then the channel is closed.
func (k *KeyReader) pump() {
	defer close(k.keys)
	for {
		key, err := k.decode()
		k.keys <- keyResult{key: key, err: err}
		if err != nil {
			return
		}
	}
}

func (k *KeyReader) decode() (rune, error) {
	r, _, err := k.br.ReadRune()
	if err != nil {
		return 0, err
	}
	if r != labels.KeyEscape || k.br.Buffered() == 0 {
		return r, nil
	}
	next, err := k.br.Peek(1)
	if err != nil {
		return r, nil
	}
	switch next[0] {
	case '[':
		_, _ = k.br.ReadByte()
		// CSI: parameter and intermediate bytes up to a final byte in 0x40-0x7E.
		for {
			b, err := k.br.ReadByte()
			if err != nil {
				return 0, nil
			}
			if b >= 0x40 && b <= 0x7e {
				return 0, nil
			}
		}
	case 'O':
		_, _ = k.br.ReadByte()
		_, _ = k.br.ReadByte()
		return 0, nil
	}
	return r, nil
}
