package checks

import (
	"bufio"
	"errors"
	"io"
)

// eachLine calls fn for every line of r, newline included. Lines of any
// length are read whole.
func eachLine(r io.Reader, fn func(line []byte)) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			fn(line)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
