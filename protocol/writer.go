package protocol

import (
	"bufio"
	"io"
	"strings"
)

var Terminal = []byte("\n")

// WriteEnvelope encodes e and writes it to w as one terminated line.
func WriteEnvelope(w io.Writer, e *Envelope) error {
	line, err := Encode(e)
	if err != nil {
		return err
	}

	_, err = w.Write(append(line, Terminal...))
	return err
}

// WriteResponse writes resp to w as one terminated line. Line terminators
// inside the description are replaced with spaces so the response stays a
// single frame.
func WriteResponse(w io.Writer, resp Response) error {
	line := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(resp.String())

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(line); err != nil {
		return err
	}

	if _, err := bw.Write(Terminal); err != nil {
		return err
	}

	return bw.Flush()
}

// ReadLine reads a single line from r. A final line that ends without a
// terminator is returned as is. The terminator and any trailing carriage
// return are stripped.
//
// To avoid denial of service attacks, r should be reading from an
// io.LimitReader or similar Reader to bound the size of the line.
func ReadLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	return trimLine(line, err)
}

// ReadLineLimit reads a single line from r like ReadLine, but reads at most
// limit bytes before the terminator. Longer lines fail with
// ErrMessageTooLarge.
func ReadLineLimit(r io.Reader, limit int64) (string, error) {
	br := bufio.NewReader(io.LimitReader(r, limit+1))

	line, err := br.ReadString('\n')
	if int64(len(line)) > limit && !strings.HasSuffix(line, "\n") {
		return "", ErrMessageTooLarge
	}

	return trimLine(line, err)
}

func trimLine(line string, err error) (string, error) {
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}

	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}
