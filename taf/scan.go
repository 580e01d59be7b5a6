package taf

import "bytes"

// ScanLines calls fn for every non-blank line of buf, trimmed of surrounding
// white space. Lines are slices of buf and are only valid during the call. A
// final line without a trailing newline is included. Scanning stops at the
// first error returned by fn.
func ScanLines(buf []byte, fn func(line []byte) error) error {
	for len(buf) > 0 {
		var line []byte
		if n := bytes.IndexByte(buf, '\n'); n >= 0 {
			line, buf = buf[:n], buf[n+1:]
		} else {
			line, buf = buf, nil
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}

	return nil
}

var (
	instructionSep = []byte(" ;")
	tagSep         = []byte(" @")
)

// SplitLine splits a trimmed TAF line into its letter and instruction
// segments. The tag segment, if any, is dropped.
func SplitLine(line []byte) (letters, instructions []byte) {
	if i := bytes.Index(line, tagSep); i >= 0 {
		line = line[:i]
	}
	if len(line) > 0 && line[0] == ';' {
		return nil, bytes.TrimSpace(line[1:])
	}
	if i := bytes.Index(line, instructionSep); i >= 0 {
		return bytes.TrimSpace(line[:i]), bytes.TrimSpace(line[i+len(instructionSep):])
	}

	return bytes.TrimSpace(line), nil
}
