package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// stdinIsTerminal reports whether in is the process's interactive stdin.
func stdinIsTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && isTerminal(int(f.Fd()))
}

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
//
// Example prompt format:
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question until it gets an answer. "y" accepts, "n"
// or an empty line declines, both case-insensitive. io.EOF is returned when
// input ends before an answer.
func Confirm(reader *bufio.Reader, prompt string, w io.Writer) (bool, error) {
	for {
		answer, err := GetSimpleText(reader, prompt+" (y/n)", w)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y":
			return true, nil
		case "n", "":
			return false, nil
		}
		fmt.Fprintln(w, "Please answer y or n.")
	}
}
