package cli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// PassphraseEnv names the environment variable read before prompting.
const PassphraseEnv = "CHANKEYS_PASSPHRASE"

// Test seams.
var (
	readPassword = term.ReadPassword
	getenv       = os.Getenv
)

// promptLine writes prompt to w and reads one line from r. A last line
// without a newline still counts.
func promptLine(r *bufio.Reader, w io.Writer, prompt string) (string, error) {
	fmt.Fprintf(w, "%s\n> ", prompt)
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassphrase reads a passphrase from the terminal without echo. The
// caller wipes the result.
func promptPassphrase(w io.Writer, prompt string) ([]byte, error) {
	fmt.Fprint(w, prompt)
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	return pw, err
}

// readSource returns the contents of path, or of in when path is "-".
func readSource(in io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(in)
	}
	return os.ReadFile(path)
}

func trimSpace(b []byte) string {
	return string(bytes.TrimSpace(b))
}
