package transfer

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// promptSecret asks for the secret key on the terminal without echo.
func promptSecret(w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, "Enter S3 secret key: "); err != nil {
		return "", err
	}
	b, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
