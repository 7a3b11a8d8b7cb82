package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/avolkhin/roost/internal/common"
	"github.com/avolkhin/roost/internal/server/accounts"
)

// App drives the interactive registration prompt.
type App struct {
	accounts *accounts.Service
	in       *bufio.Reader
	out      io.Writer
}

func NewApp(svc *accounts.Service, in io.Reader, out io.Writer) *App {
	return &App{accounts: svc, in: bufio.NewReader(in), out: out}
}

// Register prompts for a username and password and provisions the
// account. The password is asked for twice and must match.
func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.in, "Enter localpart (e.g. alice)", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := GetPassword("Confirm password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(password, confirm) {
		return fmt.Errorf("passwords do not match")
	}

	userID, err := a.accounts.Provision(ctx, username, string(password))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s\n", userID)
	return nil
}
