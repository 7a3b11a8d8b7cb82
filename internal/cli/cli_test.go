package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/avolkhin/roost/internal/logging"
	"github.com/avolkhin/roost/internal/server/accounts"
	"github.com/avolkhin/roost/internal/server/config"
	"github.com/avolkhin/roost/internal/server/store"
)

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("hello world\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "hello world" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetPassword_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := GetPassword("Enter password", &out)
	if err == nil {
		t.Fatal("expected error")
	}
}

func stubPasswords(t *testing.T, passwords ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })

	i := 0
	readPassword = func(int) ([]byte, error) {
		if i >= len(passwords) {
			return nil, io.EOF
		}
		pw := passwords[i]
		i++
		return []byte(pw), nil
	}
}

func newTestApp(st store.Store, input string, out io.Writer) *App {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := accounts.NewService(st, logger, cfg)
	return NewApp(svc, strings.NewReader(input), out)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("provisions the account", func(t *testing.T) {
		stubPasswords(t, "hunter2", "hunter2")

		st := store.NewMockStore("localhost")
		var out bytes.Buffer
		app := newTestApp(st, "alice\n", &out)

		if err := app.Register(ctx); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.String(), "Registered @alice:localhost") {
			t.Fatalf("unexpected output: %q", out.String())
		}

		exists, err := st.UsernameExists(ctx, "alice")
		if err != nil || !exists {
			t.Fatalf("account missing: exists=%v err=%v", exists, err)
		}
	})

	t.Run("password mismatch", func(t *testing.T) {
		stubPasswords(t, "hunter2", "other")

		var out bytes.Buffer
		app := newTestApp(store.NewMockStore("localhost"), "alice\n", &out)

		if err := app.Register(ctx); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("invalid localpart", func(t *testing.T) {
		stubPasswords(t, "hunter2", "hunter2")

		var out bytes.Buffer
		app := newTestApp(store.NewMockStore("localhost"), "Alice!\n", &out)

		if err := app.Register(ctx); err == nil {
			t.Fatal("expected error")
		}
	})
}
