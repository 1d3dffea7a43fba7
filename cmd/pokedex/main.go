package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"connectrpc.com/connect"
	pokedexv1 "jo3qma.com/pokedex/internal/api/pokedexv1"
	"jo3qma.com/pokedex/internal/api/pokedexv1/pokedexv1connect"
)

const defaultServer = "http://localhost:8080"

const usage = `usage: pokedex [--server URL] <command> [flags]

commands:
  list   [--limit N] [--offset N]   print one page of the catalog
  browse [--pages N] [--query Q]    page through a session, optionally filtering
  show   <name>                      print the detail of one entry
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pokedex", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { _, _ = fmt.Fprint(stderr, usage) }
	server := fs.String("server", envOr("POKEDEX_SERVER", defaultServer), "server base URL")
	timeout := fs.Duration("timeout", 30*time.Second, "per-call timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}

	client := pokedexv1connect.NewPokedexServiceClient(
		&http.Client{Timeout: *timeout},
		strings.TrimRight(*server, "/"),
	)

	var err error
	switch rest[0] {
	case "list":
		err = runList(ctx, client, rest[1:], stdout, stderr)
	case "browse":
		err = runBrowse(ctx, client, rest[1:], stdout, stderr)
	case "show":
		err = runShow(ctx, client, rest[1:], stdout)
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n", rest[0])
		fs.Usage()
		return 2
	}
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		_, _ = fmt.Fprintln(stderr, "Error:", describe(err))
		return 1
	}
	return 0
}

func runList(ctx context.Context, client pokedexv1connect.PokedexServiceClient, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	limit := fs.Int64("limit", 0, "page size (0 uses the server default)")
	offset := fs.Int64("offset", 0, "number of entries to skip")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := client.ListEntries(ctx, connect.NewRequest(&pokedexv1.ListEntriesRequest{
		Limit:  *limit,
		Offset: *offset,
	}))
	if err != nil {
		return err
	}

	printEntries(stdout, resp.Msg.Entries)
	_, _ = fmt.Fprintf(stdout, "%d of %d\n", len(resp.Msg.Entries), resp.Msg.Count)
	return nil
}

func runBrowse(ctx context.Context, client pokedexv1connect.PokedexServiceClient, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	pages := fs.Int("pages", 1, "number of pages to load")
	query := fs.String("query", "", "filter loaded entries by name or exact id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opened, err := client.OpenSession(ctx, connect.NewRequest(&pokedexv1.OpenSessionRequest{}))
	if err != nil {
		return err
	}
	id := opened.Msg.SessionId
	defer func() {
		_, _ = client.CloseSession(context.WithoutCancel(ctx), connect.NewRequest(&pokedexv1.CloseSessionRequest{SessionId: id}))
	}()

	state := opened.Msg.State
	for i := 0; i < *pages && !state.EndReached; i++ {
		resp, err := client.LoadNextPage(ctx, connect.NewRequest(&pokedexv1.LoadNextPageRequest{SessionId: id}))
		if err != nil {
			return err
		}
		state = resp.Msg.State
		if state.LastError != "" {
			return errors.New(state.LastError)
		}
	}

	if *query != "" {
		resp, err := client.Search(ctx, connect.NewRequest(&pokedexv1.SearchRequest{SessionId: id, Query: *query}))
		if err != nil {
			return err
		}
		state = resp.Msg.State
	}

	printEntries(stdout, state.Entries)
	if state.EndReached {
		_, _ = fmt.Fprintln(stdout, "(end of catalog)")
	}
	return nil
}

func runShow(ctx context.Context, client pokedexv1connect.PokedexServiceClient, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errors.New("show requires exactly one name")
	}

	resp, err := client.GetEntry(ctx, connect.NewRequest(&pokedexv1.GetEntryRequest{Name: args[0]}))
	if err != nil {
		return err
	}

	d := resp.Msg
	_, _ = fmt.Fprintln(stdout, d.DisplayName)
	_, _ = fmt.Fprintf(stdout, "types:  %s\n", strings.Join(d.Types, ", "))
	_, _ = fmt.Fprintf(stdout, "height: %.1f m\n", d.HeightM)
	_, _ = fmt.Fprintf(stdout, "weight: %.1f kg\n", d.WeightKg)
	for _, s := range d.Stats {
		_, _ = fmt.Fprintf(stdout, "%-6s %3d\n", s.Abbreviation, s.BaseStat)
	}
	return nil
}

func printEntries(w io.Writer, entries []*pokedexv1.Entry) {
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "#%-4d %s\n", e.Id, e.Name)
	}
}

// describe は Connect のエラーコードを短い説明に置き換えます
func describe(err error) string {
	var ce *connect.Error
	if !errors.As(err, &ce) {
		return err.Error()
	}
	switch ce.Code() {
	case connect.CodeNotFound:
		return "not found: " + ce.Message()
	case connect.CodeUnavailable:
		return "catalog unavailable: " + ce.Message()
	case connect.CodeInvalidArgument:
		return "invalid argument: " + ce.Message()
	default:
		return ce.Error()
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
