package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"duallist/internal/client"
	"duallist/internal/store"
)

const usage = `usage: client [-url URL] <command> [args]

commands:
  items    [-page N] [-limit N] [-filter N]   list unselected items
  selected [-page N] [-limit N] [-filter N]   list selected items
  insert   <id> [label]                       add an item
  select   <id>
  deselect <id>
  reorder  <id> <index>                       move a selected item
  state                                       print the selection
  restore  <id>...                            replace the selection
`

func main() {
	log.SetFlags(0)

	base := flag.String("url", envOr("DUALLIST_URL", client.DefaultBaseURL), "server base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := client.New(*base, nil)
	out, err := run(ctx, c, flag.Arg(0), flag.Args()[1:])
	if err != nil {
		log.Fatalf("client: %s failed: %v", flag.Arg(0), err)
	}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}

func run(ctx context.Context, c *client.Client, cmd string, args []string) (any, error) {
	switch cmd {
	case "items", "selected":
		q, err := parseListQuery(cmd, args)
		if err != nil {
			return nil, err
		}
		if cmd == "items" {
			return c.Items(ctx, q)
		}
		return c.Selected(ctx, q)

	case "insert":
		if len(args) < 1 {
			return nil, fmt.Errorf("insert needs an id")
		}
		id, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		label := ""
		if len(args) > 1 {
			label = args[1]
		}
		return c.Insert(ctx, id, label)

	case "select", "deselect":
		if len(args) != 1 {
			return nil, fmt.Errorf("%s needs an id", cmd)
		}
		id, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		var ok bool
		if cmd == "select" {
			ok, err = c.Select(ctx, id)
		} else {
			ok, err = c.Deselect(ctx, id)
		}
		return map[string]bool{"success": ok}, err

	case "reorder":
		if len(args) != 2 {
			return nil, fmt.Errorf("reorder needs an id and an index")
		}
		id, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		idx, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("bad index %q", args[1])
		}
		ok, err := c.Reorder(ctx, id, idx)
		return map[string]bool{"success": ok}, err

	case "state":
		return c.State(ctx)

	case "restore":
		ids := make([]int64, 0, len(args))
		for _, a := range args {
			id, err := parseID(a)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return c.Restore(ctx, store.State{SelectedIDs: ids})
	}
	return nil, fmt.Errorf("unknown command %q", cmd)
}

func parseListQuery(name string, args []string) (store.ListQuery, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 20, "page size (max 100)")
	filter := fs.String("filter", "", "id substring")
	if err := fs.Parse(args); err != nil {
		return store.ListQuery{}, err
	}
	q := store.ListQuery{Page: *page, Limit: *limit}
	if *filter != "" {
		f, err := parseID(*filter)
		if err != nil {
			return q, err
		}
		q.Filter = &f
	}
	return q, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad id %q", s)
	}
	return id, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
