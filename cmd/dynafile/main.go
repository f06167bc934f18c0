// Command dynafile is a local administrative tool for a Dynafile table
// on disk: put, get, delete, query, and scan, each a single process
// invocation. It does not listen on a network socket; this tool only
// ever opens the table directory passed on the command line.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dynafile-io/dynafile"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("dynafile: ")

	if len(os.Args) < 3 {
		usage()
		os.Exit(2)
	}

	path := os.Args[1]
	op := os.Args[2]
	args := os.Args[3:]

	t, err := dynafile.Open(path, dynafile.OpenOptions{})
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}

	switch op {
	case "put":
		err = runPut(t, args)
	case "get":
		err = runGet(t, args)
	case "delete":
		err = runDelete(t, args)
	case "query":
		err = runQuery(t, args)
	case "scan":
		err = runScan(t, args)
	case "create-gsi":
		err = runCreateGsi(t, args)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: dynafile <path> <put|get|delete|query|scan|create-gsi> [args...]")
}

func runPut(t *dynafile.Table, args []string) error {
	fs := flag.NewFlagSet("put", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("usage: put '<json item>'")
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(fs.Arg(0)), &decoded); err != nil {
		return fmt.Errorf("decode item: %w", err)
	}
	item, err := dynafile.ItemFromJSON(decoded)
	if err != nil {
		return err
	}
	return t.PutItem(item)
}

func runGet(t *dynafile.Table, args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 2 {
		return errors.New("usage: get <pk> <sk>")
	}

	item, err := t.GetItem(dynafile.Key{PK: fs.Arg(0), SK: fs.Arg(1)})
	if err != nil {
		return err
	}
	return printItem(item)
}

func runDelete(t *dynafile.Table, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 2 {
		return errors.New("usage: delete <pk> <sk>")
	}
	return t.DeleteItem(dynafile.Key{PK: fs.Arg(0), SK: fs.Arg(1)})
}

func runQuery(t *dynafile.Table, args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	startsWith := fs.String("starts-with", "", "sort-key prefix to start from")
	backward := fs.Bool("backward", false, "iterate in descending sort-key order")
	index := fs.String("index", "", "GSI name to query instead of the base table")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("usage: query [-starts-with s] [-backward] [-index name] <pk>")
	}

	dir := dynafile.Forward
	if *backward {
		dir = dynafile.Backward
	}

	items, err := t.Query(fs.Arg(0), dynafile.QueryOptions{
		StartsWith: *startsWith,
		Direction:  dir,
		Index:      *index,
	})
	if err != nil {
		return err
	}
	return printItems(items)
}

func runScan(t *dynafile.Table, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	fs.Parse(args)

	items, err := t.Scan(nil)
	if err != nil {
		return err
	}
	return printItems(items)
}

func runCreateGsi(t *dynafile.Table, args []string) error {
	fs := flag.NewFlagSet("create-gsi", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 3 {
		return errors.New("usage: create-gsi <name> <pk-attr> <sk-attr>")
	}
	return t.CreateGsi(fs.Arg(0), fs.Arg(1), fs.Arg(2))
}

func printItem(item dynafile.Item) error {
	if item == nil {
		fmt.Println("null")
		return nil
	}
	return printItems([]dynafile.Item{item})
}

func printItems(items []dynafile.Item) error {
	out := make([]map[string]any, len(items))
	for i, item := range items {
		out[i] = dynafile.ItemToJSON(item)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
