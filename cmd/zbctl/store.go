package main

import (
	"errors"
	"fmt"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/joshuapare/zerobuf/object"
	"github.com/joshuapare/zerobuf/schema"
	"github.com/joshuapare/zerobuf/store"
)

var (
	storeDir    string
	storeOutput string
)

func init() {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Keep typed objects in a local store",
		Long: `The store commands save buffers in a local key-value store, keyed by type
and a sortable object ID, so they can be fetched and verified later.

Every store command needs --type. The directory defaults to store.dir
from the config file.`,
	}
	cmd.PersistentFlags().StringVar(&storeDir, "dir", "", "Store directory (default from config)")

	get := newStoreGetCmd()
	get.Flags().StringVarP(&storeOutput, "output", "o", "", "Write the raw buffer here instead of printing fields")

	cmd.AddCommand(newStorePutCmd(), get, newStoreListCmd(), newStoreDeleteCmd())
	rootCmd.AddCommand(cmd)
}

func newStorePutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <file>",
		Short: "Validate a buffer and store it under a new ID",
		Long: `The put command validates a buffer or snapshot, compacts it and stores it.
The new object ID is printed.

Example:
  zbctl store put doc.zb --type test.Document`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStorePut(args)
		},
	}
}

func newStoreGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a stored object",
		Long: `The get command prints the fields of a stored object, or writes its raw
buffer with -o.

Example:
  zbctl store get 2Fq3xkPZr5h1i3CqmE6XW6rWTkm --type test.Document
  zbctl store get 2Fq3xkPZr5h1i3CqmE6XW6rWTkm --type test.Document -o doc.zb`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoreGet(args)
		},
	}
}

func newStoreListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored objects of a type",
		Long: `The list command prints the ID and size of every stored object of the
type, oldest first.

Example:
  zbctl store list --type test.Document --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoreList(args)
		},
	}
}

func newStoreDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoreDelete(args)
		},
	}
}

// openStore opens the configured store and the schema named by --type.
func openStore() (*store.Store, *schema.Schema, error) {
	sh, err := resolveShape()
	if err != nil {
		return nil, nil, err
	}
	if sh.schema == nil {
		return nil, nil, errors.New("store commands need --type")
	}
	dir := storeDir
	if dir == "" {
		dir = cfg.Store.Dir
	}
	printVerbose("Opening store %s\n", dir)
	st, err := store.Open(dir, store.Options{Sync: cfg.Store.Sync})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, sh.schema, nil
}

func parseID(s string) (ksuid.KSUID, error) {
	id, err := ksuid.Parse(s)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("invalid object id %q: %w", s, err)
	}
	return id, nil
}

func runStorePut(args []string) error {
	in, err := openInput(args[0])
	if err != nil {
		return fmt.Errorf("failed to open buffer: %w", err)
	}
	defer in.Close()

	st, s, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	o, err := object.Wrap(s, in.a)
	if err != nil {
		return err
	}
	if err := o.Check(); err != nil {
		return fmt.Errorf("refusing to store invalid buffer: %w", err)
	}
	id, err := st.Put(o)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(map[string]string{"id": id.String(), "type": s.Name})
	}
	printInfo("%s\n", id)
	return nil
}

func runStoreGet(args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	st, s, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	o, err := st.Get(id, s)
	if err != nil {
		return err
	}
	if storeOutput != "" {
		if err := writeFileAtomic(storeOutput, o.Bytes()); err != nil {
			return err
		}
		printInfo("Wrote %s (%s)\n", storeOutput, formatBytes(o.Size()))
		return nil
	}

	fields, err := collectFields(o.Allocator(), s)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(fields)
	}
	printInfo("%s (%s):\n", id, s.Name)
	printFields(fields)
	return nil
}

type storedObject struct {
	ID      string `json:"id"`
	Created string `json:"created"`
	Size    int    `json:"size"`
}

func runStoreList(_ []string) error {
	st, s, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var objects []storedObject
	err = st.List(s, func(id ksuid.KSUID, o *object.Object) error {
		objects = append(objects, storedObject{
			ID:      id.String(),
			Created: id.Time().UTC().Format("2006-01-02T15:04:05Z"),
			Size:    o.Size(),
		})
		return nil
	})
	if err != nil {
		return err
	}
	if jsonOut {
		if objects == nil {
			objects = []storedObject{}
		}
		return printJSON(objects)
	}
	if len(objects) == 0 {
		printInfo("No %s objects stored\n", s.Name)
		return nil
	}
	for _, so := range objects {
		printInfo("%s  %s  %s\n", so.ID, so.Created, formatBytes(so.Size))
	}
	return nil
}

func runStoreDelete(args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	st, s, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(id, s); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			printError("%s not found\n", id)
		}
		return err
	}
	printInfo("Deleted %s\n", id)
	return nil
}
