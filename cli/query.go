package cli

import (
	"fmt"
	"strings"

	"github.com/mwantia/grove/index"
	"github.com/spf13/cobra"
)

var (
	withDocs   bool
	recursive  bool
	storeCache bool
	useCache   bool
)

func buildIndex(cmd *cobra.Command) (*index.Index, error) {
	ws, err := workspace()
	if err != nil {
		return nil, err
	}

	var opts []index.Option
	if withDocs {
		opts = append(opts, index.WithDocuments())
	}
	if recursive {
		opts = append(opts, index.WithRecursive())
	}

	ix, err := ws.Index(opts...)
	if err != nil {
		return nil, err
	}

	if useCache {
		if err := ix.Load(cmd.Context()); err == nil {
			return ix, nil
		}
		// Cache miss falls back to a scan.
	}
	if err := ix.Build(cmd.Context()); err != nil {
		return nil, err
	}
	return ix, nil
}

var findCmd = &cobra.Command{
	Use:   "find [filter]",
	Short: "Print the identifiers of all directories matching a filter",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, err := buildIndex(cmd)
		if err != nil {
			return err
		}

		var filter any
		if len(args) == 1 {
			filter = args[0]
		}

		cursor, err := ix.Find(filter)
		if err != nil {
			return err
		}
		for doc := range cursor.Iter() {
			fmt.Println(doc.ID)
		}
		return nil
	},
}

var attrsCmd = &cobra.Command{
	Use:   "attrs <id>",
	Short: "Print the attributes of a directory, resolving abbreviated identifiers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, err := buildIndex(cmd)
		if err != nil {
			return err
		}

		doc, err := ix.Lookup(args[0])
		if err != nil {
			return err
		}

		raw, err := doc.Attrs.Canonical()
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", doc.ID, strings.TrimSpace(string(raw)))
		return nil
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the index and optionally persist its cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, err := buildIndex(cmd)
		if err != nil {
			return err
		}

		if storeCache {
			if err := ix.StoreCache(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("indexed %d directories, cache stored at %s\n", ix.Len(), index.CacheFileName)
			return nil
		}

		for _, id := range ix.IDs() {
			fmt.Println(id)
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{findCmd, attrsCmd, indexCmd} {
		cmd.Flags().BoolVar(&withDocs, "docs", false, "Load document sidecars into the index")
		cmd.Flags().BoolVar(&recursive, "recursive", false, "Scan the whole tree below the root")
		cmd.Flags().BoolVar(&useCache, "cached", false, "Load the persisted index cache when present")
	}
	indexCmd.Flags().BoolVar(&storeCache, "store", false, "Persist the index cache after building")

	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(attrsCmd)
	rootCmd.AddCommand(indexCmd)
}
