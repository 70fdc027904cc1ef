package main

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupitercache"
)

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "inspect and maintain the local cache",
		Subcommands: []*cli.Command{
			{
				Name:  "clean",
				Usage: "remove expired entries and evict the least recently used ones over the size limit",
				Action: func(appCtx *cli.Context) error {
					rt, err := setup(appCtx)
					if err != nil {
						return err
					}
					stats := rt.Cache.Cleanup()
					fmt.Fprintf(appCtx.App.Writer, "removed %d expired and %d evicted entries, freed %d bytes\n",
						stats.Expired, stats.Evicted, stats.FreedBytes)
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "remove every cached entry",
				Action: func(appCtx *cli.Context) error {
					rt, err := setup(appCtx)
					if err != nil {
						return err
					}
					return rt.Cache.ClearAll()
				},
			},
			{
				Name:  "stats",
				Usage: "print entry counts and the total size",
				Flags: []cli.Flag{jsonFlag},
				Action: func(appCtx *cli.Context) error {
					rt, err := setup(appCtx)
					if err != nil {
						return err
					}
					stats := rt.Cache.Stats()
					if appCtx.Bool("json") {
						return writeJSON(appCtx.App.Writer, stats)
					}

					tw := table(appCtx.App.Writer)
					fmt.Fprintf(tw, "directory\t%s\n", rt.Config.Cache.Dir)
					fmt.Fprintf(tw, "entries\t%d\n", stats.Entries)
					fmt.Fprintf(tw, "size\t%d bytes\n", stats.TotalSize)
					if !stats.LastCleanup.IsZero() {
						fmt.Fprintf(tw, "last cleanup\t%s\n", stats.LastCleanup.Format("2006-01-02 15:04:05"))
					}
					types := make([]string, 0, len(stats.ByType))
					for kind := range stats.ByType {
						types = append(types, string(kind))
					}
					sort.Strings(types)
					for _, kind := range types {
						fmt.Fprintf(tw, "  %s\t%d\n", kind, stats.ByType[jupitercache.EntryType(kind)])
					}
					return tw.Flush()
				},
			},
		},
	}
}
