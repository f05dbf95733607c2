package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/outofforest/fixedstore"
	"github.com/outofforest/fixedstore/config"
	"github.com/outofforest/fixedstore/fixed"
	"github.com/outofforest/fixedstore/records"
)

var (
	Version   = "development"
	BuildTime = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "fixedctl",
		Usage:   "Manages blocks of fixed block stores",
		Version: fmt.Sprintf("%s.%s", Version, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to TOML configuration file"},
			&cli.StringFlag{Name: "root", Usage: "root directory of tables"},
			&cli.StringFlag{Name: "name", Usage: "table name"},
			&cli.StringFlag{Name: "table", Usage: "name of the data file inside the table"},
			&cli.Uint64Flag{Name: "capacity", Usage: "payload capacity of each block"},
			&cli.BoolFlag{Name: "sync", Usage: "sync files before each commit"},
			&cli.StringFlag{Name: "log-level", Usage: "log level"},
		},
		Commands: []*cli.Command{
			{
				Name:  "alloc",
				Usage: "Allocates block and prints its offset",
				Action: func(c *cli.Context) error {
					return withStore(c, func(s *fixed.Store) error {
						b, err := s.AllocateBlock()
						if err != nil {
							return err
						}
						_, err = fmt.Fprintln(c.App.Writer, b.StartOffset())
						return errors.WithStack(err)
					})
				},
			},
			{
				Name:      "free",
				Usage:     "Frees block",
				ArgsUsage: "<offset>",
				Action: func(c *cli.Context) error {
					return withBlock(c, 1, func(s *fixed.Store, b *fixed.Block) error {
						return s.FreeBlock(b)
					})
				},
			},
			{
				Name:      "write",
				Usage:     "Writes header and body to the block",
				ArgsUsage: "<offset> <header> <body>",
				Action: func(c *cli.Context) error {
					return withBlock(c, 3, func(_ *fixed.Store, b *fixed.Block) error {
						return b.WriteBody([]byte(c.Args().Get(1)), []byte(c.Args().Get(2)))
					})
				},
			},
			{
				Name:      "read",
				Usage:     "Prints header and body of the block",
				ArgsUsage: "<offset>",
				Action: func(c *cli.Context) error {
					return withBlock(c, 1, func(_ *fixed.Store, b *fixed.Block) error {
						header, body, err := b.ReadBody()
						if err != nil {
							return err
						}
						_, err = fmt.Fprintf(c.App.Writer, "header: %q\nbody: %q\n", header, body)
						return errors.WithStack(err)
					})
				},
			},
			{
				Name:  "freelist",
				Usage: "Prints freed blocks in the order they will be reused",
				Action: func(c *cli.Context) error {
					return withStore(c, func(s *fixed.Store) error {
						var err error
						walkErr := s.WalkFree(func(d records.Descriptor) bool {
							_, err = fmt.Fprintf(c.App.Writer, "%s\t%d\t%d\n", d.FileID, d.StartOffset, d.Capacity)
							return err == nil
						})
						if walkErr != nil {
							return walkErr
						}
						return errors.WithStack(err)
					})
				},
			},
			{
				Name:  "discard-free",
				Usage: "Removes the descriptor from the top of the free-list without reusing its block",
				Action: func(c *cli.Context) error {
					return withStore(c, func(s *fixed.Store) error {
						d, exists, err := s.DiscardFree()
						if err != nil || !exists {
							return err
						}
						_, err = fmt.Fprintf(c.App.Writer, "%s\t%d\t%d\n", d.FileID, d.StartOffset, d.Capacity)
						return errors.WithStack(err)
					})
				},
			},
			{
				Name:  "stats",
				Usage: "Prints stats of the store",
				Action: func(c *cli.Context) error {
					return withStore(c, func(s *fixed.Store) error {
						stats, err := s.Stats()
						if err != nil {
							return err
						}
						_, err = fmt.Fprintf(c.App.Writer,
							"block capacity: %d\nblock size: %d\ndata file size: %d\nblocks: %d\nfree blocks: %d\n",
							stats.BlockCapacity, stats.BlockSize, stats.DataFileSize, stats.TotalBlocks, stats.FreeBlocks)
						return errors.WithStack(err)
					})
				},
			},
		},
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}

	if c.IsSet("root") {
		cfg.Root = c.String("root")
	}
	if c.IsSet("name") {
		cfg.Name = c.String("name")
	}
	if c.IsSet("table") {
		cfg.Table = c.String("table")
	}
	if c.IsSet("capacity") {
		cfg.BlockCapacity = c.Uint64("capacity")
	}
	if c.IsSet("sync") {
		cfg.SyncWrites = c.Bool("sync")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	return cfg, cfg.Validate()
}

func withStore(c *cli.Context, fn func(s *fixed.Store) error) (retErr error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	logger.SetOutput(c.App.ErrWriter)

	log := logrus.NewEntry(logger)
	s, err := fixedstore.New(cfg.Root, log).OpenFixed(cfg.Name, cfg.Table, fixed.Config{
		BlockCapacity: cfg.BlockCapacity,
		SyncWrites:    cfg.SyncWrites,
		Logger:        log,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil && retErr == nil {
			retErr = err
		}
	}()

	return fn(s)
}

func withBlock(c *cli.Context, nArgs int, fn func(s *fixed.Store, b *fixed.Block) error) error {
	if c.NArg() != nArgs {
		return errors.Errorf("expected %d arguments, got %d", nArgs, c.NArg())
	}
	offset, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid offset %q", c.Args().First())
	}

	return withStore(c, func(s *fixed.Store) error {
		b, err := s.Lookup(offset)
		if err != nil {
			return err
		}
		return fn(s, b)
	})
}
