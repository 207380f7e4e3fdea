// Command trie-cli is a small inspector over a persisted trie: it opens a
// Badger-backed store, tracks the current root hash in a sidecar file next
// to the database directory, and exposes put/get/delete/root/stats
// subcommands, plus a memstore-backed demo subcommand that never touches
// disk. It is a thin urfave/cli/v2 front end over the trie library
// package, with viper handling an optional config file that can override
// flag defaults.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	trie "github.com/optimalbrew/rskj"
	"github.com/optimalbrew/rskj/bitpath"
	"github.com/optimalbrew/rskj/store/badgerstore"
	"github.com/optimalbrew/rskj/store/memstore"
)

var logger *zap.Logger

func main() {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "trie-cli: setting up logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	trie.SetLogger(logger)

	app := &cli.App{
		Name:  "trie-cli",
		Usage: "inspect and mutate a persisted binary-radix trie",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "datadir",
				Aliases: []string{"d"},
				Value:   "./trie-data",
				Usage:   "directory holding the Badger database and root file",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "optional config file (viper-loaded) overriding flag defaults",
			},
		},
		Before: loadConfig,
		Commands: []*cli.Command{
			putCommand,
			getCommand,
			deleteCommand,
			rootCommand,
			statsCommand,
			demoCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("trie-cli failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "trie-cli:", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if viper.IsSet("datadir") && !c.IsSet("datadir") {
		return c.Set("datadir", viper.GetString("datadir"))
	}
	return nil
}

const rootFileName = "ROOT"

func openSession(c *cli.Context) (*badgerstore.Store, *trie.Node, error) {
	dataDir := c.String("datadir")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, err
	}
	store, err := badgerstore.Open(filepath.Join(dataDir, "badger"))
	if err != nil {
		return nil, nil, err
	}

	root := trie.NewEmpty(store)
	rootPath := filepath.Join(dataDir, rootFileName)
	if data, err := os.ReadFile(rootPath); err == nil {
		hash, err := parseHash(string(data))
		if err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("parsing stored root: %w", err)
		}
		raw, err := store.RetrieveNode(hash)
		if err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("loading root %x: %w", hash, err)
		}
		node, err := trie.DecodeNode(raw, store)
		if err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("decoding root %x: %w", hash, err)
		}
		root = node
	} else if !os.IsNotExist(err) {
		store.Close()
		return nil, nil, err
	}
	return store, root, nil
}

func saveSession(c *cli.Context, store *badgerstore.Store, root *trie.Node) error {
	hash, err := trie.Save(root, store, store)
	if err != nil {
		return err
	}
	rootPath := filepath.Join(c.String("datadir"), rootFileName)
	return os.WriteFile(rootPath, []byte(hex.EncodeToString(hash[:])), 0o644)
}

func parseHash(s string) ([32]byte, error) {
	var h [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(b) != 32 {
		return h, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(h[:], b)
	return h, nil
}

var putCommand = &cli.Command{
	Name:      "put",
	Usage:     "insert or replace a key's value",
	ArgsUsage: "KEY VALUE",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return cli.Exit("put requires KEY and VALUE", 1)
		}
		store, root, err := openSession(c)
		if err != nil {
			return err
		}
		defer store.Close()

		key := bitpath.FromKey([]byte(c.Args().Get(0)))
		newRoot, err := trie.Put(root, store, key, []byte(c.Args().Get(1)))
		if err != nil {
			return err
		}
		if err := saveSession(c, store, newRoot); err != nil {
			return err
		}
		logger.Info("put", zap.String("key", c.Args().Get(0)))
		return nil
	},
}

var getCommand = &cli.Command{
	Name:      "get",
	Usage:     "read a key's value",
	ArgsUsage: "KEY",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("get requires KEY", 1)
		}
		store, root, err := openSession(c)
		if err != nil {
			return err
		}
		defer store.Close()

		key := bitpath.FromKey([]byte(c.Args().Get(0)))
		value, ok, err := root.Get(key)
		if err != nil {
			return err
		}
		if !ok {
			return cli.Exit("key not found", 1)
		}
		fmt.Println(string(value))
		return nil
	},
}

var deleteCommand = &cli.Command{
	Name:      "delete",
	Usage:     "remove a key",
	ArgsUsage: "KEY",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("delete requires KEY", 1)
		}
		store, root, err := openSession(c)
		if err != nil {
			return err
		}
		defer store.Close()

		key := bitpath.FromKey([]byte(c.Args().Get(0)))
		newRoot, err := trie.Delete(root, store, key)
		if err != nil {
			return err
		}
		return saveSession(c, store, newRoot)
	},
}

var rootCommand = &cli.Command{
	Name:  "root",
	Usage: "print the current v1/v2 root hash and the legacy (v0) hash",
	Action: func(c *cli.Context) error {
		store, root, err := openSession(c)
		if err != nil {
			return err
		}
		defer store.Close()

		hash := root.Hash()
		legacy, err := root.HashLegacyChecked(false)
		if err != nil {
			return fmt.Errorf("computing legacy hash: %w", err)
		}
		fmt.Printf("hash=%s legacy=%s\n", hex.EncodeToString(hash[:]), hex.EncodeToString(legacy[:]))
		return nil
	},
}

var statsCommand = &cli.Command{
	Name:  "stats",
	Usage: "print node count, embedded/hash-only child counts, and long-value count",
	Action: func(c *cli.Context) error {
		store, root, err := openSession(c)
		if err != nil {
			return err
		}
		defer store.Close()

		size, err := root.TrieSize()
		if err != nil {
			return err
		}

		var embedded, hashOnly, longValues int
		err = trie.PreOrder(root, func(e trie.Entry) error {
			if e.Node.IsLongValue() {
				longValues++
			}
			for _, ref := range e.Node.Children() {
				if ref.IsEmpty() {
					continue
				}
				if ref.IsEmbedded() {
					embedded++
				} else {
					hashOnly++
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		hash := root.Hash()
		fmt.Printf("root=%s nodes=%d embedded=%d hashOnly=%d longValues=%d\n",
			hex.EncodeToString(hash[:]), size, embedded, hashOnly, longValues)
		return nil
	},
}

var demoCommand = &cli.Command{
	Name:  "demo",
	Usage: "build a small in-memory trie and print its stats, without touching disk",
	Action: func(c *cli.Context) error {
		store := memstore.New()
		root := trie.NewEmpty(store)
		seed := [][2]string{
			{"alpha", "1"}, {"album", "2"}, {"beta", "3"}, {"gamma", "4"},
		}
		var err error
		for _, kv := range seed {
			root, err = trie.Put(root, store, bitpath.FromKey([]byte(kv[0])), []byte(kv[1]))
			if err != nil {
				return err
			}
		}
		size, err := root.TrieSize()
		if err != nil {
			return err
		}
		keys, err := root.CollectKeys(256)
		if err != nil {
			return err
		}
		hash := root.Hash()
		fmt.Printf("demo root=%s nodes=%d keys=%d\n", hex.EncodeToString(hash[:]), size, len(keys))
		for _, k := range keys {
			fmt.Printf("  %s\n", string(k))
		}
		return nil
	},
}
