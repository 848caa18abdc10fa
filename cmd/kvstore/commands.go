package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eigerco/kvstore/pkg/db"
	"github.com/eigerco/kvstore/pkg/log"
)

var storeAnnotation = map[string]string{"store": "true"}

func (a *app) getCmd() *cobra.Command {
	var def string
	cmd := &cobra.Command{
		Use:         "get [key]",
		Short:       "Reads the value for a key",
		Args:        cobra.ExactArgs(1),
		Annotations: storeAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.decode(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(store db.KVStore) error {
				var value []byte
				if cmd.Flags().Changed("default") {
					defValue, err := a.decode(def)
					if err != nil {
						return err
					}
					value, err = db.GetOrDefault(store, key, defValue)
					if err != nil {
						return err
					}
				} else if value, err = store.Get(key); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), a.encode(value))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&def, "default", "", "value printed when the key does not exist")
	return cmd
}

func (a *app) putCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "put [key] [value]",
		Short:       "Sets the value for a key",
		Args:        cobra.ExactArgs(2),
		Annotations: storeAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.decode(args[0])
			if err != nil {
				return err
			}
			value, err := a.decode(args[1])
			if err != nil {
				return err
			}
			return a.withStore(func(store db.KVStore) error {
				if err := store.Put(key, value); err != nil {
					return err
				}
				log.CLI.Debug().Str("key", args[0]).Msg("put")
				return nil
			})
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "delete [key]",
		Aliases:     []string{"del"},
		Short:       "Deletes a key value pair",
		Args:        cobra.ExactArgs(1),
		Annotations: storeAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.decode(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(store db.KVStore) error {
				return store.Delete(key)
			})
		},
	}
}

func (a *app) batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch",
		Short: "Applies operations read from stdin atomically",
		Long: `Reads one operation per line from stdin and applies all of them as a
single batch once stdin is exhausted:

  put <key> <value>
  delete <key>
  clear

Empty lines and lines starting with # are ignored.`,
		Args:        cobra.NoArgs,
		Annotations: storeAnnotation,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(func(store db.KVStore) error {
				batch, err := store.NewBatch()
				if err != nil {
					return err
				}
				defer batch.Close() //nolint:errcheck

				scanner := bufio.NewScanner(cmd.InOrStdin())
				for lineNo := 1; scanner.Scan(); lineNo++ {
					if err := a.stage(batch, scanner.Text()); err != nil {
						return fmt.Errorf("line %d: %w", lineNo, err)
					}
				}
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("read operations: %w", err)
				}

				staged := batch.Len()
				if err := batch.Write(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d operations\n", staged)
				return nil
			})
		},
	}
}

// stage parses one batch line and stages it.
func (a *app) stage(batch db.Batch, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	fields := strings.SplitN(line, " ", 3)
	switch fields[0] {
	case "put":
		if len(fields) != 3 {
			return fmt.Errorf("put needs a key and a value")
		}
		key, err := a.decode(fields[1])
		if err != nil {
			return err
		}
		value, err := a.decode(fields[2])
		if err != nil {
			return err
		}
		return batch.Put(key, value)
	case "delete", "del":
		if len(fields) != 2 {
			return fmt.Errorf("delete needs exactly one key")
		}
		key, err := a.decode(fields[1])
		if err != nil {
			return err
		}
		return batch.Delete(key)
	case "clear":
		return batch.Clear()
	default:
		return fmt.Errorf("unknown operation %q", fields[0])
	}
}

func (a *app) scanCmd() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:         "scan",
		Short:       "Lists key value pairs in key order",
		Args:        cobra.NoArgs,
		Annotations: storeAnnotation,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var lower, upper []byte
			var err error
			if start != "" {
				if lower, err = a.decode(start); err != nil {
					return err
				}
			}
			if end != "" {
				if upper, err = a.decode(end); err != nil {
					return err
				}
			}
			return a.withStore(func(store db.KVStore) error {
				iter, err := store.NewIterator(lower, upper)
				if err != nil {
					return err
				}
				defer iter.Close() //nolint:errcheck

				for iter.Next() {
					value, err := iter.Value()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", a.encode(iter.Key()), a.encode(value))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first key to list (inclusive)")
	cmd.Flags().StringVar(&end, "end", "", "key to stop at (exclusive)")
	return cmd
}
