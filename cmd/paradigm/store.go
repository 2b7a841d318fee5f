package main

import (
	"fmt"
	"os"

	"github.com/aretw0/paradigm/internal/cli"
	"github.com/spf13/cobra"
)

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", "memory", "Trial store: memory, file, sqlite, redis")
	cmd.Flags().String("store-dir", "", "Base directory of the file store (default .paradigm/sessions), or database file of the sqlite store (default .paradigm/trials.db)")
	cmd.Flags().String("redis-url", "", "Redis URL for the redis store (redis://host:6379/0)")
	cmd.Flags().Duration("redis-ttl", 0, "Expire redis sessions after this long without writes")
	cmd.Flags().StringSlice("mask", nil, "Regexp of measured data keys to mask before saving (repeatable)")
	cmd.Flags().String("encryption-key-env", "", "Environment variable holding a hex AES-256 key to encrypt measured data")
}

func storeOptions(cmd *cobra.Command) (cli.StoreOptions, error) {
	kind, _ := cmd.Flags().GetString("store")
	dir, _ := cmd.Flags().GetString("store-dir")
	url, _ := cmd.Flags().GetString("redis-url")
	ttl, _ := cmd.Flags().GetDuration("redis-ttl")
	mask, _ := cmd.Flags().GetStringSlice("mask")
	keyEnv, _ := cmd.Flags().GetString("encryption-key-env")

	opts := cli.StoreOptions{Kind: kind, Path: dir, RedisURL: url, TTL: ttl, MaskPatterns: mask}
	if keyEnv != "" {
		opts.EncryptionKey = os.Getenv(keyEnv)
		if opts.EncryptionKey == "" {
			return opts, fmt.Errorf("environment variable %s is empty", keyEnv)
		}
	}
	return opts, nil
}
