package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"rentnerd/internal/store"
	"rentnerd/internal/types"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the local database",
}

var dbListCmd = &cobra.Command{
	Use:   "list <entity>",
	Short: "List all records of an entity type (person, apartment, tenancy, contract)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entity, err := types.ParseEntityType(args[0])
		if err != nil {
			return err
		}

		db, err := store.NewLocalStore(cfg.Store.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer db.Close()

		records, err := db.List(context.Background(), entity)
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Printf("no %s records\n", entity)
			return nil
		}
		for _, rec := range records {
			fmt.Println(recordLine(rec))
		}
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbListCmd)
}
