// Package repository implements get-or-create persistence for Resources
// and Specs, and the range-query projection, against the Ent-generated
// client.
package repository

import (
	"context"
	"fmt"

	"atmosphere.io/timeline/ent"
)

// WithTx runs fn inside a single Ent transaction, committing on success and
// rolling back on error or panic. One transaction is opened per inbound
// event (spec.md §4.4, §5).
func WithTx(ctx context.Context, client *ent.Client, fn func(tx *ent.Tx) error) error {
	tx, err := client.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w: rolling back: %v", err, rerr)
		}
		return err
	}
	return tx.Commit()
}
