package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/seatside/pkg/lib/core"
)

// ResetDB drops the ledger database. USE WITH CAUTION
func ResetDB(ctx context.Context, config *core.Config, logger core.Logger) error {
	logger.Infof("DANGER: this drops the ledger database and cannot be undone")

	client, db, err := connect(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Dropping database", "database", db.Name())
	if err := db.Drop(ctx); err != nil {
		return fmt.Errorf("drop database %s: %w", db.Name(), err)
	}

	logger.Info("Database dropped", "database", db.Name())
	return nil
}
