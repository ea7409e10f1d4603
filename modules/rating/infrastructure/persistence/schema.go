package persistence

import (
	"context"
	"fmt"

	"github.com/xpresspost/rateshop/pkg/composables"
	"github.com/xpresspost/rateshop/pkg/serrors"
)

// validateColumns checks that every required column exists on the live table
// before any snapshot query is issued against it. The zero-row probe fetches
// only the result-set metadata.
func validateColumns(ctx context.Context, table string, required []string) error {
	q, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows, err := q.Query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", table))
	if err != nil {
		return err
	}
	defer rows.Close()

	present := make(map[string]bool)
	for _, fd := range rows.FieldDescriptions() {
		present[fd.Name] = true
	}

	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return serrors.NewMissingColumns(table, missing)
	}
	return nil
}
