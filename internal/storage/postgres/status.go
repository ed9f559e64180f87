package postgres

import (
	"context"

	"github.com/polkiloo/printerd/internal/domain/model"
)

const statusRowID = "main"

// SaveStatus upserts the single status row.
func (r *statusRepository) SaveStatus(ctx context.Context, snapshot model.StatusSnapshot) error {
	const query = `INSERT INTO printer_status (id, connected, connection_type, last_update, queue_size, total_printed_count)
                   VALUES ($1, $2, $3, $4, $5, $6)
                   ON CONFLICT (id) DO UPDATE SET
                       connected = EXCLUDED.connected,
                       connection_type = EXCLUDED.connection_type,
                       last_update = EXCLUDED.last_update,
                       queue_size = EXCLUDED.queue_size,
                       total_printed_count = EXCLUDED.total_printed_count`
	_, err := r.storage.pool.Exec(ctx, query, statusRowID, snapshot.Connected, string(snapshot.ConnectionType),
		snapshot.LastUpdate, snapshot.QueueSize, snapshot.TotalPrintedCount)
	return err
}
