package history

import "context"

// BumpSchemaVersionForTest simulates a ledger written by a newer release.
func (s *Store) BumpSchemaVersionForTest(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "UPDATE schema_version SET version = version + 1")
	return err
}
