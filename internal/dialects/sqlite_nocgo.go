//go:build !cgo

package dialects

// translateCgoSQLite is a no-op when the cgo sqlite3 driver is not built in.
func translateCgoSQLite(err error) error {
	return err
}
