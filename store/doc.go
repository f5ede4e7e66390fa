// Package store archives finished scripts.
//
// Every backend implements ScriptStore and keeps each Record as one JSON
// document, so records round-trip identically whichever backend holds them:
//   - memory: process-local map, the default
//   - file: one JSON file per record in a directory
//   - redis: records under "<prefix>script:<id>" indexed by a sorted set
//   - sqlite: a single table, file based
//   - postgres: a single table with a JSONB column
//
// Example:
//
//	st, err := sqlite.NewSqliteScriptStore(sqlite.SqliteOptions{Path: "./scripts.db"})
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	rec := store.NewRecord(topic, text, selection, sources, analysis, "")
//	err = st.Save(ctx, rec)
package store
