package postgres

import "strings"

// Lifecycle filters shared by every read query. Soft-deleted rows never leave
// the repository layer unless a method says otherwise.

// LiveDocument excludes soft-deleted documents. alias is the table alias, or "".
func LiveDocument(alias string) string {
	return column(alias, "status") + " <> 'deleted'"
}

// LiveFolder excludes soft-deleted folders. alias is the table alias, or "".
func LiveFolder(alias string) string {
	return column(alias, "active") + " = TRUE"
}

func column(alias, name string) string {
	if alias == "" {
		return name
	}
	return alias + "." + name
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds an ILIKE pattern matching term as a literal substring
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(term)) + "%"
}
