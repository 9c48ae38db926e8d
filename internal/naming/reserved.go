package naming

import "strings"

// sqlReservedWords contains MySQL/TiDB keywords that are commonly produced
// from GraphQL names and need quoting when used as identifiers.
var sqlReservedWords = map[string]bool{
	"add":        true,
	"all":        true,
	"alter":      true,
	"and":        true,
	"as":         true,
	"asc":        true,
	"between":    true,
	"by":         true,
	"case":       true,
	"check":      true,
	"column":     true,
	"constraint": true,
	"create":     true,
	"cross":      true,
	"database":   true,
	"default":    true,
	"delete":     true,
	"desc":       true,
	"distinct":   true,
	"drop":       true,
	"else":       true,
	"exists":     true,
	"false":      true,
	"for":        true,
	"foreign":    true,
	"from":       true,
	"group":      true,
	"having":     true,
	"in":         true,
	"index":      true,
	"insert":     true,
	"interval":   true,
	"into":       true,
	"is":         true,
	"join":       true,
	"key":        true,
	"keys":       true,
	"like":       true,
	"limit":      true,
	"match":      true,
	"not":        true,
	"null":       true,
	"on":         true,
	"option":     true,
	"or":         true,
	"order":      true,
	"primary":    true,
	"range":      true,
	"rank":       true,
	"references": true,
	"rows":       true,
	"select":     true,
	"set":        true,
	"show":       true,
	"table":      true,
	"then":       true,
	"to":         true,
	"true":       true,
	"union":      true,
	"unique":     true,
	"update":     true,
	"usage":      true,
	"use":        true,
	"using":      true,
	"values":     true,
	"when":       true,
	"where":      true,
	"with":       true,
}

// IsReservedWord checks if a SQL identifier is a reserved word.
func IsReservedWord(name string) bool {
	return sqlReservedWords[strings.ToLower(name)]
}
