package sqlreport

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ashita-ai/rptrun/internal/datasource"
)

var paramRef = regexp.MustCompile(`\{\?\s*([^}]+?)\s*\}`)

// expand rewrites {?Name} references into driver placeholders and returns
// the matching arguments in order.
func expand(query string, driver datasource.Driver, value func(name string) (any, error)) (string, []any, error) {
	var (
		args     []any
		firstErr error
	)
	sql := paramRef.ReplaceAllStringFunc(query, func(ref string) string {
		if firstErr != nil {
			return ref
		}
		name := paramRef.FindStringSubmatch(ref)[1]
		v, err := value(name)
		if err != nil {
			firstErr = err
			return ref
		}
		args = append(args, v)
		return driver.Placeholder(len(args))
	})
	if firstErr != nil {
		return "", nil, firstErr
	}
	return sql, args, nil
}

// references lists the parameter names a query uses, without duplicates.
func references(query string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range paramRef.FindAllStringSubmatch(query, -1) {
		key := strings.ToLower(m[1])
		if !seen[key] {
			seen[key] = true
			names = append(names, m[1])
		}
	}
	return names
}

func describe(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
