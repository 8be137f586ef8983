package render

import (
	"slices"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

type declaration = *css.Declaration

func decl(property, value string) declaration {
	return &css.Declaration{Property: property, Value: value}
}

// mergeStyle overrides properties of an inline style attribute, keeping the
// others in place. An unparsable attribute is dropped.
func mergeStyle(existing string, set ...declaration) string {
	var decls []*css.Declaration
	if strings.TrimSpace(existing) != "" {
		if parsed, err := parser.ParseDeclarations(existing); err == nil {
			decls = parsed
		}
	}

	for _, d := range set {
		i := slices.IndexFunc(decls, func(o *css.Declaration) bool {
			return strings.EqualFold(o.Property, d.Property)
		})
		if i >= 0 {
			decls[i] = d
		} else {
			decls = append(decls, d)
		}
	}

	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d.String()
	}
	return strings.Join(parts, " ")
}
