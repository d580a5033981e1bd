package formatting

import (
	"fmt"
	"sort"
	"strings"
)

// Tree renders a nested string map as an indented tree:
//
//	 ├─name: alice
//	 └─peers:
//	    └─10.0.0.2:3000: User 1
//
// Values are either strings or nested map[string]any; anything else is
// rendered with %v. Keys are sorted for a stable layout.
func Tree(data map[string]any, prefix string) string {
	var sb strings.Builder

	if len(data) == 0 {
		sb.WriteString(prefix + " └─No items.\n")
		return sb.String()
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, key := range keys {
		last := i == len(keys)-1

		branch := " ├─"
		childPrefix := prefix + " │"
		if last {
			branch = " └─"
			childPrefix = prefix + "  "
		}

		switch v := data[key].(type) {
		case map[string]any:
			sb.WriteString(prefix + branch + key + ":\n")
			sb.WriteString(Tree(v, childPrefix+"  "))
		case string:
			sb.WriteString(prefix + branch + key + ": " + v + "\n")
		default:
			sb.WriteString(prefix + branch + key + ": " + fmt.Sprintf("%v", v) + "\n")
		}
	}

	return sb.String()
}
