package icons

import (
	"path"
	"strings"
)

// aliases maps normalized names that have no file of their own on the mirror.
var aliases = map[string]string{
	"vpcs": "vpcs_guest",
}

// Normalize reduces a symbol reference to the bare name used by the mirror
// and local symbol stores: ":/symbols/Router.svg" becomes "router".
func Normalize(symbol string) string {
	name := path.Base(strings.TrimSpace(symbol))
	if name == "." || name == "/" {
		return ""
	}
	name = strings.ToLower(strings.TrimSuffix(name, path.Ext(name)))
	if alias, ok := aliases[name]; ok {
		return alias
	}
	return name
}
