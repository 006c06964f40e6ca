/*
Package config loads registry catalogs from YAML or JSON documents.

# Overview

Config wraps a decoded map[string]any and provides typed accessors that
return a default when a key is missing or has the wrong shape. BuildCatalog
reads a document's "registries" section into a sealed catalog.Catalog.

# Catalog Files

	registries:
	  colors:
	    id_type: symbol
	    attributes: [name, hex]
	    records:
	      - {id: red, name: Red, hex: "#f00"}
	      - {id: green, name: Green, hex: "#0f0"}
	      - {id: null, name: None}
	  statuses:
	    attributes: [label]
	    records:
	      - {id: 200, label: OK}
	      - {id: 404, label: Not Found}

Records take positions in list order. An id of null defines the registry's
null record. When id_type is omitted it is inferred from the first non-null
id: numbers give an int registry, anything else a symbol registry. Every
record key other than id must appear under attributes.

Errors carry the registry name and record index:

	c, err := config.LoadCatalogFile("catalog.yaml")
	var de *config.DefinitionError
	if errors.As(err, &de) {
	    log.Printf("bad record %d in %s", de.Index, de.Registry)
	}

# Typed Access

	cfg := config.New(map[string]any{"capacity": 10.0, "attributes": []any{"name"}})
	cfg.Int("capacity", 63)             // 10
	cfg.StringSlice("attributes", nil)  // [name]
	cfg.Map("missing").Has("x")         // false

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation.
*/
package config
