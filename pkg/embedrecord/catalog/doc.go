// Package catalog groups named registries so they can be looked up by name.
//
// A Catalog is what configuration files and the command line tool build:
// every registry defined in a catalog file is registered under its name, and
// callers bind relations to the registries they fetch back.
//
// # Basic Usage
//
//	c := catalog.New()
//	c.MustRegister(colors)
//	c.MustRegister(sizes)
//
//	colors, ok := c.Get("colors")
//	if ok {
//	    paint := embedrecord.MustBindOne("paint", colors, slot)
//	    // use paint...
//	}
//
// # Lazy Initialization
//
// GetOrCreate builds a registry on first use. The factory runs at most once
// per name, even under concurrent access:
//
//	statuses, err := c.GetOrCreate("statuses", func(name string) *embedrecord.Registry {
//	    r := embedrecord.NewRegistry(name)
//	    r.MustCreate(embedrecord.Int(200), nil)
//	    r.MustCreate(embedrecord.Int(404), nil)
//	    return r
//	})
//
// # Thread Safety
//
// All Catalog methods are safe for concurrent use. Range iterates over a
// snapshot in name order.
package catalog
