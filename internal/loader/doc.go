// Package loader turns configuration fragments into service configurations.
//
// A fragment is a mapping with up to three keys:
//
//	includes: [base.yaml, shared.yaml]   # loaded first, merged in order
//	prefix: LAMB                         # applied to this fragment's services only
//	services:
//	  TEST:
//	    class: container
//	    params: {value: 1}
//	    aliases: [T]
//	  TEST2:
//	    extends: TEST                    # parent merged under the child
//
// Named sources are read through a SourceLoader and cached as ordered JSON
// keyed by source id. A source that includes itself, directly or through
// other sources, contributes nothing on the repeated visit and a warning is
// logged. Extends cycles fail with service.ErrInfiniteRecursion.
//
// # Usage
//
//	l := loader.New(loader.FileSource{Root: "configs/services"})
//	l.SetCache(cache.NewMemory("graywire"), 0)
//	cfg, err := l.LoadFile(ctx, "services.yaml")
package loader
