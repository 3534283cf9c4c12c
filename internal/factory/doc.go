// Package factory maps class identifiers to constructors and provides
// helpers for reading constructor parameters.
//
// A constructor receives parameters with every {reference} already replaced
// by the referenced instance:
//
//	table := factory.NewTable()
//	table.MustRegister("cache.sqlite", func(ctx context.Context, p *configtree.Map) (any, error) {
//	    db, err := factory.Instance[*database.DB](p, "database")
//	    if err != nil {
//	        return nil, err
//	    }
//	    ns, err := factory.StringOr(p, "namespace", "graywire")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return cache.NewSQLite(db.DB, ns), nil
//	})
package factory
