// Package icons resolves node symbol references to decoded icon images.
//
// A [Cache] is created per batch run and shared by every worker. Lookups go
// through an ordered list of [Source] tiers; the first tier that returns a
// decodable payload wins:
//
//	cache := icons.New(ctx, []icons.Source{
//	    icons.NewServerSource(gns3Client),      // GET /v2/symbols/{symbol}/raw
//	    icons.NewDirSource("./symbols"),        // optional local copies
//	    icons.NewRedisSource(rdb, ""),          // optional shared symbol store
//	    icons.NewMirrorSource(icons.DefaultMirror),
//	})
//	asset, err := cache.Resolve(ctx, ":/symbols/router.svg")
//
// When every tier fails Resolve returns an ICON_UNAVAILABLE error and the
// renderer draws a shape instead.
package icons
